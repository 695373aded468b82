package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
	"scenetune/internal/config"
	"scenetune/internal/render"
	"scenetune/internal/telemetry"
)

var (
	renderScene   string
	renderQuality string
	renderMode    string
)

var renderCmd = &cobra.Command{
	Use:   "render <script.py>",
	Short: "Render the scene with manimgl",
	Long: `render hands the script to manimgl and streams its output. Ctrl-C stops
the render cleanly; the process group is signalled so preview windows close
with it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script := args[0]
		cfg := config.Load()

		quality := renderQuality
		if quality == "" {
			quality = cfg.Quality
		}
		modeName := renderMode
		if modeName == "" {
			modeName = cfg.RenderMode
		}
		mode, err := render.ParseMode(modeName)
		if err != nil {
			return err
		}

		runner := &render.Runner{ManimPath: cfg.ManimPath, Verbose: cfg.Verbose}
		if err := runner.Validate(); err != nil {
			return err
		}

		var emit *telemetry.Emitter
		if cfg.TelemetryPath != "" {
			emit, err = telemetry.NewEmitter(cfg.TelemetryPath)
			if err != nil {
				return err
			}
			defer emit.Close() //nolint:errcheck
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		emit.Emit(telemetry.Event{
			Kind:   telemetry.KindRenderStart,
			Script: script,
			Data:   map[string]any{"scene": renderScene, "quality": quality, "mode": string(mode)},
		})

		proc, err := runner.Start(ctx, script, render.Options{
			Scene:   renderScene,
			Quality: quality,
			Mode:    mode,
		})
		if err != nil {
			return err
		}

		go func() {
			<-ctx.Done()
			proc.Stop() //nolint:errcheck
		}()

		for line := range proc.Output() {
			fmt.Println(line)
		}
		err = proc.Wait()

		emit.Emit(telemetry.Event{
			Kind:   telemetry.KindRenderDone,
			Script: script,
			Data:   map[string]any{"status": string(proc.Status())},
		})

		switch proc.Status() {
		case render.StatusStopped:
			fmt.Printf("%srender stopped%s\n", ansi.Yellow, ansi.Reset)
			return nil
		case render.StatusError:
			return fmt.Errorf("render failed: %w", err)
		default:
			fmt.Printf("%srender finished%s\n", ansi.Green, ansi.Reset)
			return nil
		}
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderScene, "scene", "Scene", "scene class to render")
	renderCmd.Flags().StringVarP(&renderQuality, "quality", "q", "", "render quality (low, medium, high)")
	renderCmd.Flags().StringVarP(&renderMode, "mode", "m", "", "render mode (auto-play, preview-loop, save-only)")
	rootCmd.AddCommand(renderCmd)
}
