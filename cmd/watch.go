package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
	"scenetune/internal/render"
	"scenetune/internal/telemetry"
	"scenetune/internal/watch"
)

var watchRender bool

var watchCmd = &cobra.Command{
	Use:   "watch <script.py>",
	Short: "Rescan the script whenever it changes on disk",
	Long: `watch follows external edits to the script. Each save triggers a rescan
and a one-line report of which parameter values changed. With --render, a
save also kicks off a fresh manimgl render, stopping any render still in
flight.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script := args[0]
		h, err := openScript(cmd.Context(), script)
		if err != nil {
			return err
		}
		defer h.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w, err := watch.New(ctx, script)
		if err != nil {
			return err
		}

		var runner *render.Runner
		var proc *render.Process
		if watchRender {
			runner = &render.Runner{ManimPath: h.cfg.ManimPath, Verbose: h.cfg.Verbose}
			if err := runner.Validate(); err != nil {
				return err
			}
		}

		fmt.Printf("watching %s%s%s (Ctrl-C to stop)\n", ansi.Bold, script, ansi.Reset)
		for {
			select {
			case <-ctx.Done():
				if proc != nil {
					proc.Stop() //nolint:errcheck
					proc.Wait() //nolint:errcheck
				}
				return nil

			case err := <-w.Errors():
				fmt.Fprintf(os.Stderr, "%swatch error: %v%s\n", ansi.Red, err, ansi.Reset)

			case ch, ok := <-w.Changes():
				if !ok {
					return nil
				}
				before := h.sess.All()
				old := make(map[string]string, len(before))
				for _, rec := range before {
					old[rec.Name] = rec.Value.String()
				}

				if err := h.sess.Reload(); err != nil {
					fmt.Fprintf(os.Stderr, "%s%v%s\n", ansi.Red, err, ansi.Reset)
					continue
				}

				fmt.Printf("%s%s%s changed\n", ansi.Bold, ch.At.Format(time.TimeOnly), ansi.Reset)
				for _, rec := range h.sess.All() {
					if prev, ok := old[rec.Name]; ok && prev != rec.Value.String() {
						fmt.Printf("  %s%s%s: %s -> %s%s%s\n",
							ansi.Cyan, rec.Name, ansi.Reset,
							prev, ansi.Green, rec.Value, ansi.Reset)
					}
				}

				h.emit.Emit(telemetry.Event{Kind: telemetry.KindWatchChange, Script: script})

				if runner != nil {
					if proc != nil && proc.Status() == render.StatusRunning {
						proc.Stop() //nolint:errcheck
						proc.Wait() //nolint:errcheck
					}
					mode, err := render.ParseMode(h.cfg.RenderMode)
					if err != nil {
						mode = render.ModePreviewLoop
					}
					proc, err = runner.Start(ctx, script, render.Options{
						Quality: h.cfg.Quality,
						Mode:    mode,
					})
					if err != nil {
						fmt.Fprintf(os.Stderr, "%s%v%s\n", ansi.Red, err, ansi.Reset)
						continue
					}
					go func(p *render.Process) {
						for line := range p.Output() {
							fmt.Println(line)
						}
					}(proc)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchRender, "render", false, "re-render on every change")
	rootCmd.AddCommand(watchCmd)
}
