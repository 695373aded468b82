package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
	"scenetune/internal/config"
	"scenetune/internal/preset"
	"scenetune/internal/telemetry"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Save, apply, and list named parameter presets",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <script.py> <name>",
	Short: "Capture the script's current values as a preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, name := args[0], args[1]
		h, err := openScript(cmd.Context(), script)
		if err != nil {
			return err
		}
		defer h.close()

		snap := h.sess.Snapshot(name)
		path, err := preset.Save(presetsDir(h.cfg, script), snap)
		if err != nil {
			return err
		}
		h.emit.Emit(telemetry.Event{
			Kind:   telemetry.KindPresetSaved,
			Script: script,
			Data:   map[string]any{"preset": name, "values": len(snap.Values)},
		})
		fmt.Printf("saved %s%s%s (%d values) to %s\n", ansi.Green, name, ansi.Reset, len(snap.Values), path)
		return nil
	},
}

var presetLoadCmd = &cobra.Command{
	Use:   "load <script.py> <name>",
	Short: "Apply a saved preset as one atomic edit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, name := args[0], args[1]
		h, err := openScript(cmd.Context(), script)
		if err != nil {
			return err
		}
		defer h.close()

		snap, err := preset.Load(presetsDir(h.cfg, script), script, name)
		if err != nil {
			return err
		}
		entry, skipped, err := h.sess.ApplySnapshot(cmd.Context(), snap)
		if err != nil {
			return err
		}
		if err := h.sess.Save(); err != nil {
			return err
		}

		fmt.Printf("applied %s%s%s: %d change(s)\n", ansi.Green, name, ansi.Reset, len(entry.Changes))
		for _, s := range skipped {
			fmt.Printf("  %sskipped %s: not declared in script%s\n", ansi.Yellow, s, ansi.Reset)
		}
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <script.py> <name>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, name := args[0], args[1]
		cfg := config.Load()
		if err := preset.Delete(presetsDir(cfg, script), script, name); err != nil {
			return err
		}
		fmt.Printf("deleted %s%s%s\n", ansi.Green, name, ansi.Reset)
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list <script.py>",
	Short: "List the presets saved for a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer h.close()

		names, err := preset.List(presetsDir(h.cfg, args[0]), args[0])
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("no presets saved")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetLoadCmd)
	presetCmd.AddCommand(presetDeleteCmd)
	presetCmd.AddCommand(presetListCmd)
	rootCmd.AddCommand(presetCmd)
}
