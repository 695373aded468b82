package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
)

var undoCmd = &cobra.Command{
	Use:   "undo <script.py>",
	Short: "Reverse the most recent edit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer h.close()

		entry, ok, err := h.sess.Undo(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("nothing to undo")
			return nil
		}
		if err := h.sess.Save(); err != nil {
			return err
		}

		for _, c := range entry.Changes {
			fmt.Printf("%s%s%s: %s -> %s%s%s\n",
				ansi.Cyan, c.Name, ansi.Reset,
				c.New, ansi.Green, c.Old, ansi.Reset)
		}
		return nil
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo <script.py>",
	Short: "Re-apply the most recently undone edit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer h.close()

		entry, ok, err := h.sess.Redo(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("nothing to redo")
			return nil
		}
		if err := h.sess.Save(); err != nil {
			return err
		}

		for _, c := range entry.Changes {
			fmt.Printf("%s%s%s: %s -> %s%s%s\n",
				ansi.Cyan, c.Name, ansi.Reset,
				c.Old, ansi.Green, c.New, ansi.Reset)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
}
