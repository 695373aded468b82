package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
	"scenetune/internal/param"
	"scenetune/internal/rewrite"
)

var setCmd = &cobra.Command{
	Use:   "set <script.py> <name>=<value> [<name>=<value> ...]",
	Short: "Change parameter values as one atomic edit",
	Long: `set rewrites one or more parameter values in place. All assignments are
validated and applied together: if any name is unknown or any value fails
type or bounds checks, the script is left untouched. The batch lands as a
single undo step.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer h.close()

		edits := make([]rewrite.Edit, 0, len(args)-1)
		for _, arg := range args[1:] {
			name, text, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("malformed assignment %q (want name=value)", arg)
			}
			rec, found := h.sess.Get(name)
			if !found {
				return fmt.Errorf("unknown parameter %q", name)
			}
			v, err := param.Parse(rec.Type, text)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			edits = append(edits, rewrite.Edit{Name: name, Value: v})
		}

		entry, err := h.sess.Commit(cmd.Context(), edits)
		if err != nil {
			return err
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
	rootCmd.AddCommand(setCmd)
}
