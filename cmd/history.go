package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
	"scenetune/internal/journal"
	"scenetune/internal/session"
)

var historyCmd = &cobra.Command{
	Use:   "history <script.py>",
	Short: "Show the script's journaled edits",
	Long: `history lists every journaled edit in commit order. Entries above the
marker have been undone and are available to redo.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, err := journal.Open(cmd.Context(), session.JournalPath(args[0]))
		if err != nil {
			return err
		}
		defer jnl.Close()

		entries, cursor, err := jnl.Load(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no edits recorded")
			return nil
		}

		for i, e := range entries {
			marker := " "
			if i == cursor-1 {
				marker = ansi.Green + ">" + ansi.Reset
			}
			undone := ""
			if i >= cursor {
				undone = ansi.Dim + " (undone)" + ansi.Reset
			}

			parts := make([]string, len(e.Changes))
			for j, c := range e.Changes {
				parts[j] = fmt.Sprintf("%s: %s -> %s", c.Name, c.Old, c.New)
			}
			fmt.Printf("%s %3d  %s  %s%s\n", marker, i+1,
				e.At.Local().Format(time.DateTime), strings.Join(parts, ", "), undone)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
