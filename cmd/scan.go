package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenetune/internal/ansi"
	"scenetune/internal/param"
)

var scanWarnings bool

var scanCmd = &cobra.Command{
	Use:   "scan <script.py>",
	Short: "List the script's parameters by category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openScript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer h.close()

		for _, cat := range h.sess.Categories() {
			fmt.Printf("%s%s%s\n", ansi.Bold, cat, ansi.Reset)
			for _, rec := range h.sess.InCategory(cat) {
				printRecord(rec)
			}
			fmt.Println()
		}

		warnings := h.sess.Warnings()
		if scanWarnings && len(warnings) > 0 {
			fmt.Printf("%s%d warning(s):%s\n", ansi.Yellow, len(warnings), ansi.Reset)
			for _, w := range warnings {
				fmt.Printf("  %s\n", w)
			}
		}
		return nil
	},
}

func printRecord(rec *param.Record) {
	fmt.Printf("  %s%-24s%s %s%-12s%s %s(%s)%s",
		ansi.Cyan, rec.Name, ansi.Reset,
		ansi.Green, rec.Value, ansi.Reset,
		ansi.Dim, rec.Type, ansi.Reset)
	if rec.Unit != "" {
		fmt.Printf(" %s", rec.Unit)
	}
	if rec.Min != nil || rec.Max != nil {
		fmt.Printf(" %s[%s..%s]%s", ansi.Dim, bound(rec.Min), bound(rec.Max), ansi.Reset)
	}
	fmt.Println()
	if rec.Description != "" {
		fmt.Printf("    %s%s%s\n", ansi.Dim, rec.Description, ansi.Reset)
	}
}

func bound(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%g", *f)
}

func init() {
	scanCmd.Flags().BoolVar(&scanWarnings, "warnings", false, "show entries skipped during scanning")
	rootCmd.AddCommand(scanCmd)
}
