// Package cmd wires the scenetune CLI: scanning scene scripts, editing
// parameters with undo/redo, presets, rendering, and watching.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scenetune",
	Short: "Tune manim scene parameters without touching the rest of the script",
	Long: `scenetune scans the PARAMETERS block of a manim-gl scene script into a
typed model, lets you change values one at a time or in batches, and writes
the results back as minimal byte-exact edits: everything outside the changed
literals, including comments and formatting, is preserved untouched.

Edits are journaled next to the script, so undo and redo work across
invocations. Named presets capture and restore whole parameter sets, and the
render command hands the script to manimgl.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .scenetune.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("no-journal", false, "disable the persistent edit journal")
	rootCmd.PersistentFlags().String("telemetry", "", "append JSONL events to this file")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("telemetry_path", rootCmd.PersistentFlags().Lookup("telemetry"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".scenetune")
	}

	viper.SetEnvPrefix("SCENETUNE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "using config:", viper.ConfigFileUsed())
		}
	}

	// The flag wins over config file and env when explicitly set.
	if f := rootCmd.PersistentFlags().Lookup("no-journal"); f != nil && f.Changed {
		viper.Set("journal", false)
	}
}
