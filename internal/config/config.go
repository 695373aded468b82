package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a scenetune invocation.
// Values are populated from .scenetune.yaml, SCENETUNE_* env vars, and CLI
// flags.
type Config struct {
	ManimPath     string `mapstructure:"manim_path"`
	Quality       string `mapstructure:"quality"`
	RenderMode    string `mapstructure:"render_mode"`
	PresetsDir    string `mapstructure:"presets_dir"`
	TelemetryPath string `mapstructure:"telemetry_path"`
	Journal       bool   `mapstructure:"journal"`
	Verbose       bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. An empty
// presets_dir means "next to the script"; an empty telemetry_path disables
// the event log.
func Load() Config {
	viper.SetDefault("manim_path", "manimgl")
	viper.SetDefault("quality", "low")
	viper.SetDefault("render_mode", "preview-loop")
	viper.SetDefault("presets_dir", "")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("journal", true)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
