// Package config handles rig builder configuration and curve descriptions.
package config

// Config holds all tool settings.
type Config struct {
	Rig     RigConfig     `yaml:"rig"`
	Logging LoggingConfig `yaml:"logging"`
}

// RigConfig holds the rig builder tunables.
type RigConfig struct {
	Prefix          string  `yaml:"prefix"`
	SpanCount       int     `yaml:"span_count"`
	OffsetDistance  float64 `yaml:"offset_distance"`
	OffsetTolerance float64 `yaml:"offset_tolerance"`
	StretchDefault  float64 `yaml:"stretch_default"`
	StretchMax      float64 `yaml:"stretch_max"`
	AllowCompress   bool    `yaml:"allow_compress"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Rig: RigConfig{
			Prefix:          "rig",
			SpanCount:       5,
			OffsetDistance:  1.0,
			OffsetTolerance: 1e-4,
			StretchDefault:  1.0,
			StretchMax:      1.0,
			AllowCompress:   false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
