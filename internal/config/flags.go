package config

// Overrides holds command-line overrides applied on top of a loaded config.
// Zero values leave the loaded setting untouched.
type Overrides struct {
	Debug          bool
	Prefix         string
	SpanCount      int
	OffsetDistance float64
	LogFile        string
}

// Apply folds the overrides into cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Prefix != "" {
		cfg.Rig.Prefix = o.Prefix
	}
	if o.SpanCount > 0 {
		cfg.Rig.SpanCount = o.SpanCount
	}
	if o.OffsetDistance > 0 {
		cfg.Rig.OffsetDistance = o.OffsetDistance
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
}
