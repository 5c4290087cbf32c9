package clean

// Config controls the content cleaner.
type Config struct {
	Vocabulary Vocabulary `yaml:"vocabulary"`
	// NoiseLineShare is the share of a line a single noise match must exceed for the
	// whole line to be dropped.
	NoiseLineShare float64 `yaml:"noise_line_share"`
	MinLineLength  int     `yaml:"min_line_length"`
	// ContextRunes caps the secondary-text excerpt kept with merged chunks.
	ContextRunes int `yaml:"context_runes"`
	MaxPasses    int `yaml:"max_passes"`
}

// DefaultConfig returns the default cleaner settings.
func DefaultConfig() Config {
	return Config{
		Vocabulary:     DefaultVocabulary(),
		NoiseLineShare: 0.5,
		MinLineLength:  3,
		ContextRunes:   100,
		MaxPasses:      8,
	}
}
