package reasoning

// Config holds the readiness thresholds.
type Config struct {
	MinWords          int     `yaml:"min_words"`
	MinChunkWords     int     `yaml:"min_chunk_words"`
	MinContentChunks  int     `yaml:"min_content_chunks"`
	MinContentDensity float64 `yaml:"min_content_density"`

	MaxLowConfidenceRatio float64 `yaml:"max_low_confidence_ratio"`
	MinStructureChunks    int     `yaml:"min_structure_chunks"`

	ClearTopicWords   int `yaml:"clear_topic_words"`
	PartialTopicWords int `yaml:"partial_topic_words"`
	VagueTopicWords   int `yaml:"vague_topic_words"`
	ContextChunkWords int `yaml:"context_chunk_words"`
	RichContext       int `yaml:"rich_context_chunks"`
	AdequateContext   int `yaml:"adequate_context_chunks"`

	// MaxMediumIssues is the most issues a medium content quality may carry.
	MaxMediumIssues int `yaml:"max_medium_issues"`

	Richness RichnessConfig `yaml:"richness"`
}

// Tier awards Points when a count exceeds Above.
type Tier struct {
	Above  int `yaml:"above"`
	Points int `yaml:"points"`
}

// RichnessConfig scores how much raw material each source produced.
type RichnessConfig struct {
	// Tiers are checked in order; the first match wins.
	WordTiers []Tier `yaml:"word_tiers"`
	CharTiers []Tier `yaml:"char_tiers"`
	High      int    `yaml:"high"`
	Medium    int    `yaml:"medium"`
}

// DefaultConfig returns the default readiness thresholds.
func DefaultConfig() Config {
	return Config{
		MinWords:              5,
		MinChunkWords:         3,
		MinContentChunks:      1,
		MinContentDensity:     0.3,
		MaxLowConfidenceRatio: 0.8,
		MinStructureChunks:    2,
		ClearTopicWords:       20,
		PartialTopicWords:     10,
		VagueTopicWords:       5,
		ContextChunkWords:     5,
		RichContext:           3,
		AdequateContext:       2,
		MaxMediumIssues:       2,
		Richness: RichnessConfig{
			WordTiers: []Tier{{100, 50}, {50, 40}, {20, 30}, {10, 20}, {5, 10}},
			CharTiers: []Tier{{200, 50}, {100, 40}, {50, 30}, {20, 20}, {10, 10}},
			High:      70,
			Medium:    40,
		},
	}
}
