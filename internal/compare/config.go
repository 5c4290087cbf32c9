package compare

// Config holds the comparison and prioritization constants. They are uncalibrated
// defaults and can be tuned per deployment.
type Config struct {
	// Relation thresholds on the similarity ratio.
	ReinforceSimilarity  float64 `yaml:"reinforce_similarity"`
	ComplementSimilarity float64 `yaml:"complement_similarity"`
	WeakSimilarity       float64 `yaml:"weak_similarity"`
	ComplementKeywords   int     `yaml:"complement_keywords"`
	MinKeywordLength     int     `yaml:"min_keyword_length"`

	Density DensityWeights `yaml:"density"`

	// Combined score = QualityShare*quality + (1-QualityShare)*density.
	QualityShare   float64 `yaml:"quality_share"`
	GoodQuality    float64 `yaml:"good_quality"`
	LowQuality     float64 `yaml:"low_quality"`
	UnknownQuality float64 `yaml:"unknown_quality"`

	ReinforceWeights   Weights `yaml:"reinforce_weights"`
	ComplementWeights  Weights `yaml:"complement_weights"`
	OCRLeadWeights     Weights `yaml:"ocr_lead_weights"`
	IndependentPrimary float64 `yaml:"independent_primary"`
}

// DensityWeights shape the information density score.
type DensityWeights struct {
	Uniqueness    float64 `yaml:"uniqueness"`
	WordLength    float64 `yaml:"word_length"`
	Length        float64 `yaml:"length"`
	NormWordLen   float64 `yaml:"norm_word_length"`
	NormWordCount float64 `yaml:"norm_word_count"`
}

// Weights are stt/ocr shares used by prioritization.
type Weights struct {
	STT float64 `yaml:"stt"`
	OCR float64 `yaml:"ocr"`
}

// DefaultConfig returns the default comparator settings.
func DefaultConfig() Config {
	return Config{
		ReinforceSimilarity:  0.6,
		ComplementSimilarity: 0.3,
		WeakSimilarity:       0.1,
		ComplementKeywords:   3,
		MinKeywordLength:     3,
		Density: DensityWeights{
			Uniqueness:    0.4,
			WordLength:    0.3,
			Length:        0.3,
			NormWordLen:   6,
			NormWordCount: 50,
		},
		QualityShare:       0.6,
		GoodQuality:        1.0,
		LowQuality:         0.3,
		UnknownQuality:     0.5,
		ReinforceWeights:   Weights{STT: 0.6, OCR: 0.4},
		ComplementWeights:  Weights{STT: 0.5, OCR: 0.5},
		OCRLeadWeights:     Weights{STT: 0.4, OCR: 0.6},
		IndependentPrimary: 0.8,
	}
}
