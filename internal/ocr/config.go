package ocr

import "time"

// Config holds OCR extraction settings.
type Config struct {
	// Languages are ISO-639-1 codes, mapped to engine language packs.
	Languages   []string      `yaml:"languages"`
	FrameWidth  int           `yaml:"frame_width"`
	Concurrency int           `yaml:"concurrency"`
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	Preprocess PreprocessConfig  `yaml:"preprocess"`
	Quality    QualityThresholds `yaml:"quality"`
}

// PreprocessConfig controls image cleanup before recognition.
type PreprocessConfig struct {
	Enabled bool `yaml:"enabled"`
	// MinWidth upscales narrower frames; MaxWidth downscales wider ones.
	MinWidth int     `yaml:"min_width"`
	MaxWidth int     `yaml:"max_width"`
	Contrast float64 `yaml:"contrast"`
	Sharpen  float64 `yaml:"sharpen"`
	// MinLumaDeviation skips near-uniform frames (black, white, fades); 0..1.
	MinLumaDeviation float64 `yaml:"min_luma_deviation"`
}

// QualityThresholds drive the OCR self-assessment.
type QualityThresholds struct {
	MinChars            int     `yaml:"min_chars"`
	LowChars            int     `yaml:"low_chars"`
	MinReadableRatio    float64 `yaml:"min_readable_ratio"`
	HighNoiseRatio      float64 `yaml:"high_noise_ratio"`
	MinAvgCharsPerFrame float64 `yaml:"min_avg_chars_per_frame"`
	// ReadableFrameChars is the char count a frame must exceed to count as readable.
	ReadableFrameChars int `yaml:"readable_frame_chars"`
	MaxIssues          int `yaml:"max_issues"`
}

// DefaultConfig returns the default OCR settings.
func DefaultConfig() Config {
	return Config{
		Languages:   []string{"vi", "en"},
		FrameWidth:  1280,
		Concurrency: 4,
		MaxAttempts: 2,
		Backoff:     200 * time.Millisecond,
		CacheTTL:    24 * time.Hour,
		Preprocess: PreprocessConfig{
			Enabled:          true,
			MinWidth:         720,
			MaxWidth:         1920,
			Contrast:         20,
			Sharpen:          0.5,
			MinLumaDeviation: 0.02,
		},
		Quality: DefaultQualityThresholds(),
	}
}

// DefaultQualityThresholds returns the default OCR quality thresholds.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinChars:            5,
		LowChars:            20,
		MinReadableRatio:    0.1,
		HighNoiseRatio:      0.6,
		MinAvgCharsPerFrame: 2,
		ReadableFrameChars:  5,
		MaxIssues:           3,
	}
}
