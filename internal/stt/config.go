package stt

import "time"

// Config holds transcription settings.
type Config struct {
	// ChunkDuration is the longest audio span, in seconds, sent in one service call.
	ChunkDuration float64       `yaml:"chunk_duration"`
	Concurrency   int           `yaml:"concurrency"`
	MaxAttempts   int           `yaml:"max_attempts"`
	Backoff       time.Duration `yaml:"backoff"`
	Language      string        `yaml:"language"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	Quality QualityThresholds `yaml:"quality"`
}

// QualityThresholds drive the transcript self-assessment.
type QualityThresholds struct {
	MinWords            int     `yaml:"min_words"`
	FewWords            int     `yaml:"few_words"`
	MaxSilenceRatio     float64 `yaml:"max_silence_ratio"`
	HighSilenceRatio    float64 `yaml:"high_silence_ratio"`
	HighRepetitionRatio float64 `yaml:"high_repetition_ratio"`
	MaxWordsPerSecond   float64 `yaml:"max_words_per_second"`
	MinAvgWordLength    float64 `yaml:"min_avg_word_length"`
	MaxIssues           int     `yaml:"max_issues"`
}

// DefaultConfig returns the default transcription settings.
func DefaultConfig() Config {
	return Config{
		ChunkDuration: 120,
		Concurrency:   2,
		MaxAttempts:   3,
		Backoff:       500 * time.Millisecond,
		Language:      "vi",
		CacheTTL:      24 * time.Hour,
		Quality:       DefaultQualityThresholds(),
	}
}

// DefaultQualityThresholds returns the default transcript quality thresholds.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinWords:            5,
		FewWords:            10,
		MaxSilenceRatio:     0.7,
		HighSilenceRatio:    0.5,
		HighRepetitionRatio: 0.4,
		MaxWordsPerSecond:   5,
		MinAvgWordLength:    2,
		MaxIssues:           3,
	}
}
