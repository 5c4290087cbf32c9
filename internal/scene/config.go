package scene

// Config holds the scene segmentation and keyframe sampling thresholds.
type Config struct {
	// Threshold is the ffmpeg scene score above which a frame starts a new scene.
	Threshold float64 `yaml:"threshold"`
	// MinSceneGap merges change points closer than this many seconds.
	MinSceneGap float64 `yaml:"min_scene_gap"`
	// MinSceneLength folds shorter segments into the preceding scene.
	MinSceneLength float64 `yaml:"min_scene_length"`

	Sampling SamplingConfig `yaml:"sampling"`
}

// SamplingConfig controls keyframe selection for OCR.
type SamplingConfig struct {
	// FrameBudget is spread across all scenes; every scene still gets one frame.
	FrameBudget       int `yaml:"frame_budget"`
	MaxFramesPerScene int `yaml:"max_frames_per_scene"`
	// EdgeMargin is the fraction of a scene excluded at each end.
	EdgeMargin float64 `yaml:"edge_margin"`
}

// DefaultConfig returns the default segmentation settings.
func DefaultConfig() Config {
	return Config{
		Threshold:      0.3,
		MinSceneGap:    1.0,
		MinSceneLength: 0.5,
		Sampling:       DefaultSamplingConfig(),
	}
}

// DefaultSamplingConfig returns the default keyframe sampling settings.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		FrameBudget:       10,
		MaxFramesPerScene: 2,
		EdgeMargin:        0.1,
	}
}
