package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/keagan/reelsense/internal/clean"
	"github.com/keagan/reelsense/internal/compare"
	"github.com/keagan/reelsense/internal/ocr"
	"github.com/keagan/reelsense/internal/reasoning"
	"github.com/keagan/reelsense/internal/scene"
	"github.com/keagan/reelsense/internal/stt"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Validation ValidationConfig `yaml:"validation"`

	// Media backend
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Stage thresholds
	Scene     scene.Config     `yaml:"scene"`
	STT       STTConfig        `yaml:"stt"`
	OCR       OCRConfig        `yaml:"ocr"`
	Compare   compare.Config   `yaml:"compare"`
	Clean     clean.Config     `yaml:"clean"`
	Reasoning reasoning.Config `yaml:"reasoning"`

	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`
}

type PipelineConfig struct {
	// Timeout bounds a whole Analyze run; 0 disables it.
	Timeout time.Duration `yaml:"timeout"`
	TempDir string        `yaml:"temp_dir"`
	// Concurrency is the number of videos analyzed at once by batch commands.
	Concurrency int `yaml:"concurrency"`
}

// ValidationConfig drives the ingest checks run before segmentation.
type ValidationConfig struct {
	MinDuration      float64  `yaml:"min_duration"`
	MaxDuration      float64  `yaml:"max_duration"`
	Codecs           []string `yaml:"codecs"`
	CheckSilence     bool     `yaml:"check_silence"`
	SilenceThreshold float64  `yaml:"silence_threshold"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	Threads     int    `yaml:"threads"`
}

// STTConfig embeds the transcriber thresholds and selects the recognition backend.
type STTConfig struct {
	stt.Config `yaml:",inline"`

	// Backend is one of "openai", "http" or "none".
	Backend string        `yaml:"backend"`
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// OCRConfig embeds the extractor thresholds and selects the recognition engine.
type OCRConfig struct {
	ocr.Config `yaml:",inline"`

	// Engine is "tesseract" or "none".
	Engine string `yaml:"engine"`
	Binary string `yaml:"binary"`
}

type CacheConfig struct {
	// Backend is one of "memory", "redis" or "none".
	Backend  string        `yaml:"backend"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	// Addr serves /metrics when non-empty, e.g. ":9090".
	Addr string `yaml:"addr"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

const (
	BackendOpenAI = "openai"
	BackendHTTP   = "http"
	BackendNone   = "none"

	EngineTesseract = "tesseract"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Load reads configuration from file or returns defaults. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// applyEnv overrides secrets and endpoints from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.STT.APIKey = v
	}
	if v := getenv("REELSENSE_STT_BACKEND"); v != "" {
		c.STT.Backend = strings.ToLower(v)
	}
	if v := getenv("REELSENSE_STT_URL"); v != "" {
		c.STT.URL = v
	}
	if v := getenv("REELSENSE_STT_MODEL"); v != "" {
		c.STT.Model = v
	}
	if v := getenv("REELSENSE_REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
		c.Cache.Backend = CacheRedis
	}
	if v := getenv("REELSENSE_OCR_LANGS"); v != "" {
		var langs []string
		for _, l := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '+' || r == ' ' }) {
			langs = append(langs, strings.ToLower(l))
		}
		if len(langs) > 0 {
			c.OCR.Languages = langs
		}
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Timeout:     10 * time.Minute,
			Concurrency: 1,
		},
		Validation: ValidationConfig{
			MinDuration:      3,
			MaxDuration:      600,
			Codecs:           []string{"h264", "hevc", "h265", "vp9", "av1", "mpeg4"},
			CheckSilence:     true,
			SilenceThreshold: -50,
		},
		FFmpeg: FFmpegConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			Threads:     0,
		},
		Scene: scene.DefaultConfig(),
		STT: STTConfig{
			Config:  stt.DefaultConfig(),
			Backend: BackendOpenAI,
			Timeout: 2 * time.Minute,
		},
		OCR: OCRConfig{
			Config: ocr.DefaultConfig(),
			Engine: EngineTesseract,
			Binary: "tesseract",
		},
		Compare:   compare.DefaultConfig(),
		Clean:     clean.DefaultConfig(),
		Reasoning: reasoning.DefaultConfig(),
		Cache: CacheConfig{
			Backend: CacheMemory,
			Prefix:  "reelsense",
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			Dir: "./out",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./reelsense.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".reelsense", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
