package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/reelsense/internal/cache"
	"github.com/keagan/reelsense/internal/config"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/metrics"
	"github.com/keagan/reelsense/internal/ocr"
	"github.com/keagan/reelsense/internal/stt"
	"github.com/rs/zerolog"
)

// NewFromConfig wires the ffmpeg backend, the configured recognition services,
// the cache and metrics. Only a missing ffmpeg is fatal: an unusable STT backend,
// OCR engine or redis degrades with a warning.
func NewFromConfig(ctx context.Context, logger zerolog.Logger, cfg *config.Config, rec *metrics.Recorder) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	media, err := ffmpeg.NewWithPaths(logger, cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	deps := Dependencies{Media: media, Metrics: rec}

	deps.STT, err = newSTTService(cfg.STT)
	if err != nil {
		logger.Warn().Err(err).Str("backend", cfg.STT.Backend).Msg("speech-to-text unavailable")
	}

	deps.OCR, err = newOCREngine(logger, cfg.OCR)
	if err != nil {
		logger.Warn().Err(err).Str("engine", cfg.OCR.Engine).Msg("OCR unavailable")
	}

	var closers []func() error
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			Prefix:   cfg.Cache.Prefix,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis cache unavailable, using in-memory cache")
			deps.Cache = cache.NewMemory(cfg.Cache.TTL, 10*time.Minute)
			break
		}
		deps.Cache = r
		closers = append(closers, r.Close)
	case config.CacheMemory:
		deps.Cache = cache.NewMemory(cfg.Cache.TTL, 10*time.Minute)
	}

	p, err := New(logger, cfg, deps)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	p.closers = closers
	return p, nil
}

// newSTTService returns a nil Service for the "none" backend.
func newSTTService(cfg config.STTConfig) (stt.Service, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendOpenAI:
		svc, err := stt.NewOpenAIService(stt.OpenAIConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.URL,
			Model:    cfg.Model,
			Language: cfg.Language,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.BackendHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("stt: http backend needs a url")
		}
		return stt.NewHTTPService(cfg.URL, cfg.Language, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("stt: unknown backend %q", cfg.Backend)
	}
}

// newOCREngine returns a nil Engine for the "none" engine.
func newOCREngine(logger zerolog.Logger, cfg config.OCRConfig) (ocr.Engine, error) {
	switch cfg.Engine {
	case "none", "":
		return nil, nil
	case config.EngineTesseract:
		t, err := ocr.NewTesseract(logger, cfg.Binary, cfg.Languages)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("ocr: unknown engine %q", cfg.Engine)
	}
}
