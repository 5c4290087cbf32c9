package scene

import (
	"context"
	"errors"
	"time"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/rs/zerolog"
)

// Detector is the media capability the segmenter needs.
type Detector interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	DetectScenes(ctx context.Context, path string, threshold float64) ([]time.Duration, error)
}

// Segmenter splits a video into contiguous scenes.
type Segmenter struct {
	logger   zerolog.Logger
	detector Detector
	config   Config
}

// NewSegmenter creates a segmenter backed by detector.
func NewSegmenter(logger zerolog.Logger, detector Detector, cfg Config) *Segmenter {
	return &Segmenter{
		logger:   logger.With().Str("component", "scene-segmenter").Logger(),
		detector: detector,
		config:   cfg,
	}
}

// Segment probes the duration of path and partitions it into scenes.
// It fails with timeline.ErrSegmentation when the duration cannot be determined.
// A failed change-point pass degrades to a single scene.
func (s *Segmenter) Segment(ctx context.Context, path string) ([]timeline.Scene, error) {
	dur, err := s.detector.ProbeDuration(ctx, path)
	if err != nil {
		return nil, timeline.Wrap("scene", "probe duration", timeline.ErrSegmentation, err)
	}
	if dur <= 0 {
		return nil, timeline.Wrap("scene", "probe duration", timeline.ErrSegmentation, errors.New("non-positive duration"))
	}
	return s.SegmentWithDuration(ctx, path, dur.Seconds())
}

// SegmentWithDuration partitions a video whose duration is already known.
func (s *Segmenter) SegmentWithDuration(ctx context.Context, path string, duration float64) ([]timeline.Scene, error) {
	if duration <= 0 {
		return nil, timeline.Wrap("scene", "segment", timeline.ErrSegmentation, errors.New("non-positive duration"))
	}

	changes, err := s.detector.DetectScenes(ctx, path, s.config.Threshold)
	if err != nil {
		if ctx.Err() != nil {
			return nil, timeline.Wrap("scene", "detect", timeline.ErrSegmentation, ctx.Err())
		}
		s.logger.Warn().Err(err).Str("video", path).Msg("scene detection failed, using a single scene")
		changes = nil
	}

	points := make([]float64, len(changes))
	for i, c := range changes {
		points[i] = c.Seconds()
	}

	scenes := BuildScenes(points, duration, s.config)

	s.logger.Info().
		Int("change_points", len(points)).
		Int("scenes", len(scenes)).
		Float64("duration", duration).
		Msg("segmentation complete")

	return scenes, nil
}

// SingleScene covers the whole video with one scene.
func SingleScene(duration float64) []timeline.Scene {
	return []timeline.Scene{{ID: 0, Start: 0, End: duration, Duration: duration}}
}
