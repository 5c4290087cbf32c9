package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/reelsense/internal/align"
	"github.com/keagan/reelsense/internal/clean"
	"github.com/keagan/reelsense/internal/compare"
	"github.com/keagan/reelsense/internal/config"
	"github.com/keagan/reelsense/internal/metrics"
	"github.com/keagan/reelsense/internal/ocr"
	"github.com/keagan/reelsense/internal/reasoning"
	"github.com/keagan/reelsense/internal/scene"
	"github.com/keagan/reelsense/internal/stt"
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pipeline orchestrates the whole analysis of one video. A Pipeline holds no
// per-run state and may serve concurrent Analyze calls.
type Pipeline struct {
	logger  zerolog.Logger
	config  *config.Config
	media   Media
	metrics *metrics.Recorder

	segmenter   *scene.Segmenter
	transcriber *stt.Transcriber
	extractor   *ocr.Extractor
	comparator  *compare.Comparator
	cleaner     *clean.Cleaner
	gate        *reasoning.Gate

	closers []func() error
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config, deps Dependencies) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Media == nil {
		return nil, errors.New("pipeline: media backend is required")
	}

	cleaner, err := clean.NewCleaner(cfg.Clean)
	if err != nil {
		return nil, fmt.Errorf("failed to build cleaner: %w", err)
	}

	var sttOpts []stt.Option
	var ocrOpts []ocr.Option
	if deps.Cache != nil {
		sttOpts = append(sttOpts, stt.WithCache(deps.Cache))
		ocrOpts = append(ocrOpts, ocr.WithCache(deps.Cache))
	}
	if deps.Metrics != nil {
		sttOpts = append(sttOpts, stt.WithObserver(deps.Metrics))
		ocrOpts = append(ocrOpts, ocr.WithObserver(deps.Metrics))
	}

	return &Pipeline{
		logger:      logger.With().Str("component", "pipeline").Logger(),
		config:      cfg,
		media:       deps.Media,
		metrics:     deps.Metrics,
		segmenter:   scene.NewSegmenter(logger, deps.Media, cfg.Scene),
		transcriber: stt.NewTranscriber(logger, deps.Media, deps.STT, cfg.STT.Config, sttOpts...),
		extractor:   ocr.NewExtractor(logger, deps.Media, deps.OCR, cfg.OCR.Config, cfg.Scene.Sampling, ocrOpts...),
		comparator:  compare.NewComparator(logger, cfg.Compare),
		cleaner:     cleaner,
		gate:        reasoning.NewGate(logger, cfg.Reasoning),
	}, nil
}

// Close releases pipeline resources
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Metrics returns the recorder the pipeline reports to, or nil.
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}

// Analyze runs the full analysis pipeline on one video. Only an unreadable video,
// a video whose scenes cannot be determined, or caller cancellation produce an
// error; every other failure is reported inside the result. When the pipeline
// timeout fires, whatever the stages produced so far is still fused and gated.
func (p *Pipeline) Analyze(ctx context.Context, input string, opts AnalyzeOptions) (*Result, error) {
	if input == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}

	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Str("video", input).Logger()
	started := time.Now()
	clock := newStageClock(p.metrics)

	res := &Result{RunID: runID, VideoPath: input, StartedAt: started}

	if timeout := p.config.Pipeline.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	work, cleanup, err := util.Workspace(p.config.Pipeline.TempDir, "reelsense-")
	if err != nil {
		p.metrics.Run("error")
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer cleanup()

	logger.Info().Str("workspace", work).Msg("starting analysis pipeline")

	// Stage 1: probe and validate
	stop := clock.start("probe")
	info, err := p.media.ProbeVideo(ctx, input)
	if err == nil && !info.HasVideo {
		err = errors.New("no video stream")
	}
	stop()
	if err != nil {
		p.metrics.Run("error")
		return nil, timeline.Wrap("pipeline", "probe", timeline.ErrUnreadableVideo, err)
	}

	res.Video = Summarize(info, opts)
	silent := p.silentAudio(ctx, logger, input, res.Video)
	res.Validation = Validate(res.Video, silent, p.config.Validation)

	logger.Info().
		Float64("duration", res.Video.Duration).
		Int("width", res.Video.Width).
		Int("height", res.Video.Height).
		Bool("has_audio", res.Video.HasAudio).
		Str("confidence", string(res.Validation.Confidence)).
		Strs("warnings", res.Validation.Warnings).
		Msg("video validated")

	// Stage 2: scenes
	stop = clock.start("scene")
	res.Scenes, err = p.segment(ctx, logger, input, res.Video.Duration)
	stop()
	if err != nil {
		p.metrics.Run("error")
		return nil, err
	}

	// Stage 3: transcription and text extraction, joined before fusion
	sttDir, ocrDir := filepath.Join(work, "stt"), filepath.Join(work, "ocr")
	for _, dir := range []string{sttDir, ocrDir} {
		if err := util.EnsureDir(dir); err != nil {
			p.metrics.Run("error")
			return nil, fmt.Errorf("failed to create workspace: %w", err)
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		defer clock.start("stt")()
		res.Transcript = p.transcriber.Transcribe(ctx, stt.Request{
			VideoPath:    input,
			WorkDir:      sttDir,
			HasAudio:     res.Video.HasAudio,
			Silent:       silent,
			DurationHint: res.Video.Duration,
		})
		return nil
	})
	g.Go(func() error {
		defer clock.start("ocr")()
		res.OCR = p.extractor.Extract(ctx, ocr.Request{
			VideoPath: input,
			WorkDir:   ocrDir,
			Scenes:    res.Scenes,
		})
		return nil
	})
	_ = g.Wait()

	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		res.TimedOut = true
		logger.Warn().Msg("pipeline timed out, fusing partial results")
	case err != nil:
		p.metrics.Run("error")
		return nil, err
	}

	// Stage 4: fusion and readiness
	stop = clock.start("fuse")
	res.Fusion = p.Fuse(res.Scenes, res.Transcript, res.OCR)
	stop()

	res.Timings = clock.snapshot()
	res.Timings["total"] = time.Since(started).Milliseconds()

	p.metrics.Verdict(res.Readiness.ReasoningReady, string(res.Readiness.ContentQuality))
	if res.TimedOut {
		p.metrics.Run("timeout")
	} else {
		p.metrics.Run("ok")
	}

	logger.Info().
		Int("scenes", len(res.Scenes)).
		Str("stt_quality", string(res.Sources.STTQuality)).
		Str("ocr_quality", string(res.Sources.OCRQuality)).
		Bool("reasoning_ready", res.Readiness.ReasoningReady).
		Str("content_quality", string(res.Readiness.ContentQuality)).
		Int64("total_ms", res.Timings["total"]).
		Msg("analysis pipeline complete")

	return res, nil
}

// segment determines the scenes. With a known duration, a failed detection pass
// degrades to a single scene; without one it is fatal.
func (p *Pipeline) segment(ctx context.Context, logger zerolog.Logger, input string, duration float64) ([]timeline.Scene, error) {
	if duration <= 0 {
		return p.segmenter.Segment(ctx, input)
	}
	scenes, err := p.segmenter.SegmentWithDuration(ctx, input, duration)
	if err != nil {
		logger.Warn().Err(err).Msg("segmentation failed, using a single scene")
		return scene.SingleScene(duration), nil
	}
	return scenes, nil
}

// silentAudio runs the loudness check when enabled. Failures count as not silent.
func (p *Pipeline) silentAudio(ctx context.Context, logger zerolog.Logger, input string, v VideoSummary) bool {
	if !v.HasAudio || !p.config.Validation.CheckSilence {
		return false
	}
	vol, err := p.media.AnalyzeVolume(ctx, input)
	if err != nil {
		logger.Debug().Err(err).Msg("volume analysis failed")
		return false
	}
	return vol.MaxVolume < p.config.Validation.SilenceThreshold
}

// Fuse aligns both sources onto the scenes, compares and prioritizes every chunk,
// cleans the chosen text and gates the result. It is pure apart from logging.
func (p *Pipeline) Fuse(scenes []timeline.Scene, transcript stt.Transcript, extraction ocr.Extraction) Fusion {
	var fu Fusion

	chunks, warnings := align.Align(scenes, transcript.Segments, extraction.Items)
	for _, w := range warnings {
		p.logger.Warn().Err(w).Msg("alignment")
		fu.Warnings = append(fu.Warnings, w.Error())
	}

	sttQ := orLow(transcript.Assessment.Quality)
	ocrQ := orLow(extraction.Assessment.Quality)

	cmps := make([]timeline.Comparison, len(chunks))
	priorities := make([]timeline.Priority, len(chunks))
	for i, ch := range chunks {
		cmps[i], priorities[i] = p.comparator.Evaluate(ch, sttQ, ocrQ)
	}

	fu.Chunks = p.cleaner.CleanContent(chunks, cmps, priorities)
	fu.Stats = align.ComputeStats(chunks)
	fu.Sources = reasoning.AssessSources(sttQ, ocrQ)
	fu.Richness = reasoning.ScoreRichness(
		int(transcript.Assessment.Metrics["word_count"]),
		int(extraction.Assessment.Metrics["total_chars"]),
		p.config.Reasoning.Richness,
	)

	texts := make([]string, 0, len(fu.Chunks))
	for _, c := range fu.Chunks {
		if c.FinalText != "" {
			texts = append(texts, c.FinalText)
		}
	}
	fu.NormalizedText = strings.Join(texts, "\n\n")

	fu.Readiness = p.gate.Evaluate(fu.Chunks, fu.Sources)
	return fu
}

func orLow(q timeline.Quality) timeline.Quality {
	if q == "" {
		return timeline.QualityLow
	}
	return q
}

// stageClock records stage durations from concurrent stages.
type stageClock struct {
	mu      sync.Mutex
	ms      map[string]int64
	metrics *metrics.Recorder
}

func newStageClock(m *metrics.Recorder) *stageClock {
	return &stageClock{ms: make(map[string]int64), metrics: m}
}

func (c *stageClock) start(stage string) func() {
	t := time.Now()
	return func() {
		d := time.Since(t)
		c.mu.Lock()
		c.ms[stage] = d.Milliseconds()
		c.mu.Unlock()
		c.metrics.ObserveStage(stage, d)
	}
}

func (c *stageClock) snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.ms)+1)
	for k, v := range c.ms {
		out[k] = v
	}
	return out
}
