package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/keagan/reelsense/internal/cache"
	"github.com/keagan/reelsense/internal/scene"
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FrameSource decodes single frames from a video.
type FrameSource interface {
	ExtractFrame(ctx context.Context, input string, at time.Duration, output string, width int) error
}

// CallObserver is notified of every engine call outcome.
type CallObserver interface {
	ServiceCall(service, outcome string)
}

// Request describes one extraction job.
type Request struct {
	VideoPath string
	WorkDir   string
	Scenes    []timeline.Scene
}

// FrameResult records what happened to one sampled keyframe.
type FrameResult struct {
	timeline.KeyFrame
	RawLines   int      `json:"raw_lines"`
	CleanLines []string `json:"clean_lines,omitempty"`
	Skipped    string   `json:"skipped,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Extraction is the TextExtractor output.
type Extraction struct {
	Outcome    timeline.Outcome    `json:"outcome"`
	Items      []timeline.OCRItem  `json:"items"`
	Text       string              `json:"ocr_text"`
	Frames     []FrameResult       `json:"frames,omitempty"`
	Assessment timeline.Assessment `json:"quality"`
}

// Extractor reads on-screen text from keyframes sampled per scene.
type Extractor struct {
	logger   zerolog.Logger
	frames   FrameSource
	engine   Engine
	prep     *Preprocessor
	cache    cache.Cache
	observer CallObserver
	config   Config
	sampling scene.SamplingConfig
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithCache stores raw recognized lines keyed by frame content.
func WithCache(c cache.Cache) Option {
	return func(e *Extractor) { e.cache = c }
}

// WithObserver reports engine call outcomes.
func WithObserver(o CallObserver) Option {
	return func(e *Extractor) { e.observer = o }
}

// NewExtractor creates an extractor. engine may be nil when no OCR engine is
// installed; extraction is then skipped.
func NewExtractor(logger zerolog.Logger, frames FrameSource, engine Engine, cfg Config, sampling scene.SamplingConfig, opts ...Option) *Extractor {
	e := &Extractor{
		logger:   logger.With().Str("component", "text-extractor").Logger(),
		frames:   frames,
		engine:   engine,
		prep:     NewPreprocessor(cfg.Preprocess),
		config:   cfg,
		sampling: sampling,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type frameOutcome struct {
	lines        []string
	skipped      string
	extractErr   error
	recognizeErr error
}

// Extract never returns an error: failures are reported through the outcome and
// the assessment issues.
func (e *Extractor) Extract(ctx context.Context, req Request) Extraction {
	th := e.config.Quality

	if e.engine == nil {
		e.logger.Info().Msg("no OCR engine available, skipping text extraction")
		return Extraction{
			Outcome:    timeline.Skipped(IssueNotAvailable),
			Assessment: timeline.LowAssessment(IssueNotAvailable),
		}
	}

	keyframes := scene.SampleKeyFrames(req.Scenes, e.sampling)
	if len(keyframes) == 0 {
		return Extraction{
			Outcome:    timeline.Failed(IssueNoFrames, timeline.Wrap("ocr", "sample", timeline.ErrExtraction, errors.New("no scenes to sample"))),
			Assessment: timeline.LowAssessment(IssueNoFrames),
		}
	}

	e.logger.Info().
		Int("scenes", len(req.Scenes)).
		Int("keyframes", len(keyframes)).
		Str("engine", e.engine.Name()).
		Msg("extracting on-screen text")

	outcomes := make([]frameOutcome, len(keyframes))

	var g errgroup.Group
	if e.config.Concurrency > 0 {
		g.SetLimit(e.config.Concurrency)
	}
	for i, kf := range keyframes {
		g.Go(func() error {
			outcomes[i] = e.processFrame(ctx, req, kf)
			return nil
		})
	}
	_ = g.Wait()

	var (
		dedup      = NewDeduper()
		items      []timeline.OCRItem
		texts      []string
		tallies    = make([]FrameTally, len(keyframes))
		results    = make([]FrameResult, len(keyframes))
		extracted  int
		recognized int
		lastErr    error
	)
	for i, kf := range keyframes {
		out := outcomes[i]
		results[i] = FrameResult{KeyFrame: kf, RawLines: len(out.lines), Skipped: out.skipped}

		switch {
		case out.extractErr != nil:
			results[i].Error = out.extractErr.Error()
			lastErr = out.extractErr
			continue
		case out.recognizeErr != nil:
			extracted++
			results[i].Error = out.recognizeErr.Error()
			lastErr = out.recognizeErr
			continue
		}
		extracted++
		recognized++

		clean, _ := FilterLines(out.lines, dedup)
		results[i].CleanLines = clean
		if len(clean) == 0 {
			tallies[i] = FrameTally{RawLines: len(out.lines)}
			continue
		}

		text := strings.Join(clean, "\n")
		chars := utf8.RuneCountInString(text)
		tallies[i] = FrameTally{RawLines: len(out.lines), CleanLines: len(clean), Chars: chars}
		items = append(items, timeline.OCRItem{
			SceneID:   kf.SceneID,
			Timestamp: kf.Timestamp,
			Text:      text,
			CharCount: chars,
		})
		texts = append(texts, text)
	}

	if extracted == 0 {
		issues := []string{IssueNoFrames}
		if ctx.Err() != nil {
			issues = append(issues, IssueTimedOut)
		}
		return Extraction{
			Outcome:    timeline.Failed(IssueNoFrames, timeline.Wrap("ocr", "extract frames", timeline.ErrExtraction, lastErr)),
			Frames:     results,
			Assessment: timeline.LowAssessment(issues...),
		}
	}

	assessment := AssessQuality(tallies, th)

	var extra []string
	if recognized < len(keyframes) {
		extra = append(extra, IssueFrameFailed)
	}
	if ctx.Err() != nil {
		extra = append(extra, IssueTimedOut)
	}
	assessment = withIssues(assessment, th, extra...)

	outcome := timeline.Ok()
	if recognized == 0 {
		assessment = withIssues(assessment, th, IssueProcessingError)
		outcome = timeline.Failed(IssueProcessingError, lastErr)
	}

	e.logger.Info().
		Int("items", len(items)).
		Int("chars", int(assessment.Metrics["total_chars"])).
		Str("quality", string(assessment.Quality)).
		Strs("issues", assessment.Issues).
		Msg("text extraction complete")

	return Extraction{
		Outcome:    outcome,
		Items:      items,
		Text:       strings.Join(texts, "\n"),
		Frames:     results,
		Assessment: assessment,
	}
}

// processFrame decodes, cleans up and recognizes one keyframe. The frame files are
// removed before returning.
func (e *Extractor) processFrame(ctx context.Context, req Request, kf timeline.KeyFrame) frameOutcome {
	path := filepath.Join(req.WorkDir, fmt.Sprintf("frame_%03d.jpg", kf.FrameID))
	defer os.Remove(path)

	if err := e.frames.ExtractFrame(ctx, req.VideoPath, util.Seconds(kf.Timestamp), path, e.config.FrameWidth); err != nil {
		e.logger.Warn().Err(err).Int("frame", kf.FrameID).Float64("at", kf.Timestamp).Msg("frame extraction failed")
		return frameOutcome{extractErr: timeline.Wrap("ocr", fmt.Sprintf("extract frame %d", kf.FrameID), timeline.ErrExtraction, err)}
	}

	input, _, err := e.prep.Process(path)
	switch {
	case errors.Is(err, errBlankFrame):
		e.logger.Debug().Int("frame", kf.FrameID).Msg("blank frame, skipping recognition")
		return frameOutcome{skipped: "blank_frame"}
	case err != nil:
		e.logger.Debug().Err(err).Int("frame", kf.FrameID).Msg("preprocessing failed, using raw frame")
		input = path
	case input != path:
		defer os.Remove(input)
	}

	var key string
	if e.cache != nil {
		key, _ = cache.FileKey("ocr:"+e.engine.Name(), input)
	}

	var lines []string
	if ok, _ := cache.GetJSON(ctx, e.cache, key, &lines); ok {
		e.observe("cached")
		return frameOutcome{lines: lines}
	}

	policy := util.RetryPolicy{Attempts: e.config.MaxAttempts, Backoff: e.config.Backoff, MaxDelay: 5 * time.Second}
	err = util.Retry(ctx, policy, func(ctx context.Context) error {
		out, err := e.engine.Recognize(ctx, input)
		if err != nil {
			e.observe("error")
			return err
		}
		lines = out
		return nil
	}, func(attempt int, err error) {
		e.logger.Debug().Err(err).Int("frame", kf.FrameID).Int("attempt", attempt).Msg("retrying recognition")
	})
	if err != nil {
		e.logger.Warn().Err(err).Int("frame", kf.FrameID).Msg("recognition failed")
		return frameOutcome{recognizeErr: timeline.Wrap("ocr", fmt.Sprintf("recognize frame %d", kf.FrameID), timeline.ErrServiceInvocation, err)}
	}
	e.observe("ok")

	if err := cache.SetJSON(ctx, e.cache, key, lines, e.config.CacheTTL); err != nil {
		e.logger.Debug().Err(err).Msg("cache write failed")
	}
	return frameOutcome{lines: lines}
}

func (e *Extractor) observe(outcome string) {
	if e.observer != nil {
		e.observer.ServiceCall("ocr", outcome)
	}
}
