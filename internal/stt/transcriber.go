package stt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/keagan/reelsense/internal/cache"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AudioSource is the media capability the transcriber needs.
type AudioSource interface {
	ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat, progress ffmpeg.ProgressFunc) error
	ExtractAudioSegment(ctx context.Context, input, output string, start, length time.Duration, format ffmpeg.AudioFormat) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// CallObserver is notified of every service call outcome.
type CallObserver interface {
	ServiceCall(service, outcome string)
}

// Request describes one transcription job.
type Request struct {
	VideoPath string
	WorkDir   string
	HasAudio  bool
	// Silent marks an audio track that exists but measured as silence.
	Silent bool
	// DurationHint is used when the extracted audio cannot be probed.
	DurationHint float64
}

// ChunkStatus records how one audio chunk fared.
type ChunkStatus struct {
	Chunk
	Segments int    `json:"segments"`
	Cached   bool   `json:"cached,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Transcript is the Transcriber output.
type Transcript struct {
	Outcome    timeline.Outcome         `json:"outcome"`
	Text       string                   `json:"transcript"`
	Segments   []timeline.SpeechSegment `json:"segments"`
	Chunks     []ChunkStatus            `json:"chunks,omitempty"`
	Duration   float64                  `json:"audio_duration"`
	Assessment timeline.Assessment      `json:"quality"`
}

// Transcriber turns a video's audio track into time-stamped speech segments.
type Transcriber struct {
	logger   zerolog.Logger
	audio    AudioSource
	service  Service
	cache    cache.Cache
	observer CallObserver
	config   Config
	format   ffmpeg.AudioFormat
}

// Option customizes a Transcriber.
type Option func(*Transcriber)

// WithCache stores service responses keyed by chunk audio content.
func WithCache(c cache.Cache) Option {
	return func(t *Transcriber) { t.cache = c }
}

// WithObserver reports service call outcomes (e.g. to metrics).
func WithObserver(o CallObserver) Option {
	return func(t *Transcriber) { t.observer = o }
}

// NewTranscriber creates a transcriber. service may be nil, in which case every
// request with audio fails with service_unavailable.
func NewTranscriber(logger zerolog.Logger, audio AudioSource, service Service, cfg Config, opts ...Option) *Transcriber {
	t := &Transcriber{
		logger:  logger.With().Str("component", "transcriber").Logger(),
		audio:   audio,
		service: service,
		config:  cfg,
		format:  ffmpeg.DefaultSpeechFormat(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe never returns an error: every failure is reported through the outcome
// and the assessment issues.
func (t *Transcriber) Transcribe(ctx context.Context, req Request) Transcript {
	th := t.config.Quality

	if !req.HasAudio {
		t.logger.Info().Str("video", req.VideoPath).Msg("no audio track, skipping transcription")
		return Transcript{
			Outcome:    timeline.Skipped(IssueNoAudio),
			Assessment: timeline.LowAssessment(IssueNoAudio),
		}
	}
	if req.Silent {
		t.logger.Info().Str("video", req.VideoPath).Msg("audio track is silent, skipping transcription")
		return Transcript{
			Outcome:    timeline.Skipped(IssueSilentAudio),
			Assessment: timeline.LowAssessment(IssueSilentAudio),
		}
	}

	if t.service == nil {
		err := timeline.Wrap("stt", "transcribe", timeline.ErrServiceInvocation, fmt.Errorf("no speech-to-text service configured"))
		return Transcript{
			Outcome:    timeline.Failed(IssueServiceUnavailable, err),
			Assessment: timeline.LowAssessment(IssueServiceUnavailable),
		}
	}

	audioPath := filepath.Join(req.WorkDir, "audio.wav")
	if err := t.audio.ExtractAudio(ctx, req.VideoPath, audioPath, t.format, nil); err != nil {
		t.logger.Warn().Err(err).Str("video", req.VideoPath).Msg("audio extraction failed")
		issues := []string{IssueExtractionFailed}
		if ctx.Err() != nil {
			issues = append(issues, IssueTimedOut)
		}
		return Transcript{
			Outcome:    timeline.Failed(IssueExtractionFailed, timeline.Wrap("stt", "extract audio", timeline.ErrExtraction, err)),
			Assessment: timeline.LowAssessment(issues...),
		}
	}

	duration := req.DurationHint
	if d, err := t.audio.ProbeDuration(ctx, audioPath); err == nil {
		duration = d.Seconds()
	} else {
		t.logger.Warn().Err(err).Float64("fallback", duration).Msg("could not probe audio duration")
	}

	plan := PlanChunks(duration, t.config.ChunkDuration)
	t.logger.Info().
		Float64("duration", duration).
		Int("chunks", len(plan)).
		Str("service", t.service.Name()).
		Msg("transcribing audio")

	type chunkResult struct {
		segments []timeline.SpeechSegment
		text     string
		cached   bool
		err      error
	}
	results := make([]chunkResult, len(plan))

	var g errgroup.Group
	if t.config.Concurrency > 0 {
		g.SetLimit(t.config.Concurrency)
	}
	for i, c := range plan {
		g.Go(func() error {
			resp, cached, err := t.transcribeChunk(ctx, audioPath, req.WorkDir, c, len(plan) > 1)
			if err != nil {
				results[i] = chunkResult{err: err}
				return nil
			}
			results[i] = chunkResult{
				segments: Rebase(resp, c),
				text:     resp.fullText(),
				cached:   cached,
			}
			return nil
		})
	}
	_ = g.Wait()

	var (
		texts    []string
		segments []timeline.SpeechSegment
		statuses = make([]ChunkStatus, len(plan))
		failed   int
		lastErr  error
	)
	for i, r := range results {
		statuses[i] = ChunkStatus{Chunk: plan[i], Segments: len(r.segments), Cached: r.cached}
		if r.err != nil {
			failed++
			lastErr = r.err
			statuses[i].Error = r.err.Error()
			t.logger.Warn().Err(r.err).Int("chunk", plan[i].ID).Msg("chunk transcription failed")
			continue
		}
		if r.text != "" {
			texts = append(texts, r.text)
		}
		segments = append(segments, r.segments...)
	}

	text := strings.Join(texts, " ")
	assessment := AssessQuality(text, segments, duration, th)

	var extra []string
	if failed > 0 {
		extra = append(extra, IssueChunkFailed)
	}
	if failed == len(plan) {
		extra = append(extra, IssueServiceUnavailable)
	}
	if ctx.Err() != nil {
		extra = append(extra, IssueTimedOut)
	}
	assessment = withIssues(assessment, th, extra...)

	outcome := timeline.Ok()
	if failed == len(plan) {
		outcome = timeline.Failed(IssueServiceUnavailable, lastErr)
	}

	t.logger.Info().
		Int("words", int(assessment.Metrics["word_count"])).
		Int("segments", len(segments)).
		Int("failed_chunks", failed).
		Str("quality", string(assessment.Quality)).
		Strs("issues", assessment.Issues).
		Msg("transcription complete")

	return Transcript{
		Outcome:    outcome,
		Text:       text,
		Segments:   segments,
		Chunks:     statuses,
		Duration:   duration,
		Assessment: assessment,
	}
}

// transcribeChunk cuts the chunk (when the audio is split), then calls the service with retries.
func (t *Transcriber) transcribeChunk(ctx context.Context, audioPath, workDir string, c Chunk, split bool) (*Response, bool, error) {
	path := audioPath
	if split {
		path = filepath.Join(workDir, fmt.Sprintf("chunk_%03d.wav", c.ID))
		err := t.audio.ExtractAudioSegment(ctx, audioPath, path, util.Seconds(c.Start), util.Seconds(c.Length()), t.format)
		if err != nil {
			return nil, false, timeline.Wrap("stt", fmt.Sprintf("cut chunk %d", c.ID), timeline.ErrExtraction, err)
		}
	}

	var key string
	if t.cache != nil {
		k, err := cache.FileKey("stt:"+t.service.Name()+":"+t.config.Language, path)
		if err != nil {
			t.logger.Debug().Err(err).Msg("cannot hash chunk, cache bypassed")
		}
		key = k
	}

	var cached Response
	if ok, err := cache.GetJSON(ctx, t.cache, key, &cached); err != nil {
		t.logger.Debug().Err(err).Msg("cache read failed")
	} else if ok {
		t.observe("cached")
		return &cached, true, nil
	}

	var resp *Response
	policy := util.RetryPolicy{Attempts: t.config.MaxAttempts, Backoff: t.config.Backoff, MaxDelay: 10 * time.Second}
	err := util.Retry(ctx, policy, func(ctx context.Context) error {
		r, err := t.service.Transcribe(ctx, path)
		if err != nil {
			t.observe("error")
			return err
		}
		resp = r
		return nil
	}, func(attempt int, err error) {
		t.logger.Debug().Err(err).Int("chunk", c.ID).Int("attempt", attempt).Msg("retrying transcription")
	})
	if err != nil {
		return nil, false, timeline.Wrap("stt", fmt.Sprintf("transcribe chunk %d", c.ID), timeline.ErrServiceInvocation, err)
	}
	t.observe("ok")

	if err := cache.SetJSON(ctx, t.cache, key, resp, t.config.CacheTTL); err != nil {
		t.logger.Debug().Err(err).Msg("cache write failed")
	}
	return resp, false, nil
}

func (t *Transcriber) observe(outcome string) {
	if t.observer != nil {
		t.observer.ServiceCall("stt", outcome)
	}
}
