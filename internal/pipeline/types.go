package pipeline

import (
	"context"
	"time"

	"github.com/keagan/reelsense/internal/align"
	"github.com/keagan/reelsense/internal/cache"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/metrics"
	"github.com/keagan/reelsense/internal/ocr"
	"github.com/keagan/reelsense/internal/reasoning"
	"github.com/keagan/reelsense/internal/scene"
	"github.com/keagan/reelsense/internal/stt"
	"github.com/keagan/reelsense/internal/timeline"
)

// Media is everything the pipeline needs from the media backend. *ffmpeg.Executor
// implements it.
type Media interface {
	scene.Detector
	stt.AudioSource
	ocr.FrameSource
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	AnalyzeVolume(ctx context.Context, path string) (*ffmpeg.VolumeStats, error)
}

// Dependencies are the external capabilities a Pipeline is built from. STT and
// OCR may be nil; the corresponding stage then reports itself unavailable.
type Dependencies struct {
	Media   Media
	STT     stt.Service
	OCR     ocr.Engine
	Cache   cache.Cache
	Metrics *metrics.Recorder
}

// AnalyzeOptions carries hints from an upstream validator. Hints win over probed
// values.
type AnalyzeOptions struct {
	HasAudio *bool
	Duration float64
}

// VideoSummary is the probed metadata kept in the result.
type VideoSummary struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	VideoCodec string  `json:"codec"`
	HasAudio   bool    `json:"has_audio"`
	Bitrate    int64   `json:"bitrate"`
	Format     string  `json:"format,omitempty"`
}

// Fusion is the output of the alignment, comparison, cleaning and gating stages.
type Fusion struct {
	Sources        reasoning.SourceStatus `json:"source_status"`
	Richness       reasoning.Richness     `json:"content_richness"`
	Stats          align.Stats            `json:"timeline_stats"`
	Chunks         []timeline.FinalChunk  `json:"chunks"`
	NormalizedText string                 `json:"normalized_text"`
	Readiness      reasoning.Report       `json:"reasoning"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// Result is the consolidated output of one Analyze run.
type Result struct {
	RunID      string           `json:"run_id"`
	VideoPath  string           `json:"video_path"`
	Video      VideoSummary     `json:"video"`
	Validation Validation       `json:"validation"`
	Scenes     []timeline.Scene `json:"scenes"`
	Transcript stt.Transcript   `json:"stt"`
	OCR        ocr.Extraction   `json:"ocr"`
	Fusion

	TimedOut  bool             `json:"timed_out"`
	Timings   map[string]int64 `json:"timings_ms"`
	StartedAt time.Time        `json:"started_at"`
}

// Verdict returns the readiness verdict of the run.
func (r *Result) Verdict() timeline.Verdict {
	return r.Readiness.Verdict
}
