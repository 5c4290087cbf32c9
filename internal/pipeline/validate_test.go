package pipeline

import (
	"testing"
	"time"

	"github.com/keagan/reelsense/internal/config"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cfg := config.Default().Validation
	good := VideoSummary{Duration: 30, Width: 1080, Height: 1920, VideoCodec: "h264", HasAudio: true}

	tests := []struct {
		name       string
		mutate     func(v *VideoSummary)
		silent     bool
		confidence timeline.Confidence
		warnings   []string
	}{
		{"clean", func(v *VideoSummary) {}, false, timeline.ConfidenceHigh, []string{}},
		{"too short", func(v *VideoSummary) { v.Duration = 2 }, false, timeline.ConfidenceLow, []string{WarnTooShort}},
		{"too long", func(v *VideoSummary) { v.Duration = 900 }, false, timeline.ConfidenceMedium, []string{WarnTooLong}},
		{"no audio", func(v *VideoSummary) { v.HasAudio = false }, false, timeline.ConfidenceMedium, []string{WarnNoAudio}},
		{"silent", func(v *VideoSummary) {}, true, timeline.ConfidenceMedium, []string{WarnSilentAudio}},
		{"unusual codec", func(v *VideoSummary) { v.VideoCodec = "prores" }, false, timeline.ConfidenceMedium, []string{WarnUnusualCodec}},
		{"unknown codec passes", func(v *VideoSummary) { v.VideoCodec = "unknown" }, false, timeline.ConfidenceHigh, []string{}},
		{"codec case", func(v *VideoSummary) { v.VideoCodec = "HEVC" }, false, timeline.ConfidenceHigh, []string{}},
		{"no resolution", func(v *VideoSummary) { v.Width = 0 }, false, timeline.ConfidenceLow, []string{WarnInvalidResolution}},
		{
			"long without audio",
			func(v *VideoSummary) { v.Duration = 700; v.HasAudio = false },
			false, timeline.ConfidenceMedium, []string{WarnTooLong, WarnNoAudio},
		},
		{
			"short without resolution",
			func(v *VideoSummary) { v.Duration = 1; v.Height = 0 },
			false, timeline.ConfidenceLow, []string{WarnTooShort, WarnInvalidResolution},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := good
			tt.mutate(&v)
			got := Validate(v, tt.silent, cfg)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.warnings, got.Warnings)
			assert.Equal(t, tt.name == "unusual codec", got.Normalize)
		})
	}
}

func TestSummarizeAppliesHints(t *testing.T) {
	info := &ffmpeg.VideoInfo{Duration: 12340 * time.Millisecond, Width: 720, Height: 1280, VideoCodec: "h264", HasAudio: true}

	v := Summarize(info, AnalyzeOptions{})
	assert.Equal(t, 12.34, v.Duration)
	assert.True(t, v.HasAudio)

	no := false
	v = Summarize(info, AnalyzeOptions{HasAudio: &no, Duration: 15})
	assert.Equal(t, 15.0, v.Duration)
	assert.False(t, v.HasAudio)
}
