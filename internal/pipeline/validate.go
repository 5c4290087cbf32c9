package pipeline

import (
	"strings"

	"github.com/keagan/reelsense/internal/config"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
)

// Validation warnings.
const (
	WarnTooShort          = "video_too_short"
	WarnTooLong           = "video_too_long"
	WarnNoAudio           = "no_audio"
	WarnUnusualCodec      = "unusual_codec"
	WarnInvalidResolution = "invalid_resolution"
	WarnSilentAudio       = "silent_audio"
)

// Validation is the ingest check of a probed video. Warnings never stop the run;
// they lower Confidence.
type Validation struct {
	Confidence timeline.Confidence `json:"confidence"`
	Warnings   []string            `json:"warnings"`
	// Normalize is set when the codec is unusual enough that re-encoding may help.
	Normalize bool `json:"needs_normalize"`
}

// Summarize applies upstream hints over the probed metadata.
func Summarize(info *ffmpeg.VideoInfo, opts AnalyzeOptions) VideoSummary {
	v := VideoSummary{
		Duration:   util.Round(info.Duration.Seconds(), 2),
		Width:      info.Width,
		Height:     info.Height,
		FPS:        info.FPS,
		VideoCodec: info.VideoCodec,
		HasAudio:   info.HasAudio,
		Bitrate:    info.Bitrate,
		Format:     info.FormatName,
	}
	if opts.Duration > 0 {
		v.Duration = opts.Duration
	}
	if opts.HasAudio != nil {
		v.HasAudio = *opts.HasAudio
	}
	return v
}

// Validate grades a video. silent is the result of the optional loudness check.
func Validate(v VideoSummary, silent bool, cfg config.ValidationConfig) Validation {
	res := Validation{Confidence: timeline.ConfidenceHigh, Warnings: []string{}}
	lower := func() {
		if res.Confidence == timeline.ConfidenceHigh {
			res.Confidence = timeline.ConfidenceMedium
		}
	}

	if v.Duration < cfg.MinDuration {
		res.Confidence = timeline.ConfidenceLow
		res.Warnings = append(res.Warnings, WarnTooShort)
	}
	if cfg.MaxDuration > 0 && v.Duration > cfg.MaxDuration {
		lower()
		res.Warnings = append(res.Warnings, WarnTooLong)
	}

	switch {
	case !v.HasAudio:
		lower()
		res.Warnings = append(res.Warnings, WarnNoAudio)
	case silent:
		lower()
		res.Warnings = append(res.Warnings, WarnSilentAudio)
	}

	codec := strings.ToLower(v.VideoCodec)
	if codec != "" && codec != "unknown" && !knownCodec(codec, cfg.Codecs) {
		lower()
		res.Warnings = append(res.Warnings, WarnUnusualCodec)
		res.Normalize = true
	}

	if v.Width == 0 || v.Height == 0 {
		res.Confidence = timeline.ConfidenceLow
		res.Warnings = append(res.Warnings, WarnInvalidResolution)
	}

	return res
}

func knownCodec(codec string, codecs []string) bool {
	for _, c := range codecs {
		if strings.EqualFold(codec, c) {
			return true
		}
	}
	return false
}

// HasWarning reports whether code was raised.
func (v Validation) HasWarning(code string) bool {
	for _, w := range v.Warnings {
		if w == code {
			return true
		}
	}
	return false
}
