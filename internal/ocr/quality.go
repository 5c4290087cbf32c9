package ocr

import (
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
)

// Issue codes reported in the OCR assessment.
const (
	IssueNotAvailable      = "ocr_not_available"
	IssueNoFrames          = "no_frames_extracted"
	IssueAlmostNoText      = "almost_no_text"
	IssueVeryLittleText    = "very_little_text"
	IssueFewReadableFrames = "few_readable_frames"
	IssueHighNoise         = "high_noise"
	IssueLowTextDensity    = "low_text_density"
	IssueFrameFailed       = "frame_failed"
	IssueProcessingError   = "processing_error"
	IssueTimedOut          = "timed_out"
)

// FrameTally is what quality scoring needs to know about one sampled frame.
type FrameTally struct {
	RawLines   int
	CleanLines int
	Chars      int
}

// AssessQuality scores OCR output over all sampled frames, including frames that
// produced nothing.
func AssessQuality(frames []FrameTally, th QualityThresholds) timeline.Assessment {
	var chars, lines, raw, readable int
	for _, f := range frames {
		chars += f.Chars
		lines += f.CleanLines
		raw += f.RawLines
		if f.Chars > th.ReadableFrameChars && f.CleanLines > 0 {
			readable++
		}
	}

	total := len(frames)
	readableRatio := float64(readable) / float64(max(total, 1))
	avgChars := float64(chars) / float64(max(total, 1))
	var noiseRatio float64
	if raw > 0 {
		noiseRatio = float64(raw-lines) / float64(raw)
	}

	var issues []string
	switch {
	case chars < th.MinChars:
		issues = append(issues, IssueAlmostNoText)
	case chars < th.LowChars:
		issues = append(issues, IssueVeryLittleText)
	}
	if readableRatio < th.MinReadableRatio {
		issues = append(issues, IssueFewReadableFrames)
	}
	if noiseRatio > th.HighNoiseRatio {
		issues = append(issues, IssueHighNoise)
	}
	if avgChars < th.MinAvgCharsPerFrame {
		issues = append(issues, IssueLowTextDensity)
	}

	a := timeline.Assessment{
		Metrics: map[string]float64{
			"total_chars":         float64(chars),
			"total_lines":         float64(lines),
			"raw_lines":           float64(raw),
			"total_frames":        float64(total),
			"readable_frames":     float64(readable),
			"readable_ratio":      util.Round(readableRatio, 3),
			"avg_chars_per_frame": util.Round(avgChars, 3),
			"noise_ratio":         util.Round(noiseRatio, 3),
		},
		Issues: issues,
	}
	a.Quality = decide(a, th)
	return a
}

func withIssues(a timeline.Assessment, th QualityThresholds, issues ...string) timeline.Assessment {
	if len(issues) == 0 {
		return a
	}
	out := timeline.Assessment{
		Metrics: a.Metrics,
		Issues:  append(append([]string(nil), a.Issues...), issues...),
	}
	out.Quality = decide(out, th)
	return out
}

func decide(a timeline.Assessment, th QualityThresholds) timeline.Quality {
	if a.Metrics["total_chars"] < float64(th.MinChars) ||
		a.Metrics["readable_ratio"] < th.MinReadableRatio ||
		len(a.Issues) >= th.MaxIssues {
		return timeline.QualityLow
	}
	return timeline.QualityGood
}
