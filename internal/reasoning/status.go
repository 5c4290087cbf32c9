package reasoning

import "github.com/keagan/reelsense/internal/timeline"

// DataStatus grades the evidence available for a video as a whole.
type DataStatus string

const (
	DataValid DataStatus = "valid"
	DataWeak  DataStatus = "weak"
)

// SourceStatus summarizes which sources are usable before fusion.
type SourceStatus struct {
	DataStatus     DataStatus       `json:"data_status"`
	STTQuality     timeline.Quality `json:"stt_quality"`
	OCRQuality     timeline.Quality `json:"ocr_quality"`
	UsableSources  []string         `json:"usable_sources"`
	PrimarySource  timeline.Source  `json:"primary_source"`
	Recommendation string           `json:"recommendation"`
}

// AssessSources derives the global data status from the two quality grades. Data is
// weak only when both sources are low.
func AssessSources(stt, ocr timeline.Quality) SourceStatus {
	s := SourceStatus{DataStatus: DataValid, STTQuality: stt, OCRQuality: ocr}
	if stt == timeline.QualityGood {
		s.UsableSources = append(s.UsableSources, "stt")
	}
	if ocr == timeline.QualityGood {
		s.UsableSources = append(s.UsableSources, "ocr")
	}

	switch {
	case stt == timeline.QualityGood && ocr == timeline.QualityGood:
		s.PrimarySource = timeline.SourceBoth
		s.Recommendation = "full multimodal analysis with speech and on-screen text"
	case stt == timeline.QualityGood:
		s.PrimarySource = timeline.SourceSTT
		s.Recommendation = "focus on speech, supplement with on-screen text where available"
	case ocr == timeline.QualityGood:
		s.PrimarySource = timeline.SourceOCR
		s.Recommendation = "focus on on-screen text, supplement with speech where available"
	default:
		s.PrimarySource = timeline.SourceNone
		s.UsableSources = []string{"metadata_only"}
		s.Recommendation = "metadata-only analysis"
	}

	if stt == timeline.QualityLow && ocr == timeline.QualityLow {
		s.DataStatus = DataWeak
		s.Recommendation = "limited analysis: use metadata, scene structure and any available text"
	}
	return s
}

// Richness is a 0-100 estimate of how much raw content a video carries.
type Richness struct {
	Score    int                 `json:"score"`
	Level    timeline.Confidence `json:"level"`
	STTWords int                 `json:"stt_word_count"`
	OCRChars int                 `json:"ocr_char_count"`
}

// ScoreRichness awards up to 50 points for transcript words and 50 for on-screen
// characters.
func ScoreRichness(sttWords, ocrChars int, cfg RichnessConfig) Richness {
	score := tierPoints(sttWords, cfg.WordTiers) + tierPoints(ocrChars, cfg.CharTiers)
	level := timeline.ConfidenceLow
	switch {
	case score >= cfg.High:
		level = timeline.ConfidenceHigh
	case score >= cfg.Medium:
		level = timeline.ConfidenceMedium
	}
	return Richness{Score: score, Level: level, STTWords: sttWords, OCRChars: ocrChars}
}

func tierPoints(n int, tiers []Tier) int {
	for _, t := range tiers {
		if n > t.Above {
			return t.Points
		}
	}
	return 0
}
