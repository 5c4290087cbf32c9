package stt

import (
	"strings"
	"unicode/utf8"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
)

// Issue codes reported in the transcript assessment.
const (
	IssueNoAudio            = "no_audio"
	IssueSilentAudio        = "silent_audio"
	IssueExtractionFailed   = "audio_extraction_failed"
	IssueVeryFewWords       = "very_few_words"
	IssueFewWords           = "few_words"
	IssueMostlySilence      = "mostly_silence"
	IssueHighSilence        = "high_silence"
	IssueHighRepetition     = "high_repetition"
	IssueFastOrNoise        = "possibly_fast_or_noise"
	IssueFragmentedWords    = "fragmented_words"
	IssueChunkFailed        = "chunk_failed"
	IssueServiceUnavailable = "service_unavailable"
	IssueTimedOut           = "timed_out"
)

// advisory issues are reported but do not count toward MaxIssues. Speech rate rises with
// word count, so counting it would let more words turn a good transcript low.
var advisory = map[string]bool{
	IssueFastOrNoise: true,
}

// AssessQuality scores a transcript from surface statistics only.
// duration is the audio length in seconds.
func AssessQuality(text string, segments []timeline.SpeechSegment, duration float64, th QualityThresholds) timeline.Assessment {
	words := strings.Fields(text)
	wordCount := len(words)
	charCount := utf8.RuneCountInString(text)

	wps := float64(wordCount) / maxf(duration, 1)

	var spoken float64
	for _, seg := range segments {
		if seg.End > seg.Start {
			spoken += seg.End - seg.Start
		}
	}

	var silence float64
	switch {
	case wordCount == 0:
		silence = 1.0
	case len(segments) > 0 && duration > 0:
		silence = clamp01(1 - spoken/duration)
	}

	// Repetition is measured from the same word count that lifts the very_few_words
	// floor, so one more word can never be what exposes it.
	var repetition float64
	if wordCount >= th.MinWords {
		unique := make(map[string]struct{}, wordCount)
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
		}
		repetition = 1 - float64(len(unique))/float64(wordCount)
	}

	var letters int
	for _, w := range words {
		letters += utf8.RuneCountInString(w)
	}
	avgWordLen := float64(letters) / maxf(float64(wordCount), 1)

	var issues []string
	switch {
	case wordCount < th.MinWords:
		issues = append(issues, IssueVeryFewWords)
	case wordCount < th.FewWords:
		issues = append(issues, IssueFewWords)
	}
	switch {
	case silence > th.MaxSilenceRatio:
		issues = append(issues, IssueMostlySilence)
	case silence > th.HighSilenceRatio:
		issues = append(issues, IssueHighSilence)
	}
	if repetition > th.HighRepetitionRatio {
		issues = append(issues, IssueHighRepetition)
	}
	if wps > th.MaxWordsPerSecond {
		issues = append(issues, IssueFastOrNoise)
	}
	if wordCount > 0 && avgWordLen < th.MinAvgWordLength {
		issues = append(issues, IssueFragmentedWords)
	}

	a := timeline.Assessment{
		Metrics: map[string]float64{
			"word_count":       float64(wordCount),
			"char_count":       float64(charCount),
			"duration":         util.Round(duration, 3),
			"words_per_second": util.Round(wps, 3),
			"silence_ratio":    util.Round(silence, 3),
			"repetition_ratio": util.Round(repetition, 3),
			"avg_word_length":  util.Round(avgWordLen, 3),
			"segment_count":    float64(len(segments)),
		},
		Issues: issues,
	}
	a.Quality = decide(a, th)
	return a
}

// withIssues appends process issues to an assessment and re-applies the decision.
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
	blocking := 0
	for _, issue := range a.Issues {
		if !advisory[issue] {
			blocking++
		}
	}
	if a.Metrics["word_count"] < float64(th.MinWords) ||
		a.Metrics["silence_ratio"] > th.MaxSilenceRatio ||
		blocking >= th.MaxIssues {
		return timeline.QualityLow
	}
	return timeline.QualityGood
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
