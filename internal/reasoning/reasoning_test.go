package reasoning

import (
	"testing"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func final(text string, conf timeline.Confidence) timeline.FinalChunk {
	return timeline.FinalChunk{FinalText: text, Priority: timeline.Priority{ContentConfidence: conf}}
}

func newTestGate() *Gate {
	return NewGate(zerolog.Nop(), DefaultConfig())
}

func TestEvaluate_ReadyContent(t *testing.T) {
	chunks := []timeline.FinalChunk{
		final("Hôm nay mình sẽ hướng dẫn các bạn làm bánh.", timeline.ConfidenceHigh),
		final("Bước 1 là chuẩn bị nguyên liệu gồm bột và trứng.", timeline.ConfidenceHigh),
		final("Bước 2 là trộn đều và nướng trong 30 phút.", timeline.ConfidenceMedium),
	}

	r := newTestGate().Evaluate(chunks, AssessSources(timeline.QualityGood, timeline.QualityGood))

	assert.True(t, r.ReasoningReady)
	assert.Equal(t, timeline.ConfidenceHigh, r.ContentQuality)
	assert.Empty(t, r.Issues)
	assert.Equal(t, []string{ActionProceed}, r.RecommendedActions)
	assert.Equal(t, 31, r.Completeness.WordCount)
	assert.Equal(t, "clear", r.Potential.TopicClarity)
	assert.Equal(t, "rich", r.Potential.ContextLevel)
	assert.True(t, r.Coherence.HasStructure)
}

func TestEvaluate_BothSourcesLow(t *testing.T) {
	chunks := []timeline.FinalChunk{
		final("Hi", timeline.ConfidenceLow),
		final("", timeline.ConfidenceLow),
	}
	status := AssessSources(timeline.QualityLow, timeline.QualityLow)

	r := newTestGate().Evaluate(chunks, status)

	assert.False(t, r.ReasoningReady)
	assert.Equal(t, timeline.ConfidenceLow, r.ContentQuality)
	assert.Contains(t, r.Reason, "insufficient content")
	assert.Contains(t, r.Reason, "weak source data")
	assert.ElementsMatch(t, []string{
		IssueTooFewWords, IssueNoChunksWithContent, IssueLowContentDensity,
		IssueMostlyLowConfidence, IssueNoClearStructure,
		IssueTopicUnclear, IssueNoContext,
	}, r.Issues)
	assert.Equal(t, []string{ActionKeepAsIs, ActionMetadataOnly, ActionLimitInference}, r.RecommendedActions)
}

func TestEvaluate_CoherenceIsAdvisory(t *testing.T) {
	chunks := []timeline.FinalChunk{
		final("Đây là một video dài nói về cách làm bánh mì tại nhà với những nguyên liệu đơn giản dễ tìm mua ở chợ", timeline.ConfidenceLow),
	}

	r := newTestGate().Evaluate(chunks, AssessSources(timeline.QualityLow, timeline.QualityGood))

	assert.True(t, r.ReasoningReady)
	assert.Equal(t, []string{IssueMostlyLowConfidence, IssueNoClearStructure}, r.Issues)
	assert.Equal(t, timeline.ConfidenceMedium, r.ContentQuality)
	assert.Equal(t, []string{ActionProceed}, r.RecommendedActions)
}

func TestEvaluate_VagueTopicIsNotReady(t *testing.T) {
	chunks := []timeline.FinalChunk{
		final("Một video về nấu ăn đơn giản.", timeline.ConfidenceMedium),
		final("", timeline.ConfidenceLow),
	}

	r := newTestGate().Evaluate(chunks, AssessSources(timeline.QualityGood, timeline.QualityLow))

	assert.False(t, r.ReasoningReady)
	assert.Empty(t, r.Issues)
	assert.Equal(t, timeline.ConfidenceHigh, r.ContentQuality)
	assert.Equal(t, "vague", r.Potential.TopicClarity)
	assert.Equal(t, "insufficient context for reasoning", r.Reason)
	assert.Equal(t, []string{ActionShallow}, r.RecommendedActions)
}

func TestEvaluate_NoChunks(t *testing.T) {
	r := newTestGate().Evaluate(nil, AssessSources(timeline.QualityLow, timeline.QualityLow))

	assert.False(t, r.ReasoningReady)
	assert.Equal(t, timeline.ConfidenceLow, r.ContentQuality)
	assert.Equal(t, []string{IssueNoChunks, IssueNoChunks, IssueNoContent}, r.Issues)
	assert.Contains(t, r.Reason, "insufficient content")
}

func TestCompleteness(t *testing.T) {
	g := newTestGate()
	c := g.Completeness([]timeline.FinalChunk{
		final("one two three", ""),
		final("", ""),
		final("", ""),
		final("", ""),
	})
	assert.False(t, c.IsComplete)
	assert.Equal(t, []string{IssueTooFewWords, IssueLowContentDensity}, c.Issues)
	assert.Equal(t, 0.25, c.ContentDensity)
	assert.Equal(t, 1, c.ChunksWithContent)
}

func TestPotential_Levels(t *testing.T) {
	g := newTestGate()
	tests := []struct {
		texts   []string
		topic   string
		context string
		can     bool
	}{
		{[]string{"a b c d e f g h i j"}, "partial", "minimal", true},
		{[]string{"a b c d e", "f g h i j"}, "partial", "adequate", true},
		{[]string{"a b c d", "e f g h"}, "vague", "none", false},
		{[]string{"a b"}, "none", "none", false},
	}
	for _, tt := range tests {
		var chunks []timeline.FinalChunk
		for _, text := range tt.texts {
			chunks = append(chunks, final(text, timeline.ConfidenceMedium))
		}
		p := g.Potential(chunks)
		assert.Equal(t, tt.topic, p.TopicClarity, "%v", tt.texts)
		assert.Equal(t, tt.context, p.ContextLevel, "%v", tt.texts)
		assert.Equal(t, tt.can, p.CanReason, "%v", tt.texts)
	}
}

func TestAssessSources(t *testing.T) {
	s := AssessSources(timeline.QualityGood, timeline.QualityGood)
	assert.Equal(t, DataValid, s.DataStatus)
	assert.Equal(t, []string{"stt", "ocr"}, s.UsableSources)
	assert.Equal(t, timeline.SourceBoth, s.PrimarySource)

	s = AssessSources(timeline.QualityLow, timeline.QualityGood)
	assert.Equal(t, DataValid, s.DataStatus)
	assert.Equal(t, timeline.SourceOCR, s.PrimarySource)

	s = AssessSources(timeline.QualityLow, timeline.QualityLow)
	assert.Equal(t, DataWeak, s.DataStatus)
	assert.Equal(t, []string{"metadata_only"}, s.UsableSources)
	assert.Equal(t, timeline.SourceNone, s.PrimarySource)
}

func TestScoreRichness(t *testing.T) {
	cfg := DefaultConfig().Richness

	r := ScoreRichness(120, 250, cfg)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, timeline.ConfidenceHigh, r.Level)

	r = ScoreRichness(30, 15, cfg)
	assert.Equal(t, 40, r.Score)
	assert.Equal(t, timeline.ConfidenceMedium, r.Level)

	r = ScoreRichness(5, 10, cfg)
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, timeline.ConfidenceLow, r.Level)
}
