package align

import (
	"testing"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeScenes() []timeline.Scene {
	return []timeline.Scene{
		{ID: 0, Start: 0, End: 5, Duration: 5},
		{ID: 1, Start: 5, End: 12, Duration: 7},
		{ID: 2, Start: 12, End: 20, Duration: 8},
	}
}

func TestAlign_JoinsByMidpointAndSceneID(t *testing.T) {
	segments := []timeline.SpeechSegment{
		{Start: 0, End: 2, Text: "Xin chào các bạn."},
		{Start: 2, End: 4, Text: " hôm nay "},
		{Start: 4, End: 7, Text: "mình sẽ hướng dẫn."}, // midpoint 5.5 -> scene 1
		{Start: 13, End: 14, Text: "   "},
	}
	items := []timeline.OCRItem{
		{SceneID: 0, Timestamp: 2.5, Text: "Bước 1: Chuẩn bị"},
		{SceneID: 0, Timestamp: 3.5, Text: "Nguyên liệu"},
		{SceneID: 2, Timestamp: 16, Text: "Bước 2: Thực hiện"},
	}

	chunks, warnings := Align(threeScenes(), segments, items)
	assert.Empty(t, warnings)
	require.Len(t, chunks, 3)

	assert.Equal(t, timeline.ContentChunk{
		ChunkID: 0, Start: 0, End: 5,
		STTText: "Xin chào các bạn. hôm nay",
		OCRText: "Bước 1: Chuẩn bị\nNguyên liệu",
		Source:  timeline.SourceBoth, HasSTT: true, HasOCR: true,
	}, chunks[0])

	assert.Equal(t, "mình sẽ hướng dẫn.", chunks[1].STTText)
	assert.Equal(t, timeline.SourceSTT, chunks[1].Source)

	assert.Empty(t, chunks[2].STTText)
	assert.Equal(t, timeline.SourceOCR, chunks[2].Source)
}

func TestAlign_SegmentSpanningBoundaryIsNotSplit(t *testing.T) {
	segments := []timeline.SpeechSegment{{Start: 3, End: 6.5, Text: "crosses the cut"}}

	chunks, _ := Align(threeScenes(), segments, nil)
	assert.Equal(t, "crosses the cut", chunks[0].STTText)
	assert.Empty(t, chunks[1].STTText)
}

func TestAlign_LastSceneIncludesItsEnd(t *testing.T) {
	segments := []timeline.SpeechSegment{{Start: 20, End: 20, Text: "tail"}}

	chunks, warnings := Align(threeScenes(), segments, nil)
	assert.Empty(t, warnings)
	assert.Equal(t, "tail", chunks[2].STTText)
}

func TestAlign_DropsOutOfRangeWithWarning(t *testing.T) {
	segments := []timeline.SpeechSegment{
		{Start: 21, End: 25, Text: "after the end"},
		{Start: 1, End: 2, Text: "kept"},
	}
	items := []timeline.OCRItem{{SceneID: 9, Timestamp: 40, Text: "ghost"}}

	chunks, warnings := Align(threeScenes(), segments, items)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.ErrorIs(t, w, timeline.ErrAlignment)
	}
	assert.Equal(t, "kept", chunks[0].STTText)
	for _, c := range chunks {
		assert.NotContains(t, c.STTText, "after the end")
		assert.NotContains(t, c.OCRText, "ghost")
	}
}

func TestAlign_NoScenes(t *testing.T) {
	chunks, warnings := Align(nil, []timeline.SpeechSegment{{Start: 0, End: 1, Text: "x"}}, nil)
	assert.Nil(t, chunks)
	assert.Nil(t, warnings)
}

func TestAlign_SourceMatchesFlags(t *testing.T) {
	segments := []timeline.SpeechSegment{{Start: 0, End: 1, Text: "a"}, {Start: 6, End: 7, Text: "b"}}
	items := []timeline.OCRItem{{SceneID: 1, Text: "c"}, {SceneID: 2, Text: "d"}}

	chunks, _ := Align(threeScenes(), segments, items)
	for _, c := range chunks {
		assert.Equal(t, c.Source == timeline.SourceBoth, c.HasSTT && c.HasOCR, "chunk %d", c.ChunkID)
		assert.Equal(t, c.Source == timeline.SourceNone, !c.HasSTT && !c.HasOCR, "chunk %d", c.ChunkID)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, timeline.SourceBoth, Classify(true, true))
	assert.Equal(t, timeline.SourceSTT, Classify(true, false))
	assert.Equal(t, timeline.SourceOCR, Classify(false, true))
	assert.Equal(t, timeline.SourceNone, Classify(false, false))
}

func TestComputeStats(t *testing.T) {
	chunks := []timeline.ContentChunk{
		{ChunkID: 0, Start: 0, End: 5, Source: timeline.SourceBoth, HasSTT: true, HasOCR: true},
		{ChunkID: 1, Start: 5, End: 12, Source: timeline.SourceSTT, HasSTT: true},
		{ChunkID: 2, Start: 12, End: 20, Source: timeline.SourceOCR, HasOCR: true},
		{ChunkID: 3, Start: 20, End: 25, Source: timeline.SourceNone},
	}

	s := ComputeStats(chunks)
	assert.Equal(t, Stats{
		TotalChunks:    4,
		ChunksWithSTT:  2,
		ChunksWithOCR:  2,
		ChunksWithBoth: 1,
		EmptyChunks:    1,
		TotalDuration:  25,
		STTCoverage:    0.48,
		OCRCoverage:    0.52,
	}, s)

	assert.Equal(t, Stats{}, ComputeStats(nil))
}
