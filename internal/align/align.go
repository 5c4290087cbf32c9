// Package align joins speech segments and on-screen text onto the scene timeline,
// producing one content chunk per scene.
package align

import (
	"fmt"
	"strings"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
)

// Align builds one chunk per scene. A segment belongs to the first scene containing
// its midpoint; the last scene also accepts a midpoint equal to its end. OCR items
// are joined by scene id. Segments and items that fit no scene are dropped and
// reported as ErrAlignment warnings.
func Align(scenes []timeline.Scene, segments []timeline.SpeechSegment, items []timeline.OCRItem) ([]timeline.ContentChunk, []error) {
	if len(scenes) == 0 {
		return nil, nil
	}

	var warnings []error
	speech := make([][]string, len(scenes))
	screen := make([][]string, len(scenes))

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		idx := sceneAt(scenes, seg.Midpoint())
		if idx < 0 {
			warnings = append(warnings, timeline.Wrap("align", "speech segment", timeline.ErrAlignment,
				fmt.Errorf("segment %.2f-%.2fs is outside every scene", seg.Start, seg.End)))
			continue
		}
		speech[idx] = append(speech[idx], text)
	}

	byID := make(map[int]int, len(scenes))
	for i, sc := range scenes {
		byID[sc.ID] = i
	}
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		idx, ok := byID[item.SceneID]
		if !ok {
			warnings = append(warnings, timeline.Wrap("align", "ocr item", timeline.ErrAlignment,
				fmt.Errorf("item at %.2fs references unknown scene %d", item.Timestamp, item.SceneID)))
			continue
		}
		screen[idx] = append(screen[idx], text)
	}

	chunks := make([]timeline.ContentChunk, len(scenes))
	for i, sc := range scenes {
		stt := strings.Join(speech[i], " ")
		ocr := strings.Join(screen[i], "\n")
		chunks[i] = timeline.ContentChunk{
			ChunkID: sc.ID,
			Start:   sc.Start,
			End:     sc.End,
			STTText: stt,
			OCRText: ocr,
			Source:  Classify(stt != "", ocr != ""),
			HasSTT:  stt != "",
			HasOCR:  ocr != "",
		}
	}
	return chunks, warnings
}

// Classify names the source of a chunk from which sides carry text.
func Classify(hasSTT, hasOCR bool) timeline.Source {
	switch {
	case hasSTT && hasOCR:
		return timeline.SourceBoth
	case hasSTT:
		return timeline.SourceSTT
	case hasOCR:
		return timeline.SourceOCR
	default:
		return timeline.SourceNone
	}
}

func sceneAt(scenes []timeline.Scene, t float64) int {
	for i, sc := range scenes {
		if sc.Contains(t) {
			return i
		}
	}
	if last := scenes[len(scenes)-1]; t == last.End {
		return len(scenes) - 1
	}
	return -1
}

// Stats summarizes how both sources cover the timeline.
type Stats struct {
	TotalChunks    int     `json:"total_chunks"`
	ChunksWithSTT  int     `json:"chunks_with_stt"`
	ChunksWithOCR  int     `json:"chunks_with_ocr"`
	ChunksWithBoth int     `json:"chunks_with_both"`
	EmptyChunks    int     `json:"chunks_empty"`
	TotalDuration  float64 `json:"total_duration"`
	STTCoverage    float64 `json:"stt_coverage"`
	OCRCoverage    float64 `json:"ocr_coverage"`
}

// ComputeStats counts chunks per source and the share of duration each source covers.
func ComputeStats(chunks []timeline.ContentChunk) Stats {
	var s Stats
	var sttDur, ocrDur float64
	for _, c := range chunks {
		s.TotalChunks++
		s.TotalDuration += c.Duration()
		if c.HasSTT {
			s.ChunksWithSTT++
			sttDur += c.Duration()
		}
		if c.HasOCR {
			s.ChunksWithOCR++
			ocrDur += c.Duration()
		}
		switch c.Source {
		case timeline.SourceBoth:
			s.ChunksWithBoth++
		case timeline.SourceNone:
			s.EmptyChunks++
		}
	}
	if s.TotalDuration > 0 {
		s.STTCoverage = util.Round(sttDur/s.TotalDuration, 2)
		s.OCRCoverage = util.Round(ocrDur/s.TotalDuration, 2)
	}
	s.TotalDuration = util.Round(s.TotalDuration, 3)
	return s
}
