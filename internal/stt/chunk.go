package stt

import (
	"math"
	"strings"

	"github.com/keagan/reelsense/internal/timeline"
)

// Chunk is one span of the extracted audio sent to the service, in absolute seconds.
type Chunk struct {
	ID    int     `json:"chunk_id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns the chunk length in seconds.
func (c Chunk) Length() float64 {
	return c.End - c.Start
}

// chunkEpsilon absorbs probe rounding so 240.0004s does not produce a sliver chunk.
const chunkEpsilon = 1e-3

// PlanChunks splits [0, duration] into sequential chunks no longer than chunkLen.
// An unknown duration (<= 0) yields a single open chunk covering the whole file.
func PlanChunks(duration, chunkLen float64) []Chunk {
	if duration <= 0 {
		return []Chunk{{ID: 0, Start: 0, End: 0}}
	}
	if chunkLen <= 0 || duration <= chunkLen+chunkEpsilon {
		return []Chunk{{ID: 0, Start: 0, End: duration}}
	}

	n := int(math.Ceil((duration - chunkEpsilon) / chunkLen))
	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * chunkLen
		end := math.Min(start+chunkLen, duration)
		if end-start <= 0 {
			break
		}
		chunks = append(chunks, Chunk{ID: i, Start: start, End: end})
	}
	chunks[len(chunks)-1].End = duration
	return chunks
}

// Rebase converts a per-chunk response into absolute-time speech segments.
// Segments are clamped into the chunk so consecutive chunks never overlap.
// A response without segments becomes one segment spanning the chunk.
func Rebase(resp *Response, c Chunk) []timeline.SpeechSegment {
	if resp == nil {
		return nil
	}

	end := c.End
	bounded := end > c.Start

	var out []timeline.SpeechSegment
	for _, seg := range resp.Segments {
		text := normalizeText(seg.Text)
		if text == "" {
			continue
		}
		s := c.Start + math.Max(seg.Start, 0)
		e := c.Start + math.Max(seg.End, seg.Start)
		if bounded {
			s = math.Min(s, end)
			e = math.Min(e, end)
		}
		if len(out) > 0 && s < out[len(out)-1].Start {
			s = out[len(out)-1].Start
		}
		out = append(out, timeline.SpeechSegment{
			Start:   s,
			End:     math.Max(e, s),
			Text:    text,
			ChunkID: c.ID,
		})
	}
	if len(out) > 0 {
		return out
	}

	text := resp.fullText()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []timeline.SpeechSegment{{Start: c.Start, End: end, Text: text, ChunkID: c.ID}}
}
