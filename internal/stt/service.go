package stt

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Segment is a time-stamped piece of a service response, relative to the submitted audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Response is what a speech-to-text service returns for one audio file.
type Response struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Language string    `json:"language,omitempty"`
}

// Service transcribes one audio file.
type Service interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (*Response, error)
}

// normalizeText composes decomposed diacritics and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// fullText prefers the response text and falls back to the joined segments.
func (r *Response) fullText() string {
	if text := normalizeText(r.Text); text != "" {
		return text
	}
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if text := normalizeText(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
