package ocr

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// noisePatterns match lines that carry no content: handles, hashtags, platform
// watermarks, bare timestamps, view counts and date fragments.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`@[\p{L}\p{N}_.]+`),
	regexp.MustCompile(`#[\p{L}\p{N}_]+`),
	regexp.MustCompile(`(?i)tiktok|douyin|capcut`),
	regexp.MustCompile(`[♬♪♫🎵🎶]`),
	regexp.MustCompile(`(?i)original\s+sound|âm\s+thanh\s+gốc`),
	regexp.MustCompile(`^\d+:\d+$`),
	regexp.MustCompile(`(?i)^\d+(?:[.,]\d+)?[km]$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}$`),
}

// IsNoise reports whether a recognized line matches the noise vocabulary.
func IsNoise(line string) bool {
	for _, re := range noisePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// normalizeLine composes diacritics and collapses inner whitespace.
func normalizeLine(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Deduper remembers lines case-insensitively across frames.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper returns an empty deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Add records line and reports whether it was new.
func (d *Deduper) Add(line string) bool {
	key := strings.ToLower(line)
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// FilterLines keeps lines of at least two characters that are not noise and not yet
// seen by dedup, preserving order. It returns the kept lines and how many were dropped.
func FilterLines(raw []string, dedup *Deduper) ([]string, int) {
	var kept []string
	dropped := 0
	for _, line := range raw {
		line = normalizeLine(line)
		if utf8.RuneCountInString(line) < 2 || IsNoise(line) || !dedup.Add(line) {
			dropped++
			continue
		}
		kept = append(kept, line)
	}
	return kept, dropped
}
