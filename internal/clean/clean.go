// Package clean strips filler, social noise and watermarks from recognized text and
// applies mechanical sentence fixes. It never rewrites or paraphrases.
package clean

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/keagan/reelsense/internal/timeline"
)

const wordEdge = `[^\p{L}\p{N}_]`

var (
	inlineSpace     = regexp.MustCompile(`[^\S\n]+`)
	anySpace        = regexp.MustCompile(`\s+`)
	orphanSeparator = regexp.MustCompile(`(?m)^[,;:|\-–]+[^\S\n]*`)
	repeatedComma   = regexp.MustCompile(`([,;])(?:\s*[,;])+`)
	spaceBefore     = regexp.MustCompile(`\s+([.,!?:;])`)
	sentenceStart   = regexp.MustCompile(`(^|[.!?]\s+)(\p{Ll})`)
	sentenceEnd     = regexp.MustCompile(`[.!?:。]$`)
)

// Cleaner applies the cleaning stages in a fixed order: watermarks, noise lines,
// fillers, meaningless lines; then sentence merging and mechanical fixes.
type Cleaner struct {
	config      Config
	fillers     []*regexp.Regexp
	noise       []*regexp.Regexp
	watermarks  []*regexp.Regexp
	meaningless []*regexp.Regexp
}

// NewCleaner compiles the vocabulary.
func NewCleaner(cfg Config) (*Cleaner, error) {
	c := &Cleaner{config: cfg}
	var err error
	if c.fillers, err = compile(cfg.Vocabulary.Fillers, wholeWord); err != nil {
		return nil, fmt.Errorf("filler vocabulary: %w", err)
	}
	if c.noise, err = compile(cfg.Vocabulary.Noise, wordBounded); err != nil {
		return nil, fmt.Errorf("noise vocabulary: %w", err)
	}
	if c.watermarks, err = compile(cfg.Vocabulary.Watermarks, wordBounded); err != nil {
		return nil, fmt.Errorf("watermark vocabulary: %w", err)
	}
	if c.meaningless, err = compile(cfg.Vocabulary.Meaningless, caseless); err != nil {
		return nil, fmt.Errorf("meaningless vocabulary: %w", err)
	}
	return c, nil
}

func caseless(p string) string { return `(?i)` + p }

func wholeWord(p string) string {
	return `(?i)(^|` + wordEdge + `)(?:` + p + `)($|` + wordEdge + `)`
}

// wordBounded requires a word edge on each side of p that starts or ends with a
// letter or digit. Symbol patterns such as music notes match anywhere. Both
// capture groups always exist, so matches are replaced with "${1}${2}".
func wordBounded(p string) string {
	first, _ := utf8.DecodeRuneInString(p)
	last, _ := utf8.DecodeLastRuneInString(p)
	left, right := `()`, `()`
	if isWordRune(first) {
		left = `(^|` + wordEdge + `)`
	}
	if isWordRune(last) {
		right = `($|` + wordEdge + `)`
	}
	return `(?i)` + left + `(?:` + p + `)` + right
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func compile(patterns []string, wrap func(string) string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(wrap(p))
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Clean strips noise and normalizes text, repeating until the output stops changing,
// so cleaning already-clean text is a no-op.
func (c *Cleaner) Clean(text string) string {
	passes := max(c.config.MaxPasses, 1)
	out := text
	for i := 0; i < passes; i++ {
		next := c.Normalize(c.Strip(out))
		if next == out {
			break
		}
		out = next
	}
	return out
}

// Strip runs the removal stages and keeps the line structure.
func (c *Cleaner) Strip(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = c.removeWatermarks(text)
	text = c.removeNoise(text)
	text = c.removeFillers(text)
	return c.removeMeaningless(text)
}

func (c *Cleaner) removeWatermarks(text string) string {
	for _, re := range c.watermarks {
		text = replaceAll(re, text)
	}
	return tidyLines(text)
}

// replaceAll removes every match of a word-edged pattern, keeping the edges.
// Adjacent matches share their separating character, so one pass can miss every
// other occurrence.
func replaceAll(re *regexp.Regexp, text string) string {
	for {
		next := re.ReplaceAllString(text, "${1}${2}")
		if next == text {
			return text
		}
		text = next
	}
}

func (c *Cleaner) removeNoise(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || c.mostlyNoise(line) {
			continue
		}
		for _, re := range c.noise {
			line = replaceAll(re, line)
		}
		if line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " ")); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func (c *Cleaner) mostlyNoise(line string) bool {
	limit := float64(utf8.RuneCountInString(line)) * c.config.NoiseLineShare
	for _, re := range c.noise {
		for _, m := range re.FindAllStringSubmatch(line, -1) {
			n := utf8.RuneCountInString(m[0]) - utf8.RuneCountInString(m[1]) - utf8.RuneCountInString(m[2])
			if float64(n) > limit {
				return true
			}
		}
	}
	return false
}

func (c *Cleaner) removeFillers(text string) string {
	for _, re := range c.fillers {
		text = replaceAll(re, text)
	}
	text = orphanSeparator.ReplaceAllString(tidyLines(text), "")
	return repeatedComma.ReplaceAllString(text, "$1")
}

func (c *Cleaner) removeMeaningless(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < c.config.MinLineLength || c.meaninglessLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func (c *Cleaner) meaninglessLine(line string) bool {
	for _, re := range c.meaningless {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// tidyLines collapses inline whitespace and drops blank lines.
func tidyLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Normalize merges sentence fragments split across lines and applies mechanical
// fixes: whitespace, spacing around punctuation, sentence-initial capitals.
func (c *Cleaner) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return fixCommonErrors(mergeFragments(text))
}

// mergeFragments joins a line to the previous one when it starts lowercase, or when
// the previous one lacks terminal punctuation.
func mergeFragments(text string) string {
	var merged []string
	var buf string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(line)
		switch {
		case buf != "" && unicode.IsLower(first):
			buf += " " + line
		case buf != "" && !sentenceEnd.MatchString(buf):
			buf += ". " + line
		default:
			if buf != "" {
				merged = append(merged, buf)
			}
			buf = line
		}
	}
	if buf != "" {
		merged = append(merged, buf)
	}
	return strings.Join(merged, "\n")
}

func fixCommonErrors(text string) string {
	text = anySpace.ReplaceAllString(text, " ")
	text = spaceBefore.ReplaceAllString(text, "$1")
	text = spaceAfterPunctuation(text)
	text = strings.TrimSpace(text)
	return sentenceStart.ReplaceAllStringFunc(text, func(m string) string {
		r, size := utf8.DecodeLastRuneInString(m)
		return m[:len(m)-size] + string(unicode.ToUpper(r))
	})
}

// spaceAfterPunctuation inserts the space missing after punctuation glued to the
// next word. Dotted tokens such as "e.g." or "x.y.z" are left alone.
func spaceAfterPunctuation(text string) string {
	rs := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i, r := range rs {
		b.WriteRune(r)
		if i+1 < len(rs) && strings.ContainsRune(".,!?:;", r) && unicode.IsLetter(rs[i+1]) && gluedWords(rs, i) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// gluedWords reports whether the punctuation at i joins two words: it follows a
// non-letter or a run of at least two letters, or sits on a lower-to-upper case
// change.
func gluedWords(rs []rune, i int) bool {
	if i == 0 || !unicode.IsLetter(rs[i-1]) {
		return true
	}
	if unicode.IsLower(rs[i-1]) && unicode.IsUpper(rs[i+1]) {
		return true
	}
	run := 0
	for j := i - 1; j >= 0 && unicode.IsLetter(rs[j]); j-- {
		run++
	}
	return run >= 2
}

// CleanChunk derives the final text of a prioritized chunk. Merged chunks keep an
// excerpt of the cleaned secondary text as context when it adds anything.
func (c *Cleaner) CleanChunk(p timeline.Priority) (final, context string) {
	if p.PrimarySource == timeline.PrimaryNone {
		return "", ""
	}
	final = c.Clean(p.PrimaryText)
	if p.PrimarySource != timeline.PrimaryMerged {
		return final, ""
	}

	secondary := tidyLines(c.Strip(p.SecondaryText))
	secondary = anySpace.ReplaceAllString(secondary, " ")
	if secondary == "" || strings.Contains(final, secondary) {
		return final, ""
	}
	if n := c.config.ContextRunes; n > 0 && utf8.RuneCountInString(secondary) > n {
		secondary = strings.TrimSpace(string([]rune(secondary)[:n]))
	}
	return final, secondary
}

// CleanContent wraps prioritized chunks into final chunks with cleaned text.
func (c *Cleaner) CleanContent(chunks []timeline.ContentChunk, cmps []timeline.Comparison, priorities []timeline.Priority) []timeline.FinalChunk {
	out := make([]timeline.FinalChunk, len(chunks))
	for i, ch := range chunks {
		final, ctx := c.CleanChunk(priorities[i])
		out[i] = timeline.FinalChunk{
			ContentChunk: ch,
			Comparison:   cmps[i],
			Priority:     priorities[i],
			FinalText:    final,
			Context:      ctx,
		}
	}
	return out
}
