// Package compare relates the speech and on-screen text of each chunk and decides
// which source should carry the chunk's content.
package compare

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, strips punctuation and collapses whitespace.
func Normalize(text string) string {
	text = strings.ToLower(norm.NFC.String(text))
	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// Similarity is the sequence-matching ratio of the normalized texts, in [0,1].
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	m := difflib.NewMatcher(runes(na), runes(nb))
	return util.Round(m.Ratio(), 3)
}

func runes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Keywords returns the sorted normalized words of at least minLen runes present in
// both texts.
func Keywords(a, b string, minLen int) []string {
	left := wordSet(a, minLen)
	if len(left) == 0 {
		return []string{}
	}
	common := []string{}
	for w := range wordSet(b, minLen) {
		if _, ok := left[w]; ok {
			common = append(common, w)
		}
	}
	sort.Strings(common)
	return common
}

func wordSet(text string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(text)) {
		if utf8.RuneCountInString(w) >= minLen {
			set[w] = struct{}{}
		}
	}
	return set
}

// Density estimates how much specific, non-redundant content text carries, in [0,1].
func Density(text string, w DensityWeights) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	unique := make(map[string]struct{}, len(words))
	letters := 0
	for _, word := range words {
		unique[strings.ToLower(word)] = struct{}{}
		letters += utf8.RuneCountInString(word)
	}

	n := float64(len(words))
	uniqueness := float64(len(unique)) / n
	lengthFactor := 1.0
	if w.NormWordLen > 0 {
		lengthFactor = min(float64(letters)/n/w.NormWordLen, 1)
	}
	countFactor := 1.0
	if w.NormWordCount > 0 {
		countFactor = min(n/w.NormWordCount, 1)
	}

	return util.Round(uniqueness*w.Uniqueness+lengthFactor*w.WordLength+countFactor*w.Length, 3)
}

// Comparator runs the per-chunk comparison and prioritization rules.
type Comparator struct {
	logger zerolog.Logger
	config Config
}

// NewComparator creates a comparator.
func NewComparator(logger zerolog.Logger, cfg Config) *Comparator {
	return &Comparator{
		logger: logger.With().Str("component", "source-comparator").Logger(),
		config: cfg,
	}
}

// Compare classifies how the two texts of a chunk relate. A chunk missing either side
// is independent by absence of comparison data, not by evidence.
func (c *Comparator) Compare(stt, ocr string) timeline.Comparison {
	stt, ocr = strings.TrimSpace(stt), strings.TrimSpace(ocr)
	switch {
	case stt == "" && ocr == "":
		return timeline.Comparison{Relation: timeline.RelationIndependent, CommonKeywords: []string{}, Confidence: timeline.ConfidenceLow}
	case stt == "" || ocr == "":
		return timeline.Comparison{Relation: timeline.RelationIndependent, CommonKeywords: []string{}, Confidence: timeline.ConfidenceMedium}
	}

	cfg := c.config
	sim := Similarity(stt, ocr)
	keywords := Keywords(stt, ocr, cfg.MinKeywordLength)

	out := timeline.Comparison{SimilarityScore: sim, CommonKeywords: keywords}
	switch {
	case sim >= cfg.ReinforceSimilarity:
		out.Relation, out.Confidence = timeline.RelationReinforce, timeline.ConfidenceHigh
	case sim >= cfg.ComplementSimilarity || len(keywords) >= cfg.ComplementKeywords:
		out.Relation, out.Confidence = timeline.RelationComplement, timeline.ConfidenceMedium
	case sim >= cfg.WeakSimilarity && len(keywords) > 0:
		out.Relation, out.Confidence = timeline.RelationComplement, timeline.ConfidenceLow
	default:
		out.Relation, out.Confidence = timeline.RelationIndependent, timeline.ConfidenceLow
	}
	return out
}

// Score combines a source's quality grade with the density of its text.
func (c *Comparator) Score(text string, q timeline.Quality) float64 {
	weight := c.config.UnknownQuality
	switch q {
	case timeline.QualityGood:
		weight = c.config.GoodQuality
	case timeline.QualityLow:
		weight = c.config.LowQuality
	}
	return weight*c.config.QualityShare + Density(text, c.config.Density)*(1-c.config.QualityShare)
}

// Prioritize picks the primary source of a chunk given the comparison and the
// per-video quality of each source.
func (c *Comparator) Prioritize(chunk timeline.ContentChunk, cmp timeline.Comparison, sttQ, ocrQ timeline.Quality) timeline.Priority {
	stt, ocr := strings.TrimSpace(chunk.STTText), strings.TrimSpace(chunk.OCRText)
	if stt == "" && ocr == "" {
		return timeline.Priority{
			PrimarySource:     timeline.PrimaryNone,
			ContentConfidence: timeline.ConfidenceLow,
			Reason:            "no content from either source",
		}
	}

	cfg := c.config
	sttScore := c.Score(stt, sttQ)
	ocrScore := c.Score(ocr, ocrQ)

	switch cmp.Relation {
	case timeline.RelationReinforce:
		return timeline.Priority{
			PrimarySource:     timeline.PrimaryMerged,
			PrimaryText:       stt,
			SecondaryText:     ocr,
			Weight:            timeline.Weights(cfg.ReinforceWeights),
			ContentConfidence: timeline.ConfidenceHigh,
			Reason:            "speech and on-screen text reinforce each other",
		}
	case timeline.RelationComplement:
		if sttScore >= ocrScore {
			return timeline.Priority{
				PrimarySource:     timeline.PrimaryMerged,
				PrimaryText:       stt,
				SecondaryText:     ocr,
				Weight:            timeline.Weights(cfg.ComplementWeights),
				ContentConfidence: timeline.ConfidenceMedium,
				Reason:            "sources complement each other, merged with equal weight",
			}
		}
		return timeline.Priority{
			PrimarySource:     timeline.PrimaryMerged,
			PrimaryText:       ocr,
			SecondaryText:     stt,
			Weight:            timeline.Weights(cfg.OCRLeadWeights),
			ContentConfidence: timeline.ConfidenceMedium,
			Reason:            "sources complement each other, on-screen text leads",
		}
	}

	lead, trail := cfg.IndependentPrimary, 1-cfg.IndependentPrimary
	if sttScore > ocrScore && stt != "" {
		return timeline.Priority{
			PrimarySource:     timeline.PrimarySTT,
			PrimaryText:       stt,
			SecondaryText:     ocr,
			Weight:            timeline.Weights{STT: util.Round(lead, 3), OCR: util.Round(trail, 3)},
			ContentConfidence: confidenceFor(sttQ),
			Reason:            fmt.Sprintf("speech scores higher (%.2f vs %.2f)", sttScore, ocrScore),
		}
	}
	if ocr != "" {
		return timeline.Priority{
			PrimarySource:     timeline.PrimaryOCR,
			PrimaryText:       ocr,
			SecondaryText:     stt,
			Weight:            timeline.Weights{STT: util.Round(trail, 3), OCR: util.Round(lead, 3)},
			ContentConfidence: confidenceFor(ocrQ),
			Reason:            fmt.Sprintf("on-screen text scores higher (%.2f vs %.2f)", ocrScore, sttScore),
		}
	}

	return timeline.Priority{
		PrimarySource:     timeline.PrimarySTT,
		PrimaryText:       stt,
		Weight:            timeline.Weights{STT: 0.5, OCR: 0.5},
		ContentConfidence: timeline.ConfidenceLow,
		Reason:            "only speech available",
	}
}

// Evaluate compares and prioritizes one chunk.
func (c *Comparator) Evaluate(chunk timeline.ContentChunk, sttQ, ocrQ timeline.Quality) (timeline.Comparison, timeline.Priority) {
	cmp := c.Compare(chunk.STTText, chunk.OCRText)
	pr := c.Prioritize(chunk, cmp, sttQ, ocrQ)
	c.logger.Debug().
		Int("chunk", chunk.ChunkID).
		Str("relation", string(cmp.Relation)).
		Float64("similarity", cmp.SimilarityScore).
		Str("primary", string(pr.PrimarySource)).
		Msg("chunk compared")
	return cmp, pr
}

func confidenceFor(q timeline.Quality) timeline.Confidence {
	if q == timeline.QualityLow {
		return timeline.ConfidenceLow
	}
	return timeline.ConfidenceMedium
}
