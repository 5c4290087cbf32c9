// Package reasoning decides whether fused content is trustworthy enough for
// downstream automated reasoning.
package reasoning

import (
	"strings"

	"github.com/keagan/reelsense/internal/timeline"
	"github.com/keagan/reelsense/pkg/util"
	"github.com/rs/zerolog"
)

// Issue codes raised by the three assessments.
const (
	IssueNoChunks            = "no_chunks"
	IssueNoContent           = "no_content"
	IssueTooFewWords         = "too_few_words"
	IssueNoChunksWithContent = "no_chunks_with_content"
	IssueLowContentDensity   = "low_content_density"
	IssueMostlyLowConfidence = "mostly_low_confidence"
	IssueNoClearStructure    = "no_clear_structure"
	IssueTopicUnclear        = "topic_unclear"
	IssueNoContext           = "no_context"
)

// Recommended actions, chosen from the issue set.
const (
	ActionKeepAsIs       = "keep content as-is; do not force classification"
	ActionMetadataOnly   = "fall back to metadata-only analysis"
	ActionLimitInference = "flag as low-confidence and limit inference"
	ActionProceed        = "proceed to downstream classification"
	ActionShallow        = "keep metadata and scene structure; skip deep analysis"
)

// Completeness checks that there is enough text at all.
type Completeness struct {
	IsComplete        bool     `json:"is_complete"`
	WordCount         int      `json:"word_count"`
	ChunksWithContent int      `json:"chunks_with_content"`
	TotalChunks       int      `json:"total_chunks"`
	ContentDensity    float64  `json:"content_density"`
	Issues            []string `json:"issues"`
}

// Coherence checks the confidence spread and structural signal.
type Coherence struct {
	IsCoherent         bool                        `json:"is_coherent"`
	HasStructure       bool                        `json:"has_structure"`
	Distribution       map[timeline.Confidence]int `json:"confidence_distribution"`
	LowConfidenceRatio float64                     `json:"low_confidence_ratio"`
	Issues             []string                    `json:"issues"`
}

// Potential estimates whether a topic and context can be recovered.
type Potential struct {
	CanReason    bool     `json:"can_reason"`
	TopicClarity string   `json:"topic_clarity"`
	ContextLevel string   `json:"context_level"`
	TotalWords   int      `json:"total_words"`
	Issues       []string `json:"issues"`
}

// Report is the verdict with the assessments behind it.
type Report struct {
	timeline.Verdict
	Completeness Completeness `json:"completeness"`
	Coherence    Coherence    `json:"coherence"`
	Potential    Potential    `json:"reasoning_potential"`
	Issues       []string     `json:"all_issues"`
}

// Gate evaluates final chunks.
type Gate struct {
	logger zerolog.Logger
	config Config
}

// NewGate creates a gate.
func NewGate(logger zerolog.Logger, cfg Config) *Gate {
	return &Gate{
		logger: logger.With().Str("component", "reasoning-gate").Logger(),
		config: cfg,
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// Completeness requires enough words overall, at least one substantial chunk and a
// minimum share of chunks with content.
func (g *Gate) Completeness(chunks []timeline.FinalChunk) Completeness {
	if len(chunks) == 0 {
		return Completeness{Issues: []string{IssueNoChunks}}
	}

	c := Completeness{TotalChunks: len(chunks), Issues: []string{}}
	for _, ch := range chunks {
		n := wordCount(ch.FinalText)
		c.WordCount += n
		if n >= g.config.MinChunkWords {
			c.ChunksWithContent++
		}
	}
	density := float64(c.ChunksWithContent) / float64(len(chunks))
	c.ContentDensity = util.Round(density, 2)

	if c.WordCount < g.config.MinWords {
		c.Issues = append(c.Issues, IssueTooFewWords)
	}
	if c.ChunksWithContent < g.config.MinContentChunks {
		c.Issues = append(c.Issues, IssueNoChunksWithContent)
	}
	if density < g.config.MinContentDensity {
		c.Issues = append(c.Issues, IssueLowContentDensity)
	}
	c.IsComplete = len(c.Issues) == 0
	return c
}

// Coherence flags mostly-low-confidence content and the absence of structure.
// Its issues lower content quality but never block readiness.
func (g *Gate) Coherence(chunks []timeline.FinalChunk) Coherence {
	if len(chunks) == 0 {
		return Coherence{Distribution: map[timeline.Confidence]int{}, LowConfidenceRatio: 1, Issues: []string{IssueNoChunks}}
	}

	c := Coherence{
		Distribution: map[timeline.Confidence]int{
			timeline.ConfidenceHigh:   0,
			timeline.ConfidenceMedium: 0,
			timeline.ConfidenceLow:    0,
		},
		Issues: []string{},
	}
	for _, ch := range chunks {
		conf := ch.Priority.ContentConfidence
		if conf == "" {
			conf = timeline.ConfidenceLow
		}
		c.Distribution[conf]++
	}

	low := float64(c.Distribution[timeline.ConfidenceLow]) / float64(len(chunks))
	c.LowConfidenceRatio = util.Round(low, 2)
	if low > g.config.MaxLowConfidenceRatio {
		c.Issues = append(c.Issues, IssueMostlyLowConfidence)
	}

	confident := c.Distribution[timeline.ConfidenceHigh] + c.Distribution[timeline.ConfidenceMedium]
	c.HasStructure = len(chunks) >= g.config.MinStructureChunks && confident > 0
	if !c.HasStructure {
		c.Issues = append(c.Issues, IssueNoClearStructure)
	}
	c.IsCoherent = len(c.Issues) == 0
	return c
}

// Potential grades topic clarity by total words and context by the number of chunks
// with enough words to stand alone.
func (g *Gate) Potential(chunks []timeline.FinalChunk) Potential {
	if len(chunks) == 0 {
		return Potential{TopicClarity: "none", ContextLevel: "none", Issues: []string{IssueNoContent}}
	}

	p := Potential{Issues: []string{}}
	contextChunks := 0
	for _, ch := range chunks {
		n := wordCount(ch.FinalText)
		p.TotalWords += n
		if n >= g.config.ContextChunkWords {
			contextChunks++
		}
	}

	switch {
	case p.TotalWords >= g.config.ClearTopicWords:
		p.TopicClarity = "clear"
	case p.TotalWords >= g.config.PartialTopicWords:
		p.TopicClarity = "partial"
	case p.TotalWords >= g.config.VagueTopicWords:
		p.TopicClarity = "vague"
	default:
		p.TopicClarity = "none"
		p.Issues = append(p.Issues, IssueTopicUnclear)
	}

	switch {
	case contextChunks >= g.config.RichContext:
		p.ContextLevel = "rich"
	case contextChunks >= g.config.AdequateContext:
		p.ContextLevel = "adequate"
	case contextChunks >= 1:
		p.ContextLevel = "minimal"
	default:
		p.ContextLevel = "none"
		p.Issues = append(p.Issues, IssueNoContext)
	}

	p.CanReason = (p.TopicClarity == "clear" || p.TopicClarity == "partial") && p.ContextLevel != "none"
	return p
}

// Evaluate produces the global verdict. Readiness requires completeness and reasoning
// potential; content quality counts every issue of all three assessments.
func (g *Gate) Evaluate(chunks []timeline.FinalChunk, status SourceStatus) Report {
	r := Report{
		Completeness: g.Completeness(chunks),
		Coherence:    g.Coherence(chunks),
		Potential:    g.Potential(chunks),
	}
	r.Issues = append(append(append([]string{}, r.Completeness.Issues...), r.Coherence.Issues...), r.Potential.Issues...)

	r.ReasoningReady = r.Completeness.IsComplete && r.Potential.CanReason

	switch n := len(r.Issues); {
	case n == 0:
		r.ContentQuality = timeline.ConfidenceHigh
	case n <= g.config.MaxMediumIssues:
		r.ContentQuality = timeline.ConfidenceMedium
	default:
		r.ContentQuality = timeline.ConfidenceLow
	}

	if r.ReasoningReady {
		r.Reason = "content is clear and structured enough for reasoning"
	} else {
		var reasons []string
		if !r.Completeness.IsComplete {
			reasons = append(reasons, "insufficient content")
		}
		if !r.Potential.CanReason {
			reasons = append(reasons, "insufficient context for reasoning")
		}
		if status.DataStatus == DataWeak && !r.Completeness.IsComplete {
			reasons = append(reasons, "weak source data")
		}
		r.Reason = strings.Join(reasons, "; ")
	}

	r.RecommendedActions = g.actions(r)

	g.logger.Info().
		Bool("ready", r.ReasoningReady).
		Str("quality", string(r.ContentQuality)).
		Strs("issues", r.Issues).
		Msg("reasoning readiness evaluated")
	return r
}

func (g *Gate) actions(r Report) []string {
	var actions []string
	if !r.ReasoningReady {
		has := func(code string) bool {
			for _, i := range r.Issues {
				if i == code {
					return true
				}
			}
			return false
		}
		if has(IssueTooFewWords) {
			actions = append(actions, ActionKeepAsIs)
		}
		if has(IssueTopicUnclear) {
			actions = append(actions, ActionMetadataOnly)
		}
		if has(IssueMostlyLowConfidence) {
			actions = append(actions, ActionLimitInference)
		}
	}
	if len(actions) > 0 {
		return actions
	}
	if r.ReasoningReady {
		return []string{ActionProceed}
	}
	return []string{ActionShallow}
}
