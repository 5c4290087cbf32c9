package timeline

// Quality grades a single evidence source.
type Quality string

const (
	QualityGood Quality = "good"
	QualityLow  Quality = "low"
)

// Source names which evidence a chunk carries.
type Source string

const (
	SourceBoth Source = "both"
	SourceSTT  Source = "stt"
	SourceOCR  Source = "ocr"
	SourceNone Source = "none"
)

// Relation is the textual relation between speech and on-screen text of one chunk.
type Relation string

const (
	RelationReinforce   Relation = "reinforce"
	RelationComplement  Relation = "complement"
	RelationConflict    Relation = "conflict"
	RelationIndependent Relation = "independent"
)

// Confidence is a coarse three-level confidence grade.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Primary is the source chosen to carry a chunk's final text.
type Primary string

const (
	PrimarySTT    Primary = "stt"
	PrimaryOCR    Primary = "ocr"
	PrimaryMerged Primary = "merged"
	PrimaryNone   Primary = "none"
)

// Scene is a visually coherent span of the video. Times are seconds.
type Scene struct {
	ID       int     `json:"scene_id"`
	Start    float64 `json:"start_time"`
	End      float64 `json:"end_time"`
	Duration float64 `json:"duration"`
}

// Contains reports whether t falls in [Start, End).
func (s Scene) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Midpoint returns the center of the scene.
func (s Scene) Midpoint() float64 {
	return s.Start + s.Duration/2
}

// KeyFrame is a sampling point for OCR. Path is set once the frame has been
// decoded to disk and is only valid for the lifetime of the run workspace.
type KeyFrame struct {
	SceneID   int     `json:"scene_id"`
	Timestamp float64 `json:"timestamp"`
	FrameID   int     `json:"frame_id"`
	Path      string  `json:"-"`
}

// SpeechSegment is a time-stamped piece of transcript in absolute video time.
type SpeechSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	ChunkID int     `json:"chunk_id"`
}

// Midpoint returns the temporal center of the segment.
func (s SpeechSegment) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// OCRItem is the cleaned text recognized on one keyframe.
type OCRItem struct {
	SceneID   int     `json:"scene_id"`
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
	CharCount int     `json:"char_count"`
}

// Assessment is the self-assessed reliability of one evidence source.
type Assessment struct {
	Quality Quality            `json:"quality"`
	Metrics map[string]float64 `json:"metrics"`
	Issues  []string           `json:"issues"`
}

// HasIssue reports whether code is among the assessment issues.
func (a Assessment) HasIssue(code string) bool {
	for _, issue := range a.Issues {
		if issue == code {
			return true
		}
	}
	return false
}

// LowAssessment returns a low-quality assessment carrying the given issues.
func LowAssessment(issues ...string) Assessment {
	return Assessment{
		Quality: QualityLow,
		Metrics: map[string]float64{},
		Issues:  append([]string(nil), issues...),
	}
}

// ContentChunk is the scene-aligned unit joining both sources.
type ContentChunk struct {
	ChunkID int     `json:"chunk_id"`
	Start   float64 `json:"start_time"`
	End     float64 `json:"end_time"`
	STTText string  `json:"stt_text"`
	OCRText string  `json:"ocr_text"`
	Source  Source  `json:"source"`
	HasSTT  bool    `json:"has_stt"`
	HasOCR  bool    `json:"has_ocr"`
}

// Duration returns the chunk length in seconds.
func (c ContentChunk) Duration() float64 {
	return c.End - c.Start
}

// Comparison describes how the two sources of a chunk relate.
type Comparison struct {
	Relation        Relation   `json:"relation"`
	SimilarityScore float64    `json:"similarity_score"`
	CommonKeywords  []string   `json:"common_keywords"`
	Confidence      Confidence `json:"confidence"`
}

// Weights is the contribution of each source to a chunk's content.
type Weights struct {
	STT float64 `json:"stt"`
	OCR float64 `json:"ocr"`
}

// Priority is the per-chunk decision on which source carries the content.
type Priority struct {
	PrimarySource     Primary    `json:"primary_source"`
	PrimaryText       string     `json:"primary_text"`
	SecondaryText     string     `json:"secondary_text"`
	Weight            Weights    `json:"weight"`
	ContentConfidence Confidence `json:"content_confidence"`
	Reason            string     `json:"reason"`
}

// FinalChunk wraps an aligned chunk with its comparison, priority and cleaned text.
type FinalChunk struct {
	ContentChunk
	Comparison Comparison `json:"comparison"`
	Priority   Priority   `json:"priority"`
	FinalText  string     `json:"final_text"`
	Context    string     `json:"context,omitempty"`
}

// Verdict is the global reasoning-readiness decision.
type Verdict struct {
	ReasoningReady     bool       `json:"reasoning_ready"`
	ContentQuality     Confidence `json:"content_quality"`
	Reason             string     `json:"reason"`
	RecommendedActions []string   `json:"recommended_actions"`
}
