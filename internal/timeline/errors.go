package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableVideo means the input cannot be probed or decoded at all.
	ErrUnreadableVideo = errors.New("unreadable video")

	// ErrSegmentation means scenes could not be determined.
	ErrSegmentation = errors.New("scene segmentation failed")

	// ErrExtraction means audio or frame extraction failed.
	ErrExtraction = errors.New("media extraction failed")

	// ErrServiceInvocation means an external STT or OCR call exhausted its retries.
	ErrServiceInvocation = errors.New("service invocation failed")

	// ErrAlignment means a segment or item referenced time outside every scene.
	ErrAlignment = errors.New("alignment inconsistency")
)

// StageError attaches the failing stage and operation to an underlying error.
type StageError struct {
	Stage string
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Wrap builds a StageError whose chain contains both kind and cause.
func Wrap(stage, op string, kind, cause error) error {
	if cause == nil {
		return &StageError{Stage: stage, Op: op, Err: kind}
	}
	return &StageError{Stage: stage, Op: op, Err: fmt.Errorf("%w: %w", kind, cause)}
}
