package timeline

import "encoding/json"

// Status tags the result of a stage that may legitimately not run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records whether a stage produced data, skipped on purpose, or failed.
// A failed outcome still travels with whatever partial data the stage produced.
type Outcome struct {
	Status Status
	Reason string
	Err    error
}

// Ok returns a successful outcome.
func Ok() Outcome {
	return Outcome{Status: StatusOK}
}

// Skipped returns an outcome for an expected, non-exceptional skip.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Failed returns an outcome carrying the error that stopped the stage.
func Failed(reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err}
}

func (o Outcome) IsOK() bool      { return o.Status == StatusOK }
func (o Outcome) IsSkipped() bool { return o.Status == StatusSkipped }
func (o Outcome) IsFailed() bool  { return o.Status == StatusFailed }

// MarshalJSON renders the outcome with the error flattened to a string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	out := struct {
		Status Status `json:"status"`
		Reason string `json:"reason,omitempty"`
		Error  string `json:"error,omitempty"`
	}{Status: o.Status, Reason: o.Reason}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}
