package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/keagan/reelsense/internal/pipeline"
	"github.com/keagan/reelsense/pkg/util"
)

const (
	ResultFile     = "result.json"
	NormalizedFile = "normalized.txt"
)

// Dir returns the output directory of a run: <out>/<video-stem>-<run-id>.
func Dir(out string, res *pipeline.Result) string {
	return filepath.Join(out, fmt.Sprintf("%s-%s", util.Stem(res.VideoPath), res.RunID))
}

// WriteResult writes the indented result document and the normalized text of a
// run, returning the directory they were written to.
func WriteResult(out string, res *pipeline.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("export: nil result")
	}

	dir := Dir(out, res)
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encode result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ResultFile), data, 0644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	text := res.NormalizedText
	if text != "" {
		text += "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, NormalizedFile), []byte(text), 0644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return dir, nil
}

// Printer writes result documents to a shared stream. Each document is written
// whole, so concurrent runs never interleave.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a printer over w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes res as indented JSON followed by a newline.
func (p *Printer) Print(res *pipeline.Result) error {
	if res == nil {
		return fmt.Errorf("export: nil result")
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode result: %w", err)
	}
	data = append(data, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = p.w.Write(data)
	return err
}
