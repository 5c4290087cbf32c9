package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Engine recognizes text lines in a single image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]string, error)
}

// tesseractLangs maps ISO-639-1 codes to tesseract traineddata names.
var tesseractLangs = map[string]string{
	"vi": "vie",
	"en": "eng",
	"zh": "chi_sim",
	"ja": "jpn",
	"ko": "kor",
	"th": "tha",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
}

// TesseractLanguages builds the -l argument, e.g. ["vi","en"] -> "vie+eng".
func TesseractLanguages(codes []string) string {
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if mapped, ok := tesseractLangs[c]; ok {
			c = mapped
		}
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return "eng"
	}
	return strings.Join(parts, "+")
}

// Tesseract runs the tesseract CLI with LSTM engine and uniform-block segmentation.
type Tesseract struct {
	logger zerolog.Logger
	path   string
	langs  string
}

// NewTesseract resolves the binary and fails if it is not installed.
func NewTesseract(logger zerolog.Logger, binary string, languages []string) (*Tesseract, error) {
	if binary == "" {
		binary = "tesseract"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("tesseract not found in PATH: %w", err)
	}
	return &Tesseract{
		logger: logger.With().Str("component", "tesseract").Logger(),
		path:   path,
		langs:  TesseractLanguages(languages),
	}, nil
}

func (t *Tesseract) Name() string {
	return "tesseract-" + t.langs
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) ([]string, error) {
	args := []string{imagePath, "stdout", "-l", t.langs, "--oem", "3", "--psm", "6"}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.logger.Trace().Strs("args", args).Msg("running tesseract")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("tesseract failed: %w", err)
	}

	return SplitLines(stdout.String()), nil
}

// SplitLines splits engine output into trimmed, non-empty lines.
func SplitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\f\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
