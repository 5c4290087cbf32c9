package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DetectScenes finds scene changes in video using ffmpeg scene detection.
// threshold is the minimum frame-difference score in [0,1] for a change.
func (e *Executor) DetectScenes(ctx context.Context, input string, threshold float64) ([]time.Duration, error) {
	e.logger.Info().
		Str("input", input).
		Float64("threshold", threshold).
		Msg("detecting scene changes")

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	filter := NewFilterBuilder().SceneSelect(threshold).ShowInfo().Build()

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-an",
			"-vf", filter,
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			if !strings.Contains(line, "pts_time:") {
				return
			}
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	err := e.Run(ctx, opts)

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isNullSinkError(err) {
			return nil, fmt.Errorf("scene detection failed: %w", err)
		}
	}

	scenes := parseSceneOutput(output)
	e.logger.Info().Int("changes", len(scenes)).Msg("scene detection complete")
	return scenes, nil
}

// parseSceneOutput extracts scene change timestamps from showinfo output, sorted
func parseSceneOutput(output string) []time.Duration {
	var scenes []time.Duration

	for _, line := range strings.Split(output, "\n") {
		_, rest, ok := strings.Cut(line, "pts_time:")
		if !ok {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(rest))
		if len(fields) == 0 {
			continue
		}
		if seconds, err := strconv.ParseFloat(fields[0], 64); err == nil && seconds >= 0 {
			scenes = append(scenes, time.Duration(seconds*float64(time.Second)))
		}
	}

	sort.Slice(scenes, func(i, j int) bool { return scenes[i] < scenes[j] })
	return scenes
}
