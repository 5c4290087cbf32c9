package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/reelsense/pkg/util"
)

// ExtractFrame decodes a single frame at the given timestamp into an image file.
// A positive width scales the frame keeping the aspect ratio.
func (e *Executor) ExtractFrame(ctx context.Context, input string, at time.Duration, output string, width int) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", output).
		Dur("timestamp", at).
		Msg("extracting frame")

	args := []string{
		"-ss", util.FormatDuration(at),
		"-i", input,
		"-frames:v", "1",
	}
	if filter := NewFilterBuilder().ScaleWidth(width).Build(); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-q:v", "2", output)

	return e.Run(ctx, RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("frame extraction")
		},
	})
}
