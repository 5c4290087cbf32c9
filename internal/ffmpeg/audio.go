package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/keagan/reelsense/pkg/util"
)

// ExtractAudio extracts the audio stream to a separate file
func (e *Executor) ExtractAudio(ctx context.Context, input, output string, format AudioFormat, progressFunc ProgressFunc) error {
	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("codec", format.Codec).
		Int("sample_rate", format.SampleRate).
		Msg("extracting audio")

	args := append([]string{"-i", input}, audioArgs(format)...)
	args = append(args, output)

	opts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("audio extraction")
		},
	}

	return e.Run(ctx, opts)
}

// ExtractAudioSegment cuts [start, start+length) from an audio or video input
func (e *Executor) ExtractAudioSegment(ctx context.Context, input, output string, start, length time.Duration, format AudioFormat) error {
	if length <= 0 {
		return fmt.Errorf("segment length must be positive")
	}

	e.logger.Debug().
		Str("input", input).
		Str("output", output).
		Dur("start", start).
		Dur("length", length).
		Msg("extracting audio segment")

	args := []string{
		"-ss", util.FormatDuration(start),
		"-t", util.FormatDuration(length),
		"-i", input,
	}
	args = append(args, audioArgs(format)...)
	args = append(args, output)

	return e.Run(ctx, RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("audio segment")
		},
	})
}

func audioArgs(format AudioFormat) []string {
	args := []string{"-vn", "-acodec", format.Codec}
	if format.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(format.SampleRate))
	}
	if format.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(format.Channels))
	}
	if format.Bitrate != "" {
		args = append(args, "-b:a", format.Bitrate)
	}
	return args
}

// AnalyzeVolume calculates volume statistics for audio/video file
func (e *Executor) AnalyzeVolume(ctx context.Context, input string) (*VolumeStats, error) {
	e.logger.Info().Str("input", input).Msg("analyzing volume")

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vn",
			"-af", NewFilterBuilder().Custom("volumedetect").Build(),
			"-f", "null",
			"-",
		},
		LogHandler: func(line string) {
			if !strings.Contains(line, "_volume:") {
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
			return nil, fmt.Errorf("volume analysis failed: %w", err)
		}
	}

	if output == "" {
		return nil, fmt.Errorf("volume analysis produced no output")
	}

	return parseVolumeOutput(output), nil
}

// parseVolumeOutput extracts volume stats from volumedetect output
func parseVolumeOutput(output string) *VolumeStats {
	stats := &VolumeStats{}

	for _, line := range strings.Split(output, "\n") {
		if _, rest, ok := strings.Cut(line, "mean_volume:"); ok {
			if fields := strings.Fields(rest); len(fields) > 0 {
				stats.MeanVolume, _ = strconv.ParseFloat(fields[0], 64)
			}
		} else if _, rest, ok := strings.Cut(line, "max_volume:"); ok {
			if fields := strings.Fields(rest); len(fields) > 0 {
				stats.MaxVolume, _ = strconv.ParseFloat(fields[0], 64)
			}
		}
	}

	return stats
}
