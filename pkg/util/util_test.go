package util

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00.000", FormatDuration(0))
	assert.Equal(t, "00:02:00.000", FormatDuration(120*time.Second))
	assert.Equal(t, "01:01:01.500", FormatDuration(time.Hour+time.Minute+1500*time.Millisecond))
	assert.Equal(t, "00:00:00.000", FormatDuration(-time.Second))
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, ParseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 30.0, ParseFrameRate("30/1"))
	assert.Equal(t, 0.0, ParseFrameRate("30/0"))
	assert.Equal(t, 0.0, ParseFrameRate("abc"))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.632, Round(0.63157, 3))
	assert.Equal(t, 1.0, Round(0.9996, 3))
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	retried := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 2}, func(ctx context.Context) error {
		calls++
		return errors.New("down")
	}, func(attempt int, err error) { retried++ })
	require.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, retried)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, RetryPolicy{Attempts: 5, Backoff: time.Second}, func(ctx context.Context) error {
		return errors.New("down")
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkspaceCleanup(t *testing.T) {
	dir, cleanup, err := Workspace(t.TempDir(), "run-")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dir+"/audio.wav", []byte("x"), 0o644))
	cleanup()
	assert.False(t, FileExists(dir))
}

func TestStemAndExtension(t *testing.T) {
	assert.Equal(t, "clip", Stem("/a/b/clip.MP4"))
	assert.True(t, HasExtension("/a/b/clip.MP4", []string{".mp4", ".mov"}))
	assert.False(t, HasExtension("/a/b/notes.txt", []string{".mp4"}))
}
