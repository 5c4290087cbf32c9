package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

// generateTestVideo renders two visually distinct halves with a sine tone
func generateTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_with_audio.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "color=c=red:size=320x240:duration=2:rate=25",
		"-f", "lavfi", "-i", "color=c=blue:size=320x240:duration=2:rate=25",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=4",
		"-filter_complex", "[0:v][1:v]concat=n=2:v=1:a=0[v]",
		"-map", "[v]", "-map", "2:a",
		"-pix_fmt", "yuv420p", "-shortest", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v (%s)", err, out)
	}
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	exec, err := New(zerolog.New(os.Stderr).Level(zerolog.InfoLevel), 2)
	require.NoError(t, err)
	return exec
}

func TestFilterBuilder(t *testing.T) {
	fb := NewFilterBuilder()
	filter := fb.ScaleWidth(1280).Custom("format=gray").Build()

	assert.Equal(t, "scale=1280:-2,format=gray", filter)
}

func TestFilterBuilderEmpty(t *testing.T) {
	assert.Equal(t, "", NewFilterBuilder().Build())
	assert.Equal(t, "", NewFilterBuilder().ScaleWidth(0).Custom("").Build())
}

func TestFilterBuilderSceneChain(t *testing.T) {
	filter := NewFilterBuilder().SceneSelect(0.3).ShowInfo().Build()
	assert.Equal(t, "select='gt(scene,0.300000)',showinfo", filter)

	assert.Equal(t, "scale=1280:-2", NewFilterBuilder().ScaleWidth(1280).Build())
}

func TestParseSceneOutput(t *testing.T) {
	output := `[Parsed_showinfo_1 @ 0x1] n:   0 pts:  51200 pts_time:4.0     duration: 512
[Parsed_showinfo_1 @ 0x1] n:   1 pts:  25600 pts_time:2.04    duration: 512
unrelated line
[Parsed_showinfo_1 @ 0x1] n:   2 pts_time:`

	scenes := parseSceneOutput(output)
	require.Len(t, scenes, 2)
	assert.Equal(t, 2040*time.Millisecond, scenes[0])
	assert.Equal(t, 4*time.Second, scenes[1])
}

func TestParseProbeOutput(t *testing.T) {
	output := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920, "r_frame_rate": "30/1", "duration": "12.5"},
			{"codec_type": "audio", "codec_name": "aac", "bit_rate": "128000", "duration": "12.4"}
		],
		"format": {"format_name": "mov,mp4", "duration": "12.500000", "bit_rate": "2000000"}
	}`)

	info, err := parseProbeOutput(output)
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, info.Duration)
	assert.Equal(t, 1080, info.Width)
	assert.Equal(t, 1920, info.Height)
	assert.Equal(t, 30.0, info.FPS)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.True(t, info.HasVideo)
	assert.True(t, info.HasAudio)
	assert.Equal(t, int64(128000), info.AudioBitrate)
}

func TestParseProbeOutputStreamDurationFallback(t *testing.T) {
	output := []byte(`{"streams": [{"codec_type": "video", "codec_name": "vp9", "duration": "7.25"}], "format": {}}`)

	info, err := parseProbeOutput(output)
	require.NoError(t, err)
	assert.Equal(t, 7250*time.Millisecond, info.Duration)
	assert.False(t, info.HasAudio)
}

func TestParseProbeOutputInvalid(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestParseVolumeOutput(t *testing.T) {
	output := `[Parsed_volumedetect_0 @ 0x1] mean_volume: -20.5 dB
[Parsed_volumedetect_0 @ 0x1] max_volume: -3.1 dB`

	stats := parseVolumeOutput(output)
	assert.Equal(t, -20.5, stats.MeanVolume)
	assert.Equal(t, -3.1, stats.MaxVolume)
}

func TestNullSinkErrorDetection(t *testing.T) {
	err := &RunError{Err: errors.New("exit status 1"), Tail: []string{"Conversion failed!"}}
	assert.True(t, isNullSinkError(err))
	assert.False(t, isNullSinkError(errors.New("Conversion failed")))
	assert.False(t, isNullSinkError(&RunError{Err: errors.New("exit status 1"), Tail: []string{"No such file"}}))
}

func TestTailKeepsLastLines(t *testing.T) {
	tl := newTail(2)
	tl.add("first error")
	tl.add("frame=10")
	tl.add("second error")
	tl.add("third error")
	assert.Equal(t, []string{"second error", "third error"}, tl.lines())
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)
	video := generateTestVideo(t)
	exec := newTestExecutor(t)

	info, err := exec.ProbeVideo(context.Background(), video)
	require.NoError(t, err)
	assert.Equal(t, 320, info.Width)
	assert.Equal(t, 240, info.Height)
	assert.True(t, info.HasAudio)
	assert.InDelta(t, 4.0, info.Duration.Seconds(), 0.2)
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)
	exec := newTestExecutor(t)

	bogus := filepath.Join(t.TempDir(), "bogus.mp4")
	require.NoError(t, os.WriteFile(bogus, []byte("not a video"), 0o644))

	_, err := exec.ProbeVideo(context.Background(), bogus)
	assert.Error(t, err)
}

func TestDetectScenes(t *testing.T) {
	skipIfNoFFmpeg(t)
	video := generateTestVideo(t)
	exec := newTestExecutor(t)

	scenes, err := exec.DetectScenes(context.Background(), video, 0.3)
	require.NoError(t, err)
	require.NotEmpty(t, scenes)
	assert.InDelta(t, 2.0, scenes[0].Seconds(), 0.1)
}

func TestExtractAudioAndSegment(t *testing.T) {
	skipIfNoFFmpeg(t)
	video := generateTestVideo(t)
	exec := newTestExecutor(t)
	ctx := context.Background()
	dir := t.TempDir()

	audio := filepath.Join(dir, "audio.wav")
	require.NoError(t, exec.ExtractAudio(ctx, video, audio, DefaultSpeechFormat(), nil))

	segment := filepath.Join(dir, "chunk_000.wav")
	require.NoError(t, exec.ExtractAudioSegment(ctx, audio, segment, time.Second, 2*time.Second, DefaultSpeechFormat()))

	dur, err := exec.ProbeDuration(ctx, segment)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, dur.Seconds(), 0.1)

	stats, err := exec.AnalyzeVolume(ctx, audio)
	require.NoError(t, err)
	assert.Greater(t, stats.MaxVolume, -30.0)
}

func TestExtractFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	video := generateTestVideo(t)
	exec := newTestExecutor(t)

	out := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, exec.ExtractFrame(context.Background(), video, 3*time.Second, out, 160))

	stat, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, stat.Size(), int64(0))
}
