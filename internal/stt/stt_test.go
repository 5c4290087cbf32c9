package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keagan/reelsense/internal/cache"
	"github.com/keagan/reelsense/internal/ffmpeg"
	"github.com/keagan/reelsense/internal/timeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAudio writes the segment length (seconds) into each cut file so the fake
// service can answer with chunk-relative segments.
type fakeAudio struct {
	duration   time.Duration
	extractErr error
	cutErr     map[int]error
}

func (f *fakeAudio) ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat, progress ffmpeg.ProgressFunc) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	return os.WriteFile(output, []byte(strconv.FormatFloat(f.duration.Seconds(), 'f', 3, 64)), 0o644)
}

func (f *fakeAudio) ExtractAudioSegment(ctx context.Context, input, output string, start, length time.Duration, format ffmpeg.AudioFormat) error {
	idx := int(start / (120 * time.Second))
	if err := f.cutErr[idx]; err != nil {
		return err
	}
	return os.WriteFile(output, []byte(strconv.FormatFloat(length.Seconds(), 'f', 3, 64)), 0o644)
}

func (f *fakeAudio) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	return f.duration, nil
}

// segmentingService answers with one segment per 60s of submitted audio.
type segmentingService struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (s *segmentingService) Name() string { return "fake" }

func (s *segmentingService) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	s.mu.Lock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return nil, errors.New("503 service unavailable")
	}
	s.mu.Unlock()

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, err
	}
	length, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil, err
	}

	resp := &Response{}
	var texts []string
	for start := 0.0; start < length; start += 60 {
		end := start + 60
		if end > length {
			end = length
		}
		text := fmt.Sprintf("đoạn nói chuyện từ giây %d đến giây %d trong đoạn âm thanh", int(start), int(end))
		resp.Segments = append(resp.Segments, Segment{Start: start, End: end, Text: text})
		texts = append(texts, text)
	}
	resp.Text = strings.Join(texts, " ")
	return resp, nil
}

type textOnlyService struct{ text string }

func (s textOnlyService) Name() string { return "text-only" }
func (s textOnlyService) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	return &Response{Text: s.text}, nil
}

type failingService struct{ calls int }

func (s *failingService) Name() string { return "failing" }
func (s *failingService) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	s.calls++
	return nil, errors.New("connection refused")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff = time.Millisecond
	return cfg
}

func TestPlanChunks(t *testing.T) {
	chunks := PlanChunks(300, 120)
	require.Len(t, chunks, 3)
	assert.Equal(t, Chunk{ID: 0, Start: 0, End: 120}, chunks[0])
	assert.Equal(t, Chunk{ID: 1, Start: 120, End: 240}, chunks[1])
	assert.Equal(t, Chunk{ID: 2, Start: 240, End: 300}, chunks[2])

	assert.Len(t, PlanChunks(120, 120), 1)
	assert.Len(t, PlanChunks(240.0004, 120), 2)
	assert.Len(t, PlanChunks(240.5, 120), 3)
	assert.Equal(t, []Chunk{{ID: 0}}, PlanChunks(0, 120))
}

func TestRebase(t *testing.T) {
	resp := &Response{Segments: []Segment{
		{Start: 0, End: 4.5, Text: " xin chào "},
		{Start: 4.5, End: 9, Text: ""},
		{Start: 9, End: 200, Text: "overlong"},
	}}
	segs := Rebase(resp, Chunk{ID: 1, Start: 120, End: 240})
	require.Len(t, segs, 2)
	assert.Equal(t, timeline.SpeechSegment{Start: 120, End: 124.5, Text: "xin chào", ChunkID: 1}, segs[0])
	assert.Equal(t, 240.0, segs[1].End)
}

func TestRebaseWithoutSegments(t *testing.T) {
	segs := Rebase(&Response{Text: "hello there"}, Chunk{ID: 2, Start: 240, End: 300})
	require.Len(t, segs, 1)
	assert.Equal(t, timeline.SpeechSegment{Start: 240, End: 300, Text: "hello there", ChunkID: 2}, segs[0])

	assert.Nil(t, Rebase(&Response{Text: "  "}, Chunk{ID: 0, End: 10}))
}

func TestTranscribeNoAudio(t *testing.T) {
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{}, &segmentingService{}, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: false})

	assert.True(t, out.Outcome.IsSkipped())
	assert.Equal(t, "", out.Text)
	assert.Equal(t, timeline.QualityLow, out.Assessment.Quality)
	assert.Contains(t, out.Assessment.Issues, IssueNoAudio)
}

func TestTranscribeSilentAudio(t *testing.T) {
	svc := &segmentingService{}
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{}, svc, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true, Silent: true})

	assert.True(t, out.Outcome.IsSkipped())
	assert.Equal(t, IssueSilentAudio, out.Outcome.Reason)
	assert.Contains(t, out.Assessment.Issues, IssueSilentAudio)
	assert.NotContains(t, out.Assessment.Issues, IssueNoAudio)
}

func TestTranscribeLongAudioChunking(t *testing.T) {
	svc := &segmentingService{}
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{duration: 300 * time.Second}, svc, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	require.True(t, out.Outcome.IsOK())
	require.Len(t, out.Chunks, 3)
	assert.Equal(t, 120.0, out.Chunks[0].Length())
	assert.Equal(t, 120.0, out.Chunks[1].Length())
	assert.Equal(t, 60.0, out.Chunks[2].Length())
	assert.Equal(t, 3, svc.calls)

	require.Len(t, out.Segments, 5)
	for i := 1; i < len(out.Segments); i++ {
		prev, cur := out.Segments[i-1], out.Segments[i]
		assert.Greater(t, cur.Start, prev.Start)
		assert.GreaterOrEqual(t, cur.Start, prev.End, "segments overlap")
		assert.GreaterOrEqual(t, cur.ChunkID, prev.ChunkID)
	}
	assert.Equal(t, 240.0, out.Segments[4].Start)
	assert.Equal(t, 300.0, out.Segments[4].End)
	assert.Equal(t, timeline.QualityGood, out.Assessment.Quality)
}

func TestTranscribeRetriesTransientFailures(t *testing.T) {
	svc := &segmentingService{failures: 2}
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{duration: 60 * time.Second}, svc, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	assert.True(t, out.Outcome.IsOK())
	assert.Equal(t, 3, svc.calls)
	assert.NotContains(t, out.Assessment.Issues, IssueChunkFailed)
}

func TestTranscribeChunkFailureIsIsolated(t *testing.T) {
	audio := &fakeAudio{duration: 300 * time.Second, cutErr: map[int]error{1: errors.New("cut failed")}}
	tr := NewTranscriber(zerolog.Nop(), audio, &segmentingService{}, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	assert.True(t, out.Outcome.IsOK())
	assert.NotEmpty(t, out.Chunks[1].Error)
	assert.Contains(t, out.Assessment.Issues, IssueChunkFailed)
	for _, seg := range out.Segments {
		assert.NotEqual(t, 1, seg.ChunkID)
	}
}

func TestTranscribeServiceExhausted(t *testing.T) {
	svc := &failingService{}
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{duration: 30 * time.Second}, svc, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	assert.True(t, out.Outcome.IsFailed())
	assert.ErrorIs(t, out.Outcome.Err, timeline.ErrServiceInvocation)
	assert.Equal(t, 3, svc.calls)
	assert.Equal(t, timeline.QualityLow, out.Assessment.Quality)
	assert.Contains(t, out.Assessment.Issues, IssueServiceUnavailable)
}

func TestTranscribeExtractionFailure(t *testing.T) {
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{extractErr: errors.New("no stream")}, &segmentingService{}, testConfig())

	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	assert.True(t, out.Outcome.IsFailed())
	assert.ErrorIs(t, out.Outcome.Err, timeline.ErrExtraction)
	assert.Equal(t, []string{IssueExtractionFailed}, out.Assessment.Issues)
}

func TestTranscribeUsesCache(t *testing.T) {
	c := cache.NewMemory(time.Minute, time.Minute)
	svc := &segmentingService{}
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{duration: 60 * time.Second}, svc, testConfig(), WithCache(c))

	first := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})
	second := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, first.Text, second.Text)
	assert.True(t, second.Chunks[0].Cached)
}

func TestAssessQualityGoodSpeech(t *testing.T) {
	text := "hôm nay mình sẽ hướng dẫn các bạn cách làm bánh mì thật ngon tại nhà"
	segs := []timeline.SpeechSegment{{Start: 0, End: 8, Text: text}}
	a := AssessQuality(text, segs, 10, DefaultQualityThresholds())

	assert.Equal(t, timeline.QualityGood, a.Quality)
	assert.Empty(t, a.Issues)
	assert.Equal(t, 16.0, a.Metrics["word_count"])
	assert.InDelta(t, 0.2, a.Metrics["silence_ratio"], 1e-9)
}

func TestAssessQualityEmpty(t *testing.T) {
	a := AssessQuality("", nil, 30, DefaultQualityThresholds())
	assert.Equal(t, timeline.QualityLow, a.Quality)
	assert.Equal(t, 1.0, a.Metrics["silence_ratio"])
	assert.Contains(t, a.Issues, IssueVeryFewWords)
	assert.Contains(t, a.Issues, IssueMostlySilence)
}

func TestAssessQualityRepetitionAndFastSpeech(t *testing.T) {
	text := strings.Repeat("la la ", 10)
	a := AssessQuality(text, []timeline.SpeechSegment{{Start: 0, End: 2, Text: text}}, 2, DefaultQualityThresholds())
	assert.Contains(t, a.Issues, IssueHighRepetition)
	assert.Contains(t, a.Issues, IssueFastOrNoise)
}

func TestAssessQualityMonotonicInWordCount(t *testing.T) {
	th := DefaultQualityThresholds()
	tokens := map[string]func(i int) string{
		"distinct":       func(i int) string { return fmt.Sprintf("word%03d", i) },
		"repeated short": func(int) string { return "a" },
		"repeated word":  func(int) string { return "bánh" },
		"alternating":    func(i int) string { return []string{"xin", "chào"}[i%2] },
	}
	for name, token := range tokens {
		for _, duration := range []float64{1, 2, 5, 30} {
			for _, spokenFrac := range []float64{0.1, 0.4, 0.6, 1.0} {
				prev := timeline.QualityLow
				for n := 0; n <= 60; n++ {
					words := make([]string, n)
					for i := range words {
						words[i] = token(i)
					}
					text := strings.Join(words, " ")
					var segs []timeline.SpeechSegment
					if n > 0 {
						segs = []timeline.SpeechSegment{{Start: 0, End: duration * spokenFrac, Text: text}}
					}
					q := AssessQuality(text, segs, duration, th).Quality
					if prev == timeline.QualityGood {
						assert.Equal(t, timeline.QualityGood, q, "%s duration=%v spoken=%v words=%d", name, duration, spokenFrac, n)
					}
					prev = q
				}
			}
		}
	}
}

func TestAssessQualityRepetitionMeasuredFromMinWords(t *testing.T) {
	th := DefaultQualityThresholds()
	for _, n := range []int{5, 6} {
		text := strings.TrimSpace(strings.Repeat("a ", n))
		segs := []timeline.SpeechSegment{{Start: 0, End: 3, Text: text}}
		a := AssessQuality(text, segs, 3, th)
		assert.Contains(t, a.Issues, IssueHighRepetition, "words=%d", n)
		assert.Equal(t, timeline.QualityLow, a.Quality, "words=%d", n)
	}
}

func TestParseVerboseJSON(t *testing.T) {
	raw := `{"task":"transcribe","language":"vietnamese","duration":9.5,"text":"xin chào các bạn",
		"segments":[{"id":0,"start":0.0,"end":4.2,"text":" xin chào"},{"id":1,"start":4.2,"end":9.5,"text":" các bạn"}]}`

	resp := parseVerboseJSON(raw)
	assert.Equal(t, "xin chào các bạn", resp.Text)
	assert.Equal(t, "vietnamese", resp.Language)
	require.Len(t, resp.Segments, 2)
	assert.Equal(t, Segment{Start: 4.2, End: 9.5, Text: " các bạn"}, resp.Segments[1])
}

func TestOpenAIServiceTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"xin chào","language":"vi","segments":[{"start":0,"end":1.5,"text":"xin chào"}]}`)
	}))
	defer srv.Close()

	svc, err := NewOpenAIService(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	audio := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	resp, err := svc.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "xin chào", resp.Text)
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, 1.5, resp.Segments[0].End)
}

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	_, err := NewOpenAIService(OpenAIConfig{})
	assert.Error(t, err)
}

func TestHTTPServiceTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		if _, header, err := r.FormFile("file"); assert.NoError(t, err) {
			assert.Equal(t, "chunk.wav", header.Filename)
		}
		assert.Equal(t, "vi", r.FormValue("language"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"segments":[{"start":0,"end":2,"text":"một"},{"start":2,"end":4,"text":"hai"}],"language":"vi"}`)
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	resp, err := NewHTTPService(srv.URL+"/", "vi", time.Second).Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "một hai", resp.fullText())
	assert.Len(t, resp.Segments, 2)
}

func TestHTTPServiceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "chunk.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))

	_, err := NewHTTPService(srv.URL, "", time.Second).Transcribe(context.Background(), audio)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestTextOnlyResponseBecomesChunkSegment(t *testing.T) {
	tr := NewTranscriber(zerolog.Nop(), &fakeAudio{duration: 20 * time.Second}, textOnlyService{text: "một hai ba bốn năm sáu"}, testConfig())
	out := tr.Transcribe(context.Background(), Request{VideoPath: "v.mp4", WorkDir: t.TempDir(), HasAudio: true})

	require.Len(t, out.Segments, 1)
	assert.Equal(t, 0.0, out.Segments[0].Start)
	assert.Equal(t, 20.0, out.Segments[0].End)
	assert.Equal(t, "một hai ba bốn năm sáu", out.Text)
}
