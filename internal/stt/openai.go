package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

// OpenAIConfig configures the hosted Whisper backend.
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

// OpenAIService calls an OpenAI-compatible /audio/transcriptions endpoint.
type OpenAIService struct {
	client   openai.Client
	model    string
	language string
	timeout  time.Duration
}

// NewOpenAIService builds the client. Retries are handled by the Transcriber.
func NewOpenAIService(cfg OpenAIConfig) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &OpenAIService{
		client:   openai.NewClient(opts...),
		model:    model,
		language: cfg.Language,
		timeout:  timeout,
	}, nil
}

func (s *OpenAIService) Name() string {
	return "openai-" + s.model
}

func (s *OpenAIService) Transcribe(ctx context.Context, audioPath string) (*Response, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModel(s.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if s.language != "" {
		params.Language = openai.String(s.language)
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	out := parseVerboseJSON(resp.RawJSON())
	if out.Text == "" {
		out.Text = resp.Text
	}
	return out, nil
}

// parseVerboseJSON reads text, language and segments from a verbose_json body.
func parseVerboseJSON(raw string) *Response {
	out := &Response{
		Text:     gjson.Get(raw, "text").String(),
		Language: gjson.Get(raw, "language").String(),
	}
	gjson.Get(raw, "segments").ForEach(func(_, seg gjson.Result) bool {
		out.Segments = append(out.Segments, Segment{
			Start: seg.Get("start").Float(),
			End:   seg.Get("end").Float(),
			Text:  seg.Get("text").String(),
		})
		return true
	})
	return out
}
