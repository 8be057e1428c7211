package stt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider transcribes audio with the OpenAI audio transcription API.
type OpenAIProvider struct {
	client   *openai.Client
	model    string
	language string
	log      *zap.Logger
}

// NewOpenAIProvider creates an OpenAI transcription provider. An empty
// baseURL keeps the client's default endpoint.
func NewOpenAIProvider(apiKey, baseURL, model, language string, timeout time.Duration, log *zap.Logger) *OpenAIProvider {
	if log == nil {
		log = zap.NewNop()
	}
	if model == "" {
		model = openai.Whisper1
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
		log:      log.Named("stt.openai"),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Transcribe uploads the audio file and returns the recognized text.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	startTime := time.Now()

	req := openai.AudioRequest{
		Model:    p.model,
		FilePath: audioPath,
		Language: shortLanguage(p.language),
		Format:   openai.AudioResponseFormatJSON,
	}

	p.log.Debug("calling createTranscription", zap.String("path", audioPath), zap.String("model", p.model))

	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("createTranscription failed: %w", err)
	}

	result := &Result{
		Transcript: strings.TrimSpace(resp.Text),
		Provider:   p.Name(),
	}

	p.log.Info("transcription finished",
		zap.Int("length", len(result.Transcript)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return result, nil
}

// shortLanguage turns a BCP-47 tag like "ko-KR" into the ISO-639-1 code
// the Whisper endpoints expect.
func shortLanguage(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return strings.ToLower(lang[:i])
	}
	return strings.ToLower(lang)
}
