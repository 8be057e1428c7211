package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WhisperServerConfig configures a whisper.cpp whisper-server backend.
type WhisperServerConfig struct {
	BaseURL       string        // e.g. "http://127.0.0.1:8178"
	InferencePath string        // default "/inference"
	Model         string        // sent as "model"; whisper.cpp ignores it, OpenAI-compatible servers use it
	Language      string        // "" = auto-detect
	Temperature   float64       // decoding temperature
	Timeout       time.Duration // request timeout
}

// WhisperServerProvider transcribes audio via HTTP to a whisper-server instance.
type WhisperServerProvider struct {
	cfg    WhisperServerConfig
	client *http.Client
	log    *zap.Logger
}

type whisperServerResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewWhisperServerProvider creates a whisper-server provider.
func NewWhisperServerProvider(cfg WhisperServerConfig, log *zap.Logger) *WhisperServerProvider {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.InferencePath == "" {
		cfg.InferencePath = "/inference"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &WhisperServerProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.Named("stt.whisper_server"),
	}
}

// Name returns the provider name
func (p *WhisperServerProvider) Name() string {
	return "whisper_server"
}

// Transcribe posts the audio file as multipart form data to the inference
// endpoint and returns the recognized text.
func (p *WhisperServerProvider) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	startTime := time.Now()

	body, contentType, err := p.buildForm(audioPath)
	if err != nil {
		return nil, err
	}

	endpoint := p.cfg.BaseURL + p.cfg.InferencePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	p.log.Debug("calling inference endpoint", zap.String("url", endpoint), zap.String("path", audioPath))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to whisper-server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper-server returned status %d: %s", resp.StatusCode, preview(raw))
	}

	var parsed whisperServerResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse whisper-server response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("whisper-server error: %s", parsed.Error)
	}

	result := &Result{
		Transcript:  strings.TrimSpace(parsed.Text),
		Provider:    p.Name(),
		RawResponse: string(raw),
	}

	p.log.Info("transcription finished",
		zap.String("language", parsed.Language),
		zap.Int("length", len(result.Transcript)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return result, nil
}

func (p *WhisperServerProvider) buildForm(audioPath string) (io.Reader, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio file: %w", err)
	}

	fields := map[string]string{
		"response_format": "json",
		"temperature":     fmt.Sprintf("%.2f", p.cfg.Temperature),
	}
	if p.cfg.Language != "" {
		fields["language"] = shortLanguage(p.cfg.Language)
	}
	if p.cfg.Model != "" {
		fields["model"] = p.cfg.Model
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
