package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FPTProvider implements STT using FPT.AI Speech-to-Text API
type FPTProvider struct {
	apiKey string
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewFPTProvider creates a new FPT STT provider
func NewFPTProvider(apiKey, url string, timeout time.Duration, log *zap.Logger) *FPTProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &FPTProvider{
		apiKey: apiKey,
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.Named("stt.fpt"),
	}
}

// Name returns the provider name
func (p *FPTProvider) Name() string {
	return "fpt"
}

// FPTSTTResponse represents FPT.AI STT API response
type FPTSTTResponse struct {
	Hypotheses []struct {
		Utterance  string  `json:"utterance"`
		Confidence float64 `json:"confidence"`
	} `json:"hypotheses"`
	ErrorCode int    `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Transcribe sends audio file to FPT.AI STT API and returns transcript
func (p *FPTProvider) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	startTime := time.Now()

	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	p.log.Debug("processing audio file",
		zap.String("path", audioPath),
		zap.Int("size", len(audioBytes)),
		zap.String("ext", filepath.Ext(audioPath)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(audioBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to FPT.AI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	p.log.Debug("response received", zap.String("preview", preview(body)))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FPT.AI API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var sttResp FPTSTTResponse
	if err := json.Unmarshal(body, &sttResp); err != nil {
		return nil, fmt.Errorf("failed to parse FPT.AI response: %w", err)
	}

	if sttResp.ErrorCode != 0 {
		return nil, fmt.Errorf("FPT.AI API error %d: %s", sttResp.ErrorCode, sttResp.Message)
	}

	result := &Result{
		Provider:    p.Name(),
		RawResponse: string(body),
	}

	if len(sttResp.Hypotheses) == 0 {
		p.log.Info("no hypotheses returned")
		return result, nil
	}

	// First hypothesis is the best one.
	hyp := sttResp.Hypotheses[0]
	result.Transcript = strings.TrimSpace(hyp.Utterance)
	result.Confidence = hyp.Confidence

	p.log.Info("transcription finished",
		zap.Float64("confidence", result.Confidence),
		zap.Int("length", len(result.Transcript)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return result, nil
}

// preview truncates a response body for logs and error messages.
func preview(body []byte) string {
	s := string(body)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
