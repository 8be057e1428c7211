package stt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voxdrop/internal/config"
)

// CreateProvider creates the STT provider selected by cfg.STTProvider.
func CreateProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	providerName := strings.ToLower(strings.TrimSpace(cfg.STTProvider))
	if providerName == "" {
		providerName = "whisper_server"
	}

	log.Info("creating STT provider", zap.String("provider", providerName))

	switch providerName {
	case "whisper_server", "whisper":
		return createWhisperServerProvider(cfg, log)
	case "openai":
		return createOpenAIProvider(cfg, log)
	case "fpt":
		return createFPTProvider(cfg, log)
	case "google":
		return createGoogleProvider(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s. Supported: whisper_server, openai, fpt, google", providerName)
	}
}

func createWhisperServerProvider(cfg *config.Config, log *zap.Logger) (Provider, error) {
	if cfg.WhisperServerURL == "" {
		return nil, fmt.Errorf("WHISPER_SERVER_URL is not set")
	}
	return NewWhisperServerProvider(WhisperServerConfig{
		BaseURL:  cfg.WhisperServerURL,
		Model:    cfg.WhisperModel,
		Language: cfg.STTLanguage,
		Timeout:  cfg.STTTimeout,
	}, log), nil
}

func createOpenAIProvider(cfg *config.Config, log *zap.Logger) (Provider, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAISTTModel, cfg.STTLanguage, cfg.STTTimeout, log), nil
}

func createFPTProvider(cfg *config.Config, log *zap.Logger) (Provider, error) {
	if cfg.FPTApiKey == "" {
		return nil, fmt.Errorf("FPT_AI_API_KEY environment variable is not set")
	}
	url := cfg.FPTSTTURL
	if url == "" {
		url = "https://api.fpt.ai/hmi/asr/v1"
	}
	return NewFPTProvider(cfg.FPTApiKey, url, cfg.STTTimeout, log), nil
}

// createGoogleProvider creates a Google STT provider
// GOOGLE_STT_KEY_FILE can be either:
//   - An API key (39 characters, typically starts with "AIzaSy")
//   - A file path to a JSON key file (e.g., "./keys/google-service-account.json")
//   - A JSON string containing the service account credentials
func createGoogleProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (Provider, error) {
	if !isGoogleAPIKey(cfg.GoogleKeyFile) && cfg.GoogleProjectID == "" {
		return nil, fmt.Errorf("GOOGLE_STT_PROJECT_ID environment variable is required when using service account")
	}
	return NewGoogleProvider(ctx, cfg.GoogleProjectID, cfg.GoogleKeyFile, cfg.STTLanguage, cfg.STTTimeout, log)
}
