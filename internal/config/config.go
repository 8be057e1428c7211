package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Debug     bool
	UploadDir string

	STTProvider string
	STTLanguage string
	STTTimeout  time.Duration

	WhisperServerURL string
	WhisperModel     string

	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAISTTModel string

	FPTApiKey string
	FPTSTTURL string

	GoogleProjectID string
	GoogleKeyFile   string
}

// LoadEnv loads a .env file from the working directory if one exists.
// A missing file is not an error; variables may be set system-wide.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env", ".env.local"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("error loading %s file: %w", p, err)
		}
		return nil
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "4040"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),

		STTProvider: strings.ToLower(getEnv("STT_PROVIDER", "whisper_server")),
		STTLanguage: os.Getenv("STT_LANGUAGE"),

		WhisperServerURL: getEnv("WHISPER_SERVER_URL", "http://127.0.0.1:8178"),
		WhisperModel:     getEnv("WHISPER_MODEL", "small"),

		OpenAIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OpenAISTTModel: getEnv("OPENAI_STT_MODEL", "whisper-1"),

		FPTApiKey: os.Getenv("FPT_AI_API_KEY"),
		FPTSTTURL: getEnv("FPT_AI_STT_URL", "https://api.fpt.ai/hmi/asr/v1"),

		GoogleProjectID: os.Getenv("GOOGLE_STT_PROJECT_ID"),
		GoogleKeyFile:   os.Getenv("GOOGLE_STT_KEY_FILE"),
	}

	debug, err := getBool("DEBUG", false)
	if err != nil {
		return nil, err
	}
	cfg.Debug = debug

	timeout, err := time.ParseDuration(getEnv("STT_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STT_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid STT_TIMEOUT: must be positive, got %s", timeout)
	}
	cfg.STTTimeout = timeout

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	// Backend credentials are validated by stt.CreateProvider, which knows
	// which of them the selected provider needs.

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
