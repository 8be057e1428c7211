package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVEfmt fake audio"), 0o644))
	return path
}

func TestFPTProvider_Transcribe(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    string
		wantText   string
		wantConfid float64
	}{
		{
			name:       "best hypothesis",
			status:     http.StatusOK,
			body:       `{"hypotheses":[{"utterance":" xin chào ","confidence":0.9},{"utterance":"other","confidence":0.1}]}`,
			wantText:   "xin chào",
			wantConfid: 0.9,
		},
		{
			name:     "no hypotheses is empty text",
			status:   http.StatusOK,
			body:     `{"hypotheses":[]}`,
			wantText: "",
		},
		{
			name:    "api error code",
			status:  http.StatusOK,
			body:    `{"errorCode":7,"message":"quota exceeded"}`,
			wantErr: "FPT.AI API error 7: quota exceeded",
		},
		{
			name:    "http error",
			status:  http.StatusUnauthorized,
			body:    `bad key`,
			wantErr: "status 401",
		},
		{
			name:    "invalid json",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: "failed to parse FPT.AI response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "secret", r.Header.Get("api-key"))
				body, _ := io.ReadAll(r.Body)
				assert.Contains(t, string(body), "fake audio")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewFPTProvider("secret", srv.URL, 5*time.Second, nil)
			res, err := p.Transcribe(context.Background(), writeAudio(t, "a.wav"))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "fpt", res.Provider)
			assert.Equal(t, tt.wantText, res.Transcript)
			assert.Equal(t, tt.wantConfid, res.Confidence)
		})
	}
}

func TestFPTProvider_MissingFile(t *testing.T) {
	p := NewFPTProvider("secret", "http://127.0.0.1:1", time.Second, nil)
	_, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorContains(t, err, "failed to read audio file")
}

func TestWhisperServerProvider_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inference", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "json", r.FormValue("response_format"))
		assert.Equal(t, "ko", r.FormValue("language"))
		assert.Equal(t, "small", r.FormValue("model"))

		f, fh, err := r.FormFile("file")
		if assert.NoError(t, err) {
			f.Close()
			assert.Equal(t, "memo.wav", fh.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" 회의는 세 시입니다.\n"}`))
	}))
	defer srv.Close()

	p := NewWhisperServerProvider(WhisperServerConfig{
		BaseURL:  srv.URL + "/",
		Model:    "small",
		Language: "ko-KR",
		Timeout:  5 * time.Second,
	}, nil)

	res, err := p.Transcribe(context.Background(), writeAudio(t, "memo.wav"))
	require.NoError(t, err)
	assert.Equal(t, "whisper_server", res.Provider)
	assert.Equal(t, "회의는 세 시입니다.", res.Transcript)
}

func TestWhisperServerProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "boom", "status 500"},
		{"error field", http.StatusOK, `{"error":"failed to read WAV file"}`, "failed to read WAV file"},
		{"bad json", http.StatusOK, `<html>`, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewWhisperServerProvider(WhisperServerConfig{BaseURL: srv.URL}, nil)
			_, err := p.Transcribe(context.Background(), writeAudio(t, "a.wav"))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOpenAIProvider_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "ko", r.FormValue("language"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "내일 오전 열 시 미팅"})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "", "ko-KR", 5*time.Second, nil)
	res, err := p.Transcribe(context.Background(), writeAudio(t, "a.wav"))
	require.NoError(t, err)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "내일 오전 열 시 미팅", res.Transcript)
}

func TestOpenAIProvider_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-bad", srv.URL+"/v1", "whisper-1", "", 5*time.Second, nil)
	_, err := p.Transcribe(context.Background(), writeAudio(t, "a.wav"))
	assert.ErrorContains(t, err, "createTranscription failed")
}

func TestGoogleProvider_APIKey(t *testing.T) {
	apiKey := "AIzaSy" + strings.Repeat("k", 33)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech:recognize", r.URL.Path)
		assert.Equal(t, apiKey, r.URL.Query().Get("key"))

		var req GoogleSTTRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "MP3", req.Config.Encoding)
		assert.Equal(t, "ko-KR", req.Config.LanguageCode)
		assert.NotEmpty(t, req.Audio.Content)

		_, _ = w.Write([]byte(`{"results":[
			{"alternatives":[{"transcript":"첫 번째","confidence":0.8}]},
			{"alternatives":[]},
			{"alternatives":[{"transcript":" 두 번째 ","confidence":0.7}]}
		]}`))
	}))
	defer srv.Close()

	p, err := NewGoogleProvider(context.Background(), "", apiKey, "ko-KR", 5*time.Second, nil)
	require.NoError(t, err)
	p.endpoint = srv.URL

	res, err := p.Transcribe(context.Background(), writeAudio(t, "a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "첫 번째 두 번째", res.Transcript)
	assert.Equal(t, 0.8, res.Confidence)
}

func TestGoogleProvider_APIError(t *testing.T) {
	apiKey := "AIzaSy" + strings.Repeat("k", 33)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API not enabled","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	p, err := NewGoogleProvider(context.Background(), "", apiKey, "", 5*time.Second, nil)
	require.NoError(t, err)
	p.endpoint = srv.URL

	_, err = p.Transcribe(context.Background(), writeAudio(t, "a.wav"))
	assert.ErrorContains(t, err, "API not enabled")
}

func TestGoogleAudioConfig(t *testing.T) {
	enc, rate := getGoogleAudioConfig(".OGG")
	assert.Equal(t, "OGG_OPUS", enc)
	assert.Equal(t, 48000, rate)

	enc, rate = getGoogleAudioConfig(".webm")
	assert.Equal(t, "LINEAR16", enc)
	assert.Equal(t, 16000, rate)
}
