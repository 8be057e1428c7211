package stt

import "context"

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe transcribes a locally stored audio file. A provider that
	// recognizes no speech returns a Result with an empty Transcript and a
	// nil error; only transport, decoding or API failures are errors.
	Transcribe(ctx context.Context, audioPath string) (*Result, error)

	// Name returns the name of the provider (e.g., "whisper_server", "openai")
	Name() string
}
