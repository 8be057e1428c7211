package stt

import (
	"context"
	"errors"
	"strings"
)

// NoRecognizedText replaces an empty transcript so that a successful
// outcome never carries an empty string.
const NoRecognizedText = "(no recognized text)"

// Result represents the result of a speech-to-text transcription
type Result struct {
	Transcript  string  // The transcribed text
	Confidence  float64 // Confidence score (0.0-1.0), may be 0 if not provided
	Provider    string  // The provider used (e.g., "fpt", "google")
	RawResponse string  // Raw response from the provider (for debugging/logging)
}

// Outcome is the result of one transcription attempt: either non-empty
// Text, or a failure reason in Err.
type Outcome struct {
	Text     string
	Provider string
	Err      error
}

// OK reports whether the transcription succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Succeeded builds a successful outcome, substituting NoRecognizedText for
// empty text.
func Succeeded(provider, text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		text = NoRecognizedText
	}
	return Outcome{Text: text, Provider: provider}
}

// Failed builds a failed outcome.
func Failed(provider string, err error) Outcome {
	if err == nil {
		err = errors.New("transcription failed")
	}
	return Outcome{Provider: provider, Err: err}
}

// Run transcribes audioPath with p and folds the (*Result, error) pair into
// an Outcome.
func Run(ctx context.Context, p Provider, audioPath string) Outcome {
	if p == nil {
		return Failed("", errors.New("no STT provider configured"))
	}
	res, err := p.Transcribe(ctx, audioPath)
	if err != nil {
		return Failed(p.Name(), err)
	}
	if res == nil {
		return Succeeded(p.Name(), "")
	}
	return Succeeded(p.Name(), res.Transcript)
}
