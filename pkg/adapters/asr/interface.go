package asr

import (
	"context"

	"github.com/voxkit/dictate/pkg/audio"
)

// Transcriber defines the contract for any ASR vendor implementation.
// Transcription is windowed: one buffered audio snapshot in, one
// hypothesis out.
type Transcriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe runs recognition over the given audio window.
	Transcribe(ctx context.Context, frame audio.Frame) (Result, error)
	// Close releases vendor resources.
	Close() error
}

// Result is a single recognition hypothesis.
type Result struct {
	Text         string
	Confidence   float64
	NoSpeechProb float64
}

// Config contains vendor-agnostic ASR configuration.
type Config struct {
	SessionID  string
	TraceID    string
	SampleRate int
	Language   string
}
