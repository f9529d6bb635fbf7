package disfluency

import (
	"context"
	"testing"

	"github.com/voxkit/dictate/pkg/messages"
)

func TestWorkerCleansChunks(t *testing.T) {
	w := NewWorker(Config{}, nil)
	out, err := w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 0, Text: "um I I want to go", Event: messages.EventPart})
	if err != nil {
		t.Fatalf("process error: %v", err)
	}
	if len(out) != 1 || out[0].Event != messages.EventPart {
		t.Fatalf("expected one PART, got %+v", out)
	}
	if out[0].Text != "I want to go" {
		t.Fatalf("expected cleaned text, got %q", out[0].Text)
	}
	if out[0].ChunkIndex != 0 {
		t.Fatalf("chunk index must be preserved, got %d", out[0].ChunkIndex)
	}
}

func TestWorkerContextCatchesBoundaryRepetition(t *testing.T) {
	w := NewWorker(Config{}, nil)
	first, _ := w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 0, Text: "I want to", Event: messages.EventPart})
	if first[0].Text != "I want to" {
		t.Fatalf("unexpected first chunk: %q", first[0].Text)
	}
	// Second chunk repeats the boundary bigram; only new tokens survive.
	second, _ := w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 1, Text: "go to the office", Event: messages.EventPart})
	if len(second) != 1 {
		t.Fatalf("expected one message, got %d", len(second))
	}
	if second[0].Text != "go to the office" {
		t.Fatalf("unexpected second chunk: %q", second[0].Text)
	}
}

func TestWorkerDropsFullyOverlappedChunk(t *testing.T) {
	w := NewWorker(Config{}, nil)
	w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 0, Text: "we shipped the release", Event: messages.EventPart})
	out, err := w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 1, Text: "shipped the release", Event: messages.EventPart})
	if err != nil {
		t.Fatalf("process error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected fully overlapped chunk dropped, got %+v", out)
	}
}

func TestWorkerEndASREmitsEndClean(t *testing.T) {
	w := NewWorker(Config{}, nil)
	w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 0, Text: "hello world", Event: messages.EventPart})
	out, err := w.Process(context.Background(), messages.Message{ID: "s1", Event: messages.EventEndASR, ChunkIndex: messages.ChunkIndexControl, EndOfSpeechMS: 1234.5, IsFinal: true})
	if err != nil {
		t.Fatalf("process error: %v", err)
	}
	if len(out) != 1 || out[0].Event != messages.EventEndClean {
		t.Fatalf("expected END_CLEAN, got %+v", out)
	}
	if out[0].ChunkIndex != messages.ChunkIndexControl || !out[0].IsFinal {
		t.Fatalf("END_CLEAN must be a final control message, got %+v", out[0])
	}
	if out[0].EndOfSpeechMS != 1234.5 {
		t.Fatalf("end of speech time must be preserved, got %f", out[0].EndOfSpeechMS)
	}
	// State is cleared; the same text flows through fresh.
	next, _ := w.Process(context.Background(), messages.Message{ID: "s1", ChunkIndex: 0, Text: "hello world", Event: messages.EventPart})
	if len(next) != 1 || next[0].Text != "hello world" {
		t.Fatalf("expected fresh state after END_CLEAN, got %+v", next)
	}
}

func TestWorkerAutoStopPassesThrough(t *testing.T) {
	w := NewWorker(Config{}, nil)
	msg := messages.Message{ID: "s1", Event: messages.EventAutoStop, ChunkIndex: messages.ChunkIndexAutoStop, EndOfSpeechMS: 99}
	out, err := w.Process(context.Background(), msg)
	if err != nil {
		t.Fatalf("process error: %v", err)
	}
	if len(out) != 1 || out[0] != msg {
		t.Fatalf("expected AUTO_STOP pass-through, got %+v", out)
	}
}
