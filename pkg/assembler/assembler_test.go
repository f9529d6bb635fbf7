package assembler

import (
	"context"
	"testing"

	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/tone"
)

func part(id string, idx int, text string) messages.Message {
	return messages.Message{ID: id, ChunkIndex: idx, Text: text, Event: messages.EventPart}
}

func TestPreviewPerChunk(t *testing.T) {
	a := New(tone.NewTransformer(tone.ModeFormal))
	out, err := a.Process(context.Background(), part("s1", 0, "gonna ship it"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one preview, got %d", len(out))
	}
	got := out[0]
	if got.Event != messages.EventPreviewTone || got.IsFinal {
		t.Fatalf("unexpected preview message: %+v", got)
	}
	if got.Text != "will ship it" {
		t.Fatalf("preview not toned: %q", got.Text)
	}
	if got.EndOfSpeechMS != 0 {
		t.Fatalf("preview must not carry end-of-speech time")
	}
}

func TestEmptyChunkDropped(t *testing.T) {
	a := New(nil)
	out, err := a.Process(context.Background(), part("s1", 0, "   "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("empty chunk must produce no output, got %d messages", len(out))
	}
}

func TestOutOfOrderAssembly(t *testing.T) {
	a := New(nil)
	for _, m := range []messages.Message{
		part("s1", 2, "back by friday"),
		part("s1", 0, "we need the results"),
		part("s1", 1, "results from the lab"),
	} {
		if _, err := a.Process(context.Background(), m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	end := messages.NewControl("s1", messages.EventEndGrammar, 1234.5)
	out, err := a.Process(context.Background(), end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one END_TONE, got %d", len(out))
	}
	got := out[0]
	if got.Event != messages.EventEndTone || !got.IsFinal || got.ChunkIndex != messages.ChunkIndexFinal {
		t.Fatalf("unexpected final message: %+v", got)
	}
	// "results results" across the 0/1 boundary collapses to one word.
	if got.Text != "we need the results from the lab back by friday." {
		t.Fatalf("unexpected assembled text: %q", got.Text)
	}
	if got.EndOfSpeechMS != 1234.5 {
		t.Fatalf("end-of-speech time not preserved: %v", got.EndOfSpeechMS)
	}
}

func TestStateClearedAfterFinal(t *testing.T) {
	a := New(nil)
	if _, err := a.Process(context.Background(), part("s1", 0, "first utterance")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Process(context.Background(), messages.NewControl("s1", messages.EventEndGrammar, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := a.Process(context.Background(), messages.NewControl("s1", messages.EventEndGrammar, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Text != "" {
		t.Fatalf("second final must assemble from empty state, got %+v", out)
	}
}

func TestTerminalPunctuation(t *testing.T) {
	a := New(nil)
	if _, err := a.Process(context.Background(), part("s1", 0, "already done!")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, _ := a.Process(context.Background(), messages.NewControl("s1", messages.EventEndGrammar, 0))
	if out[0].Text != "already done!" {
		t.Fatalf("existing punctuation must be kept: %q", out[0].Text)
	}
}

func TestPassThrough(t *testing.T) {
	a := New(nil)
	stop := messages.Message{ID: "s1", ChunkIndex: messages.ChunkIndexAutoStop, Event: messages.EventAutoStop, IsFinal: true}
	out, err := a.Process(context.Background(), stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != stop {
		t.Fatalf("auto-stop must pass through unchanged, got %+v", out)
	}
}
