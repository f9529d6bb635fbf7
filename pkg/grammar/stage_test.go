package grammar

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxkit/dictate/pkg/messages"
)

// scriptedCorrector maps inputs to outputs and fails on anything else
// when strict.
type scriptedCorrector struct {
	replies map[string]string
	err     error
	calls   []string
}

func (c *scriptedCorrector) Name() string { return "scripted" }
func (c *scriptedCorrector) Close() error { return nil }

func (c *scriptedCorrector) Correct(_ context.Context, text string) (string, error) {
	c.calls = append(c.calls, text)
	if c.err != nil {
		return "", c.err
	}
	if reply, ok := c.replies[text]; ok {
		return reply, nil
	}
	return text, nil
}

func part(idx int, text string) messages.Message {
	return messages.Message{ID: "s1", ChunkIndex: idx, Text: text, Event: messages.EventPart}
}

func TestCorrectsChunk(t *testing.T) {
	c := &scriptedCorrector{replies: map[string]string{
		"he go to the store": "he goes to the store",
	}}
	s := NewStage(c)

	out, err := s.Process(context.Background(), part(0, "he go to the store"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Text != "He goes to the store." {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestContextSpansChunks(t *testing.T) {
	c := &scriptedCorrector{replies: map[string]string{
		"they was late": "they were late",
	}}
	s := NewStage(c)

	if _, err := s.Process(context.Background(), part(0, "they was late")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Process(context.Background(), part(1, "for the meeting")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second correction must include the tail of the first corrected text.
	if len(c.calls) != 2 || !strings.HasPrefix(c.calls[1], "they were late") {
		t.Fatalf("context not carried into second call: %v", c.calls)
	}
}

func TestCorrectorFailureFallsBackToFormatting(t *testing.T) {
	c := &scriptedCorrector{err: errors.New("model unavailable")}
	s := NewStage(c)

	out, err := s.Process(context.Background(), part(0, "plan looks good overall"))
	if err != nil {
		t.Fatalf("correction failure must not surface: %v", err)
	}
	if out[0].Text != "Plan looks good overall." {
		t.Fatalf("fallback formatting missing: %q", out[0].Text)
	}
}

func TestNilCorrectorFormatsOnly(t *testing.T) {
	s := NewStage(nil)
	out, err := s.Process(context.Background(), part(0, "we shipped on time"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Text != "We shipped on time." {
		t.Fatalf("unexpected output: %q", out[0].Text)
	}
}

func TestIncompleteChunkLeftOpen(t *testing.T) {
	s := NewStage(nil)
	out, _ := s.Process(context.Background(), part(0, "we need to review this and"))
	if out[0].Text != "We need to review this and" {
		t.Fatalf("trailing conjunction must stay unpunctuated: %q", out[0].Text)
	}
}

func TestShortChunkLeftOpen(t *testing.T) {
	s := NewStage(nil)
	out, _ := s.Process(context.Background(), part(0, "hold on"))
	if out[0].Text != "Hold on" {
		t.Fatalf("two-word chunk must stay unpunctuated: %q", out[0].Text)
	}
}

func TestEndCleanBecomesEndGrammar(t *testing.T) {
	s := NewStage(nil)
	s.prevTail = "stale tail"

	out, err := s.Process(context.Background(), messages.NewControl("s1", messages.EventEndClean, 99.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one END_GRAMMAR, got %d", len(out))
	}
	got := out[0]
	if got.Event != messages.EventEndGrammar || !got.IsFinal || got.ChunkIndex != messages.ChunkIndexControl {
		t.Fatalf("unexpected control message: %+v", got)
	}
	if got.EndOfSpeechMS != 99.5 {
		t.Fatalf("end-of-speech time not preserved: %v", got.EndOfSpeechMS)
	}
	if s.prevTail != "" {
		t.Fatalf("tail context not cleared")
	}
}

func TestEmptyChunkDropped(t *testing.T) {
	s := NewStage(nil)
	out, err := s.Process(context.Background(), part(0, "  "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("empty chunk must produce no output, got %+v", out)
	}
}
