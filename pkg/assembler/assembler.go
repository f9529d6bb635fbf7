package assembler

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/voxkit/dictate/pkg/logging"
	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/tone"
)

// Assembler collects corrected chunks for one session and produces the
// final toned utterance. Chunks may arrive out of order; assembly sorts
// by chunk index. Each non-empty chunk also yields an immediate preview
// so the client can render partial output before the utterance closes.
type Assembler struct {
	tone   *tone.Transformer
	chunks map[int]string
	logger *slog.Logger
}

func New(transformer *tone.Transformer) *Assembler {
	if transformer == nil {
		transformer = tone.NewTransformer(tone.ModeNeutral)
	}
	return &Assembler{
		tone:   transformer,
		chunks: make(map[int]string),
		logger: logging.NewComponentLogger(slog.Default(), "assembler"),
	}
}

func (a *Assembler) Name() string { return "assembler" }

// Process stores PART chunks and emits PREVIEW_TONE for each, then on
// END_GRAMMAR assembles the full utterance, applies the tone transform,
// and emits exactly one END_TONE. Other events pass through unchanged.
func (a *Assembler) Process(_ context.Context, msg messages.Message) ([]messages.Message, error) {
	switch msg.Event {
	case messages.EventPart:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return nil, nil
		}
		a.chunks[msg.ChunkIndex] = text
		preview := messages.Message{
			ID:         msg.ID,
			ChunkIndex: msg.ChunkIndex,
			Text:       a.tone.Transform(text),
			Event:      messages.EventPreviewTone,
		}
		return []messages.Message{preview}, nil

	case messages.EventEndGrammar:
		full := a.tone.Transform(a.assemble())
		full = ensureTerminalPunct(full)
		a.logger.Debug("utterance_assembled", "session_id", msg.ID, "chunks", len(a.chunks))
		a.chunks = make(map[int]string)
		final := messages.Message{
			ID:            msg.ID,
			ChunkIndex:    messages.ChunkIndexFinal,
			Text:          full,
			Event:         messages.EventEndTone,
			IsFinal:       true,
			EndOfSpeechMS: msg.EndOfSpeechMS,
		}
		return []messages.Message{final}, nil
	}

	return []messages.Message{msg}, nil
}

// assemble joins stored chunks in index order, skipping empty ones and
// collapsing words duplicated across a chunk boundary.
func (a *Assembler) assemble() string {
	indices := make([]int, 0, len(a.chunks))
	for idx := range a.chunks {
		if idx >= 0 {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	var parts []string
	for _, idx := range indices {
		if chunk := strings.TrimSpace(a.chunks[idx]); chunk != "" {
			parts = append(parts, chunk)
		}
	}
	return collapseDupWords(strings.Join(parts, " "))
}

func collapseDupWords(text string) string {
	words := strings.Fields(text)
	var out []string
	for _, w := range words {
		if len(out) > 0 && strings.EqualFold(out[len(out)-1], w) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func ensureTerminalPunct(text string) string {
	if text == "" {
		return text
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}
	return text + "."
}
