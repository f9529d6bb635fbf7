package disfluency

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voxkit/dictate/pkg/dedup"
	"github.com/voxkit/dictate/pkg/logging"
	"github.com/voxkit/dictate/pkg/messages"
)

// Worker is the streaming disfluency stage for one session. It keeps a
// small sliding token context so repetitions that straddle chunk
// boundaries are caught without reprocessing full history, and runs each
// chunk through the rolling-window deduplicator before cleaning.
type Worker struct {
	cfg     Config
	cleaner *Cleaner
	window  *dedup.RollingWindow
	context []string
	logger  *slog.Logger
}

func NewWorker(cfg Config, window *dedup.RollingWindow) *Worker {
	cfg.applyDefaults()
	if window == nil {
		window = dedup.NewRollingWindow(dedup.Config{})
	}
	return &Worker{
		cfg:     cfg,
		cleaner: NewCleaner(cfg),
		window:  window,
		logger:  logging.NewComponentLogger(slog.Default(), "disfluency"),
	}
}

func (w *Worker) Name() string { return "disfluency" }

// Process handles one message. END_ASR closes the utterance with a single
// END_CLEAN and clears all per-session state. AUTO_STOP passes through
// untouched; the coordinator always follows it with END_ASR, which alone
// drives the terminal chain. A chunk fully swallowed by deduplication
// produces no output.
func (w *Worker) Process(_ context.Context, msg messages.Message) ([]messages.Message, error) {
	switch msg.Event {
	case messages.EventEndASR:
		w.context = nil
		w.window.Reset()
		return []messages.Message{messages.NewControl(msg.ID, messages.EventEndClean, msg.EndOfSpeechMS)}, nil
	case messages.EventPart:
	default:
		return []messages.Message{msg}, nil
	}

	chunk, overlap := w.window.Deduplicate(msg.Text)
	if overlap {
		w.logger.Debug("overlap_stripped", "session_id", msg.ID, "chunk_index", msg.ChunkIndex)
	}
	if strings.TrimSpace(chunk) == "" {
		return nil, nil
	}
	chunk = strings.TrimSpace(chunk)

	combined := chunk
	if len(w.context) > 0 {
		combined = detokenize(w.context) + " " + chunk
	}
	cleanedTokens := tokenize(w.cleaner.Clean(combined))

	var newTokens []string
	if len(cleanedTokens) > len(w.context) {
		newTokens = cleanedTokens[len(w.context):]
	}

	if len(cleanedTokens) > w.cfg.ContextTokens {
		w.context = cleanedTokens[len(cleanedTokens)-w.cfg.ContextTokens:]
	} else {
		w.context = cleanedTokens
	}
	if msg.IsFinal {
		w.context = nil
	}

	out := msg
	out.Text = detokenize(newTokens)
	return []messages.Message{out}, nil
}
