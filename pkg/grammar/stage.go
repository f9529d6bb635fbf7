package grammar

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/voxkit/dictate/pkg/adapters/gec"
	"github.com/voxkit/dictate/pkg/logging"
	"github.com/voxkit/dictate/pkg/messages"
)

// Stage corrects grammar chunk by chunk. Each chunk is corrected together
// with the tail of the previous corrected text so fixes can span chunk
// boundaries, then the newly corrected part is extracted and formatted.
// A nil corrector degrades to formatting only.
type Stage struct {
	corrector gec.Corrector
	prevTail  string
	logger    *slog.Logger
}

func NewStage(corrector gec.Corrector) *Stage {
	return &Stage{
		corrector: corrector,
		logger:    logging.NewComponentLogger(slog.Default(), "grammar"),
	}
}

func (s *Stage) Name() string { return "grammar" }

// Process corrects PART chunks in place and converts END_CLEAN into a
// single END_GRAMMAR. Correction failures fall back to plain formatting;
// they never break the chain. Other events pass through unchanged.
func (s *Stage) Process(ctx context.Context, msg messages.Message) ([]messages.Message, error) {
	switch msg.Event {
	case messages.EventEndClean:
		s.prevTail = ""
		return []messages.Message{messages.NewControl(msg.ID, messages.EventEndGrammar, msg.EndOfSpeechMS)}, nil
	case messages.EventPart:
	default:
		return []messages.Message{msg}, nil
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil, nil
	}

	out := msg
	out.Text = s.correctChunk(ctx, msg.ID, text, msg.IsFinal)
	return []messages.Message{out}, nil
}

func (s *Stage) correctChunk(ctx context.Context, id, text string, isFinal bool) string {
	if s.corrector == nil {
		return applyFormatting(text, isFinal)
	}

	contextText := text
	if s.prevTail != "" {
		contextText = s.prevTail + " " + text
	}

	corrected, err := s.corrector.Correct(ctx, contextText)
	if err != nil {
		s.logger.Warn("grammar_correct_failed", "session_id", id, "error", err)
		return applyFormatting(text, isFinal)
	}

	newPart := extractNewPart(corrected, s.prevTail)
	s.prevTail = lastSentence(corrected)
	if isFinal {
		s.prevTail = ""
	}
	return applyFormatting(newPart, isFinal)
}

// extractNewPart strips the previously corrected context from the front
// of the corrected text. When the corrector rewrote the context beyond
// recognition the whole output is kept.
func extractNewPart(corrected, prevTail string) string {
	if prevTail == "" {
		return corrected
	}
	if idx := strings.Index(corrected, prevTail); idx >= 0 {
		return strings.TrimSpace(corrected[idx+len(prevTail):])
	}
	return corrected
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+`)

func lastSentence(text string) string {
	parts := sentenceEndRe.Split(text, -1)
	for i := len(parts) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(parts[i]); s != "" {
			return s
		}
	}
	return strings.TrimSpace(text)
}

// incompleteEndings are suffixes after which a mid-utterance chunk is
// still expecting a continuation, so no period is added yet.
var incompleteEndings = []string{"and", "or", "but", "to", "if", "that", "which", "(", ","}

func applyFormatting(text string, isFinal bool) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	text = strings.ToUpper(text[:1]) + text[1:]

	if isFinal {
		switch text[len(text)-1] {
		case '.', '!', '?':
			return text
		}
		return text + "."
	}

	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	}
	words := strings.Fields(text)
	if len(words) <= 2 {
		return text
	}
	last := strings.ToLower(strings.TrimRight(words[len(words)-1], ".,!?"))
	for _, ending := range incompleteEndings {
		if strings.HasSuffix(last, ending) {
			return text
		}
	}
	return text + "."
}
