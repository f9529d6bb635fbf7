package disfluency

import (
	"regexp"
	"strings"
)

type Config struct {
	// ContextTokens is the sliding context kept across chunks.
	ContextTokens int
	// BigramWindow bounds the windowed bigram repeat pass.
	BigramWindow int
	// Fillers overrides the default filler word list.
	Fillers []string
}

func (c *Config) applyDefaults() {
	if c.ContextTokens <= 0 {
		c.ContextTokens = 30
	}
	if c.BigramWindow <= 0 {
		c.BigramWindow = 6
	}
}

// Cleaner removes fillers and repetition patterns from transcript text.
// Clean is idempotent: cleaning already-clean text is a no-op.
type Cleaner struct {
	cfg       Config
	fillerPat *regexp.Regexp
}

func NewCleaner(cfg Config) *Cleaner {
	cfg.applyDefaults()
	return &Cleaner{cfg: cfg, fillerPat: compileFillerPattern(cfg.Fillers)}
}

func (c *Cleaner) Clean(text string) string {
	tokens := tokenize(removeFillers(c.fillerPat, text))
	if len(tokens) == 0 {
		return ""
	}
	// Deleting a repeat can make two surviving tokens adjacent and form
	// a new repeat, so the passes run to a fixpoint. Every pass only
	// removes tokens, which bounds the loop.
	for {
		before := len(tokens)
		tokens = removeConsecutiveDups(tokens)
		tokens = removeImmediateBigramRepeats(tokens)
		tokens = removeWindowedBigramRepeats(tokens, c.cfg.BigramWindow)
		tokens = collapseCouldShould(tokens)
		tokens = removePhraseRepetitions(tokens)
		if len(tokens) == before {
			break
		}
	}
	return detokenize(tokens)
}

func tokenize(s string) []string { return strings.Fields(s) }

func detokenize(tokens []string) string { return strings.Join(tokens, " ") }
