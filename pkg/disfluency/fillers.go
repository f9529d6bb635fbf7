package disfluency

import (
	"regexp"
	"strings"
)

// DefaultFillers are the single-word and short filler expressions removed
// before repetition cleanup. The list is configurable per deployment.
var DefaultFillers = []string{
	"um", "umm", "uh", "uhh", "er", "ah", "hmm", "mhm",
	"like", "you know", "i mean", "kind of", "sort of",
	"basically", "actually", "literally",
}

// fillerPhrases are aggressive multi-word patterns removed after the
// word-list pass.
var fillerPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\byou\s+know\s+what\s+i\s+mean\b`),
	regexp.MustCompile(`(?i)\bif\s+that\s+makes\s+sense\b`),
	regexp.MustCompile(`(?i)\bstuff\s+like\s+that\b`),
	regexp.MustCompile(`(?i)\band\s+stuff\b`),
	regexp.MustCompile(`(?i)\band\s+things\b`),
	regexp.MustCompile(`(?i)\bor\s+whatever\b`),
	regexp.MustCompile(`(?i)\byou\s+get\s+me\b`),
	regexp.MustCompile(`(?i)\bi\s+feel\s+like\b`),
	regexp.MustCompile(`(?i)\bi'm\s+like\b`),
}

func compileFillerPattern(fillers []string) *regexp.Regexp {
	if len(fillers) == 0 {
		fillers = DefaultFillers
	}
	escaped := make([]string, 0, len(fillers))
	for _, w := range fillers {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

func removeFillers(pattern *regexp.Regexp, text string) string {
	cleaned := pattern.ReplaceAllString(text, " ")
	for _, phrase := range fillerPhrases {
		cleaned = phrase.ReplaceAllString(cleaned, " ")
	}
	return normalizeText(cleaned)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
