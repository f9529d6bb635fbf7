package tone

import (
	"regexp"
	"strings"
)

// Transformer applies whole-word, case-insensitive substitutions from the
// selected mode's table, then collapses whitespace. Neutral (and any
// unknown mode) is the identity transform.
type Transformer struct {
	mode     Mode
	compiled []compiledRule
}

type compiledRule struct {
	re *regexp.Regexp
	to string
}

func NewTransformer(mode Mode) *Transformer {
	rules := rulesFor(mode)
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		compiled = append(compiled, compiledRule{
			re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r.from) + `\b`),
			to: r.to,
		})
	}
	return &Transformer{mode: mode, compiled: compiled}
}

func (t *Transformer) Mode() Mode { return t.mode }

func (t *Transformer) Transform(text string) string {
	if text == "" {
		return text
	}
	out := text
	for _, r := range t.compiled {
		out = r.re.ReplaceAllString(out, r.to)
	}
	return strings.Join(strings.Fields(out), " ")
}
