package fusion

import (
	"regexp"
	"strings"
)

// Processor is the final cleanup pass over a fully assembled utterance.
// The steps run in a fixed order and the whole pass is idempotent.
type Processor struct{}

func NewProcessor() *Processor { return &Processor{} }

var (
	sentenceSplitRe   = regexp.MustCompile(`[.!?]+`)
	multiPeriodRe     = regexp.MustCompile(`\.{2,}`)
	multiCommaRe      = regexp.MustCompile(`,{2,}`)
	spaceAfterPunctRe = regexp.MustCompile(`([.!?])([A-Za-z])`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([,.!?])`)
	redundantPhraseRe = regexp.MustCompile(`(?i)\b(I mean|you know|I think|I guess)\s+(I mean|you know|I think|I guess)\b`)
	repeatedSoRe      = regexp.MustCompile(`(?i)\b(so\s+)(so\s+)+`)
	repeatedAndRe     = regexp.MustCompile(`(?i)\b(and\s+)(and\s+)+`)
	capAfterEndRe     = regexp.MustCompile(`([.!?]\s+)([a-z])`)

	renderFinishTheyRe = regexp.MustCompile(`(?i)\bthey\s+render\s+finish\b`)
	renderFinishAnyRe  = regexp.MustCompile(`(?i)\b(\w+)\s+render\s+finish\b`)
	qiPartRe           = regexp.MustCompile(`(?i)\bQI\s+part\b`)
	meanDeadlineRe     = regexp.MustCompile(`(?i)\bthe\s+mean\s+deadline\b`)
	didFinishedRe      = regexp.MustCompile(`(?i)\bdid\s+finished\b`)
	didPastRe          = regexp.MustCompile(`(?i)\bdid\s+(\w+ed)\b`)
)

// Process applies the full fusion pass. Empty or whitespace-only input is
// returned unchanged.
func (p *Processor) Process(fullText string) string {
	if strings.TrimSpace(fullText) == "" {
		return fullText
	}
	text := strings.TrimSpace(fullText)

	text = removeDuplicateSentences(text)
	text = fixSentenceBoundaries(text)
	text = removeRedundantPhrases(text)
	text = grammarCleanup(text)
	text = normalizeSpacing(text)
	text = fixCapitalization(text)
	text = removeTrailingRepetitions(text)
	text = ensureCoherence(text)

	return strings.TrimSpace(text)
}

func removeDuplicateSentences(text string) string {
	sentences := sentenceSplitRe.Split(text, -1)
	seen := make(map[string]bool)
	var unique []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		normalized := strings.Join(strings.Fields(strings.ToLower(s)), " ")
		// Short fragments are too ambiguous to deduplicate; keep them
		// as written.
		if len(normalized) <= 5 {
			unique = append(unique, s)
			continue
		}
		if !seen[normalized] {
			seen[normalized] = true
			unique = append(unique, s)
		}
	}
	if len(unique) == 0 {
		return text
	}
	return strings.Join(unique, ". ") + "."
}

func fixSentenceBoundaries(text string) string {
	text = multiPeriodRe.ReplaceAllString(text, ".")
	text = multiCommaRe.ReplaceAllString(text, ",")
	text = spaceAfterPunctRe.ReplaceAllString(text, "$1 $2")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return text
}

func removeRedundantPhrases(text string) string {
	text = redundantPhraseRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := strings.Fields(m)
		half := len(parts) / 2
		first := strings.Join(parts[:half], " ")
		second := strings.Join(parts[half:], " ")
		if strings.EqualFold(first, second) {
			return first
		}
		return m
	})
	text = repeatedSoRe.ReplaceAllString(text, "$1")
	text = repeatedAndRe.ReplaceAllString(text, "$1")
	return text
}

func grammarCleanup(text string) string {
	text = renderFinishTheyRe.ReplaceAllString(text, "they finished rendering")
	text = renderFinishAnyRe.ReplaceAllString(text, "$1 finished rendering")
	text = qiPartRe.ReplaceAllString(text, "QA part")
	text = meanDeadlineRe.ReplaceAllString(text, "the main deadline")
	text = didFinishedRe.ReplaceAllString(text, "finished")
	text = didPastRe.ReplaceAllString(text, "$1")
	return text
}

func normalizeSpacing(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func fixCapitalization(text string) string {
	if text == "" {
		return text
	}
	text = strings.ToUpper(text[:1]) + text[1:]
	return capAfterEndRe.ReplaceAllStringFunc(text, strings.ToUpper)
}

// removeTrailingRepetitions drops the last three words when the same
// phrase already occurs earlier in the text.
func removeTrailingRepetitions(text string) string {
	words := strings.Fields(text)
	if len(words) < 4 {
		return text
	}
	last3 := strings.ToLower(strings.Join(words[len(words)-3:], " "))
	body := strings.ToLower(strings.Join(words[:len(words)-3], " "))
	if strings.Contains(body, last3) {
		return strings.Join(words[:len(words)-3], " ")
	}
	return text
}

// ensureCoherence drops a sentence that likely contradicts one of the last
// three kept sentences: it contains "not", the earlier one does not, and
// the two share more than three words.
func ensureCoherence(text string) string {
	sentences := sentenceSplitRe.Split(text, -1)
	var kept []string
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, strings.TrimSpace(s))
		}
	}
	if len(kept) < 2 {
		return text
	}

	var cleaned []string
	for _, sentence := range kept {
		contradiction := false
		start := len(cleaned) - 3
		if start < 0 {
			start = 0
		}
		for _, prev := range cleaned[start:] {
			if containsWord(sentence, "not") && !containsWord(prev, "not") &&
				sharedWordCount(sentence, prev) > 3 {
				contradiction = true
				break
			}
		}
		if !contradiction {
			cleaned = append(cleaned, sentence)
		}
	}
	if len(cleaned) == 0 {
		return text
	}
	return strings.Join(cleaned, ". ") + "."
}

func containsWord(s, word string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if w == word {
			return true
		}
	}
	return false
}

func sharedWordCount(a, b string) int {
	setA := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(a)) {
		setA[w] = true
	}
	count := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(b)) {
		if setA[w] && !seen[w] {
			seen[w] = true
			count++
		}
	}
	return count
}
