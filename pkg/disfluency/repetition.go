package disfluency

import "strings"

// The repetition passes run in a fixed order; each consumes the previous
// pass's tokens. Comparisons are case-insensitive, output keeps the first
// occurrence's casing.

func removeConsecutiveDups(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	cleaned := tokens[:1]
	for _, tok := range tokens[1:] {
		if !strings.EqualFold(tok, cleaned[len(cleaned)-1]) {
			cleaned = append(cleaned, tok)
		}
	}
	return cleaned
}

// removeImmediateBigramRepeats collapses "A B A B" to "A B".
func removeImmediateBigramRepeats(tokens []string) []string {
	cleaned := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if i+3 < len(tokens) &&
			strings.EqualFold(tokens[i], tokens[i+2]) &&
			strings.EqualFold(tokens[i+1], tokens[i+3]) {
			cleaned = append(cleaned, tokens[i], tokens[i+1])
			i += 4
			continue
		}
		cleaned = append(cleaned, tokens[i])
		i++
	}
	return cleaned
}

// removeWindowedBigramRepeats drops a bigram already seen within the last
// windowSize bigrams, catching alternating patterns like
// "I could I should I could I should".
func removeWindowedBigramRepeats(tokens []string, windowSize int) []string {
	if len(tokens) < 2 {
		return tokens
	}
	cleaned := make([]string, 0, len(tokens))
	recent := make([]string, 0, windowSize)
	for i := 0; i < len(tokens); {
		if i+1 < len(tokens) {
			key := strings.ToLower(tokens[i]) + "\x00" + strings.ToLower(tokens[i+1])
			seen := false
			for _, k := range recent {
				if k == key {
					seen = true
					break
				}
			}
			if seen {
				i += 2
				continue
			}
			cleaned = append(cleaned, tokens[i], tokens[i+1])
			recent = append(recent, key)
			if len(recent) > windowSize {
				recent = recent[1:]
			}
			i += 2
		} else {
			cleaned = append(cleaned, tokens[i])
			i++
		}
	}
	return cleaned
}

// collapseCouldShould drops a leading "I could" when immediately followed
// by "I should", keeping the correction.
func collapseCouldShould(tokens []string) []string {
	if len(tokens) < 4 {
		return tokens
	}
	if strings.EqualFold(tokens[0], "i") &&
		strings.EqualFold(tokens[1], "could") &&
		strings.EqualFold(tokens[2], "i") &&
		strings.EqualFold(tokens[3], "should") {
		return tokens[2:]
	}
	return tokens
}

// removePhraseRepetitions drops an adjacent repeat of a 3-token phrase.
func removePhraseRepetitions(tokens []string) []string {
	if len(tokens) < 6 {
		return tokens
	}
	cleaned := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if i+5 < len(tokens) &&
			strings.EqualFold(tokens[i], tokens[i+3]) &&
			strings.EqualFold(tokens[i+1], tokens[i+4]) &&
			strings.EqualFold(tokens[i+2], tokens[i+5]) {
			cleaned = append(cleaned, tokens[i], tokens[i+1], tokens[i+2])
			i += 6
			continue
		}
		cleaned = append(cleaned, tokens[i])
		i++
	}
	return cleaned
}
