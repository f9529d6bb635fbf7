package disfluency

import "testing"

func TestCleanConsecutiveDups(t *testing.T) {
	c := NewCleaner(Config{})
	got := c.Clean("I I want want to to go")
	if got != "I want to go" {
		t.Fatalf("expected %q, got %q", "I want to go", got)
	}
}

func TestCleanCouldShouldCollapse(t *testing.T) {
	c := NewCleaner(Config{})
	got := c.Clean("I could I should try harder")
	if got != "I should try harder" {
		t.Fatalf("expected %q, got %q", "I should try harder", got)
	}
}

func TestCleanFillers(t *testing.T) {
	c := NewCleaner(Config{})
	got := c.Clean("um I was thinking that uh we could maybe go")
	if got != "I was thinking that we could maybe go" {
		t.Fatalf("unexpected cleanup: %q", got)
	}
}

func TestCleanImmediateBigramRepeats(t *testing.T) {
	c := NewCleaner(Config{})
	got := c.Clean("I want I want to thank you")
	if got != "I want to thank you" {
		t.Fatalf("expected bigram repeat collapsed, got %q", got)
	}
}

func TestCleanWindowedBigramRepeats(t *testing.T) {
	c := NewCleaner(Config{})
	got := c.Clean("I could I should I could I should try harder")
	if got != "I should try harder" {
		t.Fatalf("expected windowed repeats collapsed, got %q", got)
	}
}

func TestCleanPhraseRepetitions(t *testing.T) {
	c := NewCleaner(Config{})
	got := c.Clean("we should review the plan review the plan")
	if got != "we should review the plan" {
		t.Fatalf("expected phrase repeat collapsed, got %q", got)
	}
}

func TestCleanIdempotent(t *testing.T) {
	c := NewCleaner(Config{})
	inputs := []string{
		"um I I want want to to go",
		"I could I should I could I should try harder",
		"you know what i mean we shipped it and stuff",
		"plain text without any disfluency",
		// Collapsing one repeat can expose another between the survivors.
		"i the so ship review we i the we ship should it we we",
	}
	for _, in := range inputs {
		once := c.Clean(in)
		twice := c.Clean(once)
		if once != twice {
			t.Fatalf("clean not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestCleanEmpty(t *testing.T) {
	c := NewCleaner(Config{})
	if got := c.Clean("   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
