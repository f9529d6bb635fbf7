package fusion

import "testing"

func TestRemoveDuplicateSentences(t *testing.T) {
	p := NewProcessor()
	got := p.Process("We shipped the release. We shipped the release. It went well.")
	if got != "We shipped the release. It went well." {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestShortSentencesKept(t *testing.T) {
	p := NewProcessor()
	got := p.Process("Ship it. We reviewed the branch today. Done.")
	if got != "Ship it. We reviewed the branch today. Done." {
		t.Fatalf("short sentences must survive dedup: %q", got)
	}
}

func TestGrammarCleanup(t *testing.T) {
	p := NewProcessor()
	cases := map[string]string{
		"they render finish the build yesterday": "They finished rendering the build yesterday.",
		"we reviewed the QI part this morning":   "We reviewed the QA part this morning.",
		"the mean deadline moved to friday":      "The main deadline moved to friday.",
		"they did finished the migration":        "They finished the migration.",
	}
	for in, want := range cases {
		if got := p.Process(in); got != want {
			t.Errorf("Process(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedundantPhrases(t *testing.T) {
	p := NewProcessor()
	got := p.Process("I mean I mean the rollout worked fine")
	if got != "I mean the rollout worked fine." {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestTrailingRepetitionTrimmed(t *testing.T) {
	p := NewProcessor()
	got := p.Process("we met the deadline. early and we met the deadline")
	if got != "We met the deadline. Early and we." {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestCapitalization(t *testing.T) {
	p := NewProcessor()
	got := p.Process("first point here. second point there.")
	if got != "First point here. Second point there." {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestIdempotent(t *testing.T) {
	p := NewProcessor()
	inputs := []string{
		"We shipped the release. We shipped the release. It went well.",
		"they render finish the build",
		"so so so we start now",
		"First point here. Second point there.",
		"plain sentence with nothing to fix",
		// Fragments at or under the dedup length gate must survive
		// every application, not just the first.
		"so so um. it go not review not the so could the. not.",
	}
	for _, in := range inputs {
		once := p.Process(in)
		twice := p.Process(once)
		if once != twice {
			t.Fatalf("fusion not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	p := NewProcessor()
	if got := p.Process("   "); got != "   " {
		t.Fatalf("whitespace input must pass through, got %q", got)
	}
}
