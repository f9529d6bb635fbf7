package dedup

import "testing"

func TestWordLevelOverlap(t *testing.T) {
	d := NewRollingWindow(Config{})
	if out, over := d.Deduplicate("a b c"); out != "a b c" || over {
		t.Fatalf("first chunk must pass through, got %q over=%v", out, over)
	}
	out, over := d.Deduplicate("b c d")
	if out != "d" || !over {
		t.Fatalf("expected (\"d\", true), got (%q, %v)", out, over)
	}
}

func TestNoOverlapAppends(t *testing.T) {
	d := NewRollingWindow(Config{})
	d.Deduplicate("the quick brown fox")
	out, over := d.Deduplicate("jumps over the lazy dog")
	if over || out != "jumps over the lazy dog" {
		t.Fatalf("expected untouched chunk, got (%q, %v)", out, over)
	}
}

func TestEmptyChunkPassesThrough(t *testing.T) {
	d := NewRollingWindow(Config{})
	if out, over := d.Deduplicate("   "); out != "   " || over {
		t.Fatalf("whitespace chunk must pass unchanged, got (%q, %v)", out, over)
	}
}

func TestOverlapCaseInsensitive(t *testing.T) {
	d := NewRollingWindow(Config{})
	d.Deduplicate("We Should Meet Tomorrow")
	out, over := d.Deduplicate("meet tomorrow at noon")
	if !over || out != "at noon" {
		t.Fatalf("expected case-insensitive overlap strip, got (%q, %v)", out, over)
	}
}

func TestWindowCapsBuffer(t *testing.T) {
	d := NewRollingWindow(Config{WindowChars: 20})
	d.Deduplicate("one two three four five six seven eight")
	if len(d.Buffer()) > 20 {
		t.Fatalf("buffer exceeded window: %d chars", len(d.Buffer()))
	}
}

func TestReset(t *testing.T) {
	d := NewRollingWindow(Config{})
	d.Deduplicate("hello there")
	d.Reset()
	out, over := d.Deduplicate("hello there")
	if over || out != "hello there" {
		t.Fatalf("expected fresh state after reset, got (%q, %v)", out, over)
	}
}
