package dedup

import (
	"strings"
)

type Config struct {
	// WindowChars is how much trailing text the rolling buffer keeps.
	WindowChars int
	// CompareChars bounds the probe: last CompareChars of the buffer
	// against the first CompareChars of the incoming chunk.
	CompareChars int
	// MaxOverlapWords / MinOverlapWords bound the word-level probe.
	MaxOverlapWords int
	MinOverlapWords int
	// MinCharOverlap is the shortest char-level overlap considered.
	MinCharOverlap int
	// SubstringMinChars is the shortest inner-substring match accepted.
	SubstringMinChars int
}

func (c *Config) applyDefaults() {
	if c.WindowChars <= 0 {
		c.WindowChars = 60
	}
	if c.CompareChars <= 0 {
		c.CompareChars = 30
	}
	if c.MaxOverlapWords <= 0 {
		c.MaxOverlapWords = 8
	}
	if c.MinOverlapWords <= 0 {
		c.MinOverlapWords = 2
	}
	if c.MinCharOverlap <= 0 {
		c.MinCharOverlap = 5
	}
	if c.SubstringMinChars <= 0 {
		c.SubstringMinChars = 10
	}
}

// RollingWindow strips text from incoming chunks that overlaps the tail of
// previously seen text. It keeps a small rolling buffer so out-of-order or
// re-decoded fragments do not duplicate words in the assembled utterance.
type RollingWindow struct {
	cfg    Config
	buffer string
}

func NewRollingWindow(cfg Config) *RollingWindow {
	cfg.applyDefaults()
	return &RollingWindow{cfg: cfg}
}

// Deduplicate removes any detected overlap from the front of chunk and
// returns the remainder plus whether an overlap was found. The rolling
// buffer is updated as a side effect.
func (r *RollingWindow) Deduplicate(chunk string) (string, bool) {
	if strings.TrimSpace(chunk) == "" {
		return chunk, false
	}
	chunk = strings.TrimSpace(chunk)

	if r.buffer == "" {
		r.buffer = tail(chunk, r.cfg.WindowChars)
		return chunk, false
	}

	overlap := r.findOverlap(chunk)
	if overlap != "" {
		deduped := strings.TrimSpace(chunk[len(overlap):])
		r.buffer = tail(r.buffer+deduped, r.cfg.WindowChars)
		return deduped, true
	}

	r.buffer = tail(r.buffer+" "+chunk, r.cfg.WindowChars)
	return chunk, false
}

// findOverlap compares the buffer tail with the chunk head, word-level
// first, then a char-level fallback. Returns the original-case prefix of
// chunk that duplicates buffered text, or "".
func (r *RollingWindow) findOverlap(chunk string) string {
	buffer := normalizeSpace(r.buffer)
	normChunk := normalizeSpace(chunk)

	bufferTail := strings.TrimSpace(strings.ToLower(tail(buffer, r.cfg.CompareChars)))
	chunkHead := strings.TrimSpace(strings.ToLower(head(normChunk, r.cfg.CompareChars)))
	if bufferTail == "" || chunkHead == "" {
		return ""
	}

	bufferWords := strings.Fields(bufferTail)
	headWords := strings.Fields(chunkHead)
	maxWords := min3(len(bufferWords), len(headWords), r.cfg.MaxOverlapWords)
	for n := maxWords; n >= r.cfg.MinOverlapWords; n-- {
		tailJoin := strings.Join(bufferWords[len(bufferWords)-n:], " ")
		headJoin := strings.Join(headWords[:n], " ")
		if tailJoin == headJoin {
			orig := strings.Fields(normChunk)
			return strings.Join(orig[:n], " ")
		}
	}

	limit := len(normChunk)
	if limit > r.cfg.CompareChars {
		limit = r.cfg.CompareChars
	}
	for i := limit; i >= r.cfg.MinCharOverlap; i-- {
		sub := strings.ToLower(normChunk[:i])
		if strings.HasSuffix(bufferTail, sub) {
			return normChunk[:i]
		}
		if i >= r.cfg.SubstringMinChars && strings.Contains(bufferTail, sub) {
			return normChunk[:i]
		}
	}
	return ""
}

func (r *RollingWindow) Reset() { r.buffer = "" }

// Buffer exposes the current rolling buffer for diagnostics.
func (r *RollingWindow) Buffer() string { return r.buffer }

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
