package audio

import "sync"

// RingBuffer keeps the most recent samples up to a fixed capacity, dropping
// the oldest on overflow. Snapshot returns a copy safe for transcription
// while appends continue.
type RingBuffer struct {
	mu  sync.Mutex
	buf []float32
	max int
}

func NewRingBuffer(maxSamples int) *RingBuffer {
	if maxSamples <= 0 {
		maxSamples = 16000 * 30
	}
	return &RingBuffer{max: maxSamples}
}

func (r *RingBuffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	r.mu.Lock()
	r.buf = append(r.buf, samples...)
	if over := len(r.buf) - r.max; over > 0 {
		r.buf = r.buf[over:]
	}
	r.mu.Unlock()
}

func (r *RingBuffer) Snapshot() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float32, len(r.buf))
	copy(out, r.buf)
	return out
}

func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

func (r *RingBuffer) Clear() {
	r.mu.Lock()
	r.buf = r.buf[:0]
	r.mu.Unlock()
}
