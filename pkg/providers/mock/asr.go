package mock

import (
	"context"
	"sync"

	"github.com/voxkit/dictate/pkg/adapters/asr"
	"github.com/voxkit/dictate/pkg/audio"
)

// ASRConfig scripts the transcriber. Results are replayed in order, one
// per Transcribe call; after the script runs out every call returns an
// empty result. A non-nil Err makes every call fail.
type ASRConfig struct {
	SessionID string
	Script    []asr.Result
	Err       error
}

type Transcriber struct {
	cfg   ASRConfig
	mu    sync.Mutex
	pos   int
	calls int
}

func NewTranscriber(cfg ASRConfig) *Transcriber {
	return &Transcriber{cfg: cfg}
}

func (t *Transcriber) Name() string { return "mock_asr" }

func (t *Transcriber) Transcribe(_ context.Context, _ audio.Frame) (asr.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.cfg.Err != nil {
		return asr.Result{}, t.cfg.Err
	}
	if t.pos >= len(t.cfg.Script) {
		return asr.Result{NoSpeechProb: 1}, nil
	}
	res := t.cfg.Script[t.pos]
	t.pos++
	return res, nil
}

func (t *Transcriber) Close() error { return nil }

// Calls reports how many times Transcribe ran.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

var _ asr.Transcriber = (*Transcriber)(nil)
