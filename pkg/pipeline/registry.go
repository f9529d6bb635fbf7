package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/queue"
)

// Processor drives one dictation session end to end: audio chunks in,
// pipeline messages out.
type Processor interface {
	Start() error
	Stop() error
	Audio() *queue.Queue[audio.Frame]
	Out() *queue.Queue[messages.Message]
}

type Session struct {
	ID      string
	TraceID string
	Proc    Processor
	Ctx     context.Context
	Cancel  context.CancelFunc
	Created time.Time
}

type SessionFactory func(ctx context.Context, sessionID, traceID string) (Processor, error)

type SessionRegistry struct {
	sessions sync.Map
	count    atomic.Int64
	factory  SessionFactory
	draining atomic.Bool
}

func NewSessionRegistry(factory SessionFactory) *SessionRegistry {
	return &SessionRegistry{factory: factory}
}

func (r *SessionRegistry) GetOrCreate(sessionID, traceID string) (*Session, bool, error) {
	if sessionID == "" {
		return nil, false, nil
	}
	if v, ok := r.sessions.Load(sessionID); ok {
		return v.(*Session), false, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	proc, err := r.factory(ctx, sessionID, traceID)
	if err != nil {
		cancel()
		return nil, false, err
	}
	if err := proc.Start(); err != nil {
		cancel()
		return nil, false, err
	}
	sess := &Session{
		ID:      sessionID,
		TraceID: traceID,
		Proc:    proc,
		Ctx:     ctx,
		Cancel:  cancel,
		Created: time.Now(),
	}
	actual, loaded := r.sessions.LoadOrStore(sessionID, sess)
	if loaded {
		_ = proc.Stop()
		cancel()
		return actual.(*Session), false, nil
	}
	r.count.Add(1)
	return sess, true, nil
}

func (r *SessionRegistry) Get(sessionID string) (*Session, bool) {
	if v, ok := r.sessions.Load(sessionID); ok {
		return v.(*Session), true
	}
	return nil, false
}

func (r *SessionRegistry) Remove(sessionID string) {
	if v, ok := r.sessions.LoadAndDelete(sessionID); ok {
		sess := v.(*Session)
		if sess.Cancel != nil {
			sess.Cancel()
		}
		if sess.Proc != nil {
			_ = sess.Proc.Stop()
		}
		r.count.Add(-1)
	}
}

func (r *SessionRegistry) CloseAll() {
	r.sessions.Range(func(key, value any) bool {
		sessionID, ok := key.(string)
		if ok {
			r.Remove(sessionID)
		}
		return true
	})
}

func (r *SessionRegistry) Count() int64 {
	return r.count.Load()
}

func (r *SessionRegistry) SetDraining(v bool) {
	r.draining.Store(v)
}

func (r *SessionRegistry) Draining() bool {
	return r.draining.Load()
}

func (r *SessionRegistry) WaitForEmpty(ctx context.Context, interval time.Duration) bool {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if r.Count() == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
