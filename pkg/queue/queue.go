package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrClosed = errors.New("queue closed")

type Stats struct {
	Pushes int64
	Pops   int64
	Drops  int64
}

// Queue is a bounded FIFO connecting pipeline stages. Push blocks until
// there is room or the context ends; TryPush never blocks and counts a
// drop on a full queue. Close is idempotent and unblocks pending Pops.
type Queue[T any] struct {
	mu     sync.RWMutex
	ch     chan T
	closed atomic.Bool
	once   sync.Once
	pushes int64
	pops   int64
	drops  int64
}

func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

func (q *Queue[T]) Push(ctx context.Context, v T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed.Load() {
		return ErrClosed
	}
	select {
	case q.ch <- v:
		atomic.AddInt64(&q.pushes, 1)
		return nil
	case <-ctx.Done():
		atomic.AddInt64(&q.drops, 1)
		return ctx.Err()
	}
}

func (q *Queue[T]) TryPush(v T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed.Load() {
		return false
	}
	select {
	case q.ch <- v:
		atomic.AddInt64(&q.pushes, 1)
		return true
	default:
		atomic.AddInt64(&q.drops, 1)
		return false
	}
}

// Pop blocks until a value arrives, the queue drains after Close, or the
// context ends. The second return is false when no more values will come.
func (q *Queue[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case v, ok := <-q.ch:
		if !ok {
			return zero, false
		}
		atomic.AddInt64(&q.pops, 1)
		return v, true
	case <-ctx.Done():
		return zero, false
	}
}

func (q *Queue[T]) Close() {
	q.once.Do(func() {
		q.closed.Store(true)
		q.mu.Lock()
		close(q.ch)
		q.mu.Unlock()
	})
}

func (q *Queue[T]) Closed() bool { return q.closed.Load() }

func (q *Queue[T]) Len() int { return len(q.ch) }

func (q *Queue[T]) Stats() Stats {
	return Stats{
		Pushes: atomic.LoadInt64(&q.pushes),
		Pops:   atomic.LoadInt64(&q.pops),
		Drops:  atomic.LoadInt64(&q.drops),
	}
}
