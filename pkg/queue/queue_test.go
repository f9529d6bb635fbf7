package queue

import (
	"context"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 3; i++ {
		if err := q.Push(context.Background(), i); err != nil {
			t.Fatalf("push error: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		v, ok := q.Pop(context.Background())
		if !ok || v != i {
			t.Fatalf("expected %d, got %d ok=%v", i, v, ok)
		}
	}
	st := q.Stats()
	if st.Pushes != 3 || st.Pops != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestQueueTryPushFull(t *testing.T) {
	q := New[string](1)
	if !q.TryPush("a") {
		t.Fatalf("expected push into empty queue")
	}
	if q.TryPush("b") {
		t.Fatalf("expected drop on full queue")
	}
	if q.Stats().Drops != 1 {
		t.Fatalf("expected one drop, got %d", q.Stats().Drops)
	}
}

func TestQueueCloseDrains(t *testing.T) {
	q := New[int](4)
	_ = q.Push(context.Background(), 7)
	q.Close()
	if err := q.Push(context.Background(), 8); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	v, ok := q.Pop(context.Background())
	if !ok || v != 7 {
		t.Fatalf("expected buffered value after close, got %d ok=%v", v, ok)
	}
	if _, ok := q.Pop(context.Background()); ok {
		t.Fatalf("expected closed queue to report done")
	}
}

func TestQueuePushContextCancel(t *testing.T) {
	q := New[int](1)
	_ = q.Push(context.Background(), 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Push(ctx, 2); err == nil {
		t.Fatalf("expected context error on full queue")
	}
}
