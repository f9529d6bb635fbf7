package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/transports"
)

// Transport is an in-memory transport for local testing and integration.
// It implements the transports.Transport interface without any network
// dependency.
type Transport struct {
	recvCh chan transports.AudioPacket
	sentCh chan messages.Message
	closed atomic.Bool
	mu     sync.Mutex
}

func New() *Transport {
	return &Transport{
		recvCh: make(chan transports.AudioPacket, 256),
		sentCh: make(chan messages.Message, 256),
	}
}

func (t *Transport) Name() string { return "mock" }

func (t *Transport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()
	return nil
}

func (t *Transport) Stop() error {
	if t.closed.CompareAndSwap(false, true) {
		t.mu.Lock()
		close(t.recvCh)
		close(t.sentCh)
		t.mu.Unlock()
	}
	return nil
}

func (t *Transport) Recv() <-chan transports.AudioPacket { return t.recvCh }

func (t *Transport) Send(msg messages.Message) error {
	if t.closed.Load() {
		return nil
	}
	select {
	case t.sentCh <- msg:
	default:
	}
	return nil
}

// Push injects an inbound audio packet into the transport.
func (t *Transport) Push(p transports.AudioPacket) {
	if t.closed.Load() {
		return
	}
	select {
	case t.recvCh <- p:
	default:
	}
}

// Sent exposes outbound messages for inspection.
func (t *Transport) Sent() <-chan messages.Message { return t.sentCh }

var _ transports.Transport = (*Transport)(nil)
