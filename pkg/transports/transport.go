package transports

import (
	"context"

	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/messages"
)

// AudioPacket is one inbound chunk of session audio. Last marks the end
// of the session's audio; the engine closes the session input after it.
type AudioPacket struct {
	SessionID string
	TraceID   string
	Frame     audio.Frame
	Last      bool
}

// Transport defines a vendor-agnostic I/O boundary: audio packets in,
// pipeline messages out. Implementations are responsible for their own
// network lifecycle.
type Transport interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Recv() <-chan AudioPacket
	Send(messages.Message) error
}

// ReadyReporter allows transports to expose readiness metadata.
// Implementations are optional and used for informational logging only.
type ReadyReporter interface {
	ReadyFields() map[string]any
}
