package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/voxkit/dictate/pkg/messages"
)

// Stage transforms one message into zero or more messages. Stages are
// per-session and run on a single goroutine each, so implementations do
// not need internal locking.
type Stage interface {
	Process(ctx context.Context, msg messages.Message) ([]messages.Message, error)
	Name() string
}

type BackpressureMode int

const (
	BackpressureDrop BackpressureMode = iota
	BackpressureWait
)

type Config struct {
	StageBuffer  int
	Backpressure BackpressureMode
	// FinalizeTimeout bounds how long the chain may run after END_ASR
	// enters it. On expiry the stages are cancelled and a fallback
	// END_TONE is synthesized.
	FinalizeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.StageBuffer <= 0 {
		c.StageBuffer = 64
	}
	if c.FinalizeTimeout <= 0 {
		c.FinalizeTimeout = 30 * time.Second
	}
}

func logPipeline(stages []Stage) {
	if len(stages) == 0 {
		return
	}
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name())
	}
	slog.Info("pipeline", "order", strings.Join(names, " -> "))
}
