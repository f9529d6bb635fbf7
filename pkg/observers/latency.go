package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/voxkit/dictate/pkg/metrics"
)

// LatencyObserver reconstructs the per-session terminal chain from the
// event stream and logs a stage breakdown once END_TONE leaves the
// pipeline.
type LatencyObserver struct {
	mu     sync.Mutex
	traces map[string]*trace
	log    *slog.Logger
}

type trace struct {
	firstPart  time.Time
	endASR     time.Time
	endClean   time.Time
	endGrammar time.Time
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		traces: make(map[string]*trace),
		log:    log,
	}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	sessionID := ""
	if ev.Tags != nil {
		sessionID = ev.Tags["session_id"]
	}
	if sessionID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.traces[sessionID]
	if t == nil {
		t = &trace{}
		o.traces[sessionID] = t
	}
	switch ev.Name {
	case "part_emitted":
		if t.firstPart.IsZero() {
			t.firstPart = ev.Time
		}
	case "end_asr":
		if t.endASR.IsZero() {
			t.endASR = ev.Time
		}
	case "stage_latency_us":
		// Stage completion times for the control events mark the chain
		// hops: processing END_ASR yields END_CLEAN, and so on.
		switch ev.Tags["event"] {
		case "END_ASR":
			t.endClean = ev.Time
		case "END_CLEAN":
			t.endGrammar = ev.Time
		}
	case "message_out":
		if ev.Tags["event"] == "END_TONE" {
			o.logChainLocked(sessionID, t, ev.Time)
			delete(o.traces, sessionID)
		}
	}
}

func (o *LatencyObserver) logChainLocked(sessionID string, t *trace, endTone time.Time) {
	o.log.Info("latency",
		"session_id", sessionID,
		"clean_ms", durationMs(t.endASR, t.endClean),
		"grammar_ms", durationMs(t.endClean, t.endGrammar),
		"tone_ms", durationMs(t.endGrammar, endTone),
		"finalize_ms", durationMs(t.endASR, endTone),
		"dictation_ms", durationMs(t.firstPart, endTone),
	)
}

func durationMs(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return -1
	}
	return b.Sub(a).Milliseconds()
}
