package observers

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/voxkit/dictate/pkg/metrics"
)

type CostSummary struct {
	TraceID         string  `json:"trace_id,omitempty"`
	SessionID       string  `json:"session_id,omitempty"`
	ASRAudioSec     float64 `json:"asr_audio_seconds"`
	ASRRequests     int     `json:"asr_requests"`
	GrammarRequests int     `json:"grammar_requests"`
	RecordedAtUTC   string  `json:"recorded_at_utc"`
}

// CostObserver accumulates per-session vendor usage and writes one
// summary file per session on Close.
type CostObserver struct {
	dir   string
	mu    sync.Mutex
	stats map[string]*CostSummary
}

func NewCostObserver(dir string) *CostObserver {
	return &CostObserver{dir: dir, stats: make(map[string]*CostSummary)}
}

func (o *CostObserver) RecordEvent(ev metrics.MetricsEvent) {
	if strings.TrimSpace(o.dir) == "" {
		return
	}
	id := ""
	sessionID := ""
	traceID := ""
	if ev.Tags != nil {
		sessionID = ev.Tags["session_id"]
		traceID = ev.Tags["trace_id"]
		if traceID != "" {
			id = traceID
		} else {
			id = sessionID
		}
	}
	if id == "" {
		return
	}

	switch ev.Name {
	case "asr_latency_us":
		o.mu.Lock()
		stat := o.statFor(id, sessionID, traceID)
		stat.ASRRequests++
		stat.ASRAudioSec += audioSecondsFromFields(ev.Fields)
		o.mu.Unlock()
	case "stage_latency_us":
		if ev.Tags["processor"] == "grammar" && ev.Tags["event"] == "PART" {
			o.mu.Lock()
			o.statFor(id, sessionID, traceID).GrammarRequests++
			o.mu.Unlock()
		}
	}
}

func (o *CostObserver) statFor(id, sessionID, traceID string) *CostSummary {
	stat := o.stats[id]
	if stat == nil {
		stat = &CostSummary{TraceID: traceID, SessionID: sessionID}
		o.stats[id] = stat
	}
	return stat
}

func (o *CostObserver) Close() error {
	if strings.TrimSpace(o.dir) == "" {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	var errOut error
	for id, stat := range o.stats {
		stat.RecordedAtUTC = time.Now().UTC().Format(time.RFC3339)
		b, err := json.MarshalIndent(stat, "", "  ")
		if err != nil {
			errOut = errors.Join(errOut, err)
			continue
		}
		path := filepath.Join(o.dir, sanitizeID(id)+".cost.json")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			errOut = errors.Join(errOut, err)
		}
	}
	return errOut
}

func audioSecondsFromFields(fields map[string]any) float64 {
	if fields == nil {
		return 0
	}
	switch v := fields["audio_seconds"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

var _ metrics.Observer = (*CostObserver)(nil)
