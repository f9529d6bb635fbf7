package observers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxkit/dictate/pkg/metrics"
)

func TestTimelineObserverWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)

	ev := metrics.MetricsEvent{
		Name: "message_out",
		Time: time.Now(),
		Tags: map[string]string{
			"session_id": "session-1",
			"trace_id":   "trace-1",
			"event":      "END_TONE",
		},
	}
	obs.RecordEvent(ev)
	_ = obs.Close()

	path := filepath.Join(dir, "trace-1.jsonl")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(b), "end_tone_out") {
		t.Fatalf("expected end_tone_out event in file")
	}
}

func TestTimelineObserverSanitizesIDs(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)

	obs.RecordEvent(metrics.MetricsEvent{
		Name: "part_emitted",
		Time: time.Now(),
		Tags: map[string]string{"session_id": "../evil/session"},
	})
	_ = obs.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "/") {
			t.Fatalf("unsanitized file name: %s", e.Name())
		}
	}
}
