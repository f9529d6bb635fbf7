package dictate

import (
	"context"
	"testing"
	"time"

	"github.com/voxkit/dictate/pkg/adapters/gec"
	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/metrics"
	"github.com/voxkit/dictate/pkg/transports"
	mocktransport "github.com/voxkit/dictate/pkg/transports/mock"
)

func testEngineConfig() Config {
	return Config{
		Coordinator: CoordinatorConfig{
			SampleRate: 16000,
			ChunkMS:    100,
		},
		VAD: VADConfig{
			WindowFrames:      3,
			SilenceDurationMS: 90,
		},
		Tone: ToneConfig{Mode: "neutral"},
		Vendors: VendorsConfig{
			ASR: VendorConfig{
				Provider: "mock",
				Settings: map[string]any{
					"transcripts": []string{"we should ship the build on friday"},
				},
			},
			Grammar: VendorConfig{Provider: "mock"},
		},
		LogLevel: "error",
	}
}

func speechFrame() audio.Frame {
	samples := make([]float32, audio.FrameSamples(16000, 100))
	for i := range samples {
		samples[i] = 0.1
	}
	return audio.NewFrame(samples, 16000)
}

func silenceFrame() audio.Frame {
	return audio.NewFrame(make([]float32, audio.FrameSamples(16000, 100)), 16000)
}

func TestEngineEndToEnd(t *testing.T) {
	tr := mocktransport.New()
	mem := metrics.NewMemoryObserver()
	eng := NewEngine(EngineOptions{
		Config:    testEngineConfig(),
		Transport: tr,
		Observers: []metrics.Observer{mem},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = eng.Stop() }()

	for i := 0; i < 20; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-1", Frame: speechFrame()})
	}
	for i := 0; i < 8; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-1", Frame: silenceFrame()})
	}
	tr.Push(transports.AudioPacket{SessionID: "sess-1", Last: true})

	var got []messages.Message
	deadline := time.After(5 * time.Second)
collect:
	for {
		select {
		case msg := <-tr.Sent():
			got = append(got, msg)
			if msg.Event == messages.EventEndTone {
				break collect
			}
		case <-deadline:
			t.Fatalf("timed out waiting for END_TONE, got %d messages", len(got))
		}
	}

	var previews, autoStops int
	for _, m := range got {
		switch m.Event {
		case messages.EventPreviewTone:
			previews++
		case messages.EventAutoStop:
			autoStops++
		}
	}
	if previews == 0 {
		t.Error("expected at least one PREVIEW_TONE before END_TONE")
	}
	if autoStops != 1 {
		t.Errorf("auto stops = %d, want 1", autoStops)
	}

	final := got[len(got)-1]
	if final.ID != "sess-1" {
		t.Errorf("final id = %q, want sess-1", final.ID)
	}
	if !final.IsFinal {
		t.Error("END_TONE should be final")
	}
	if final.Text != "We should ship the build on friday." {
		t.Errorf("final text = %q", final.Text)
	}

	// No duplicate END_TONE after the first.
	select {
	case msg := <-tr.Sent():
		if msg.Event == messages.EventEndTone {
			t.Fatal("unexpected second END_TONE")
		}
	case <-time.After(200 * time.Millisecond):
	}

	// The session tears down once its pipeline drains.
	waitEmpty := time.After(2 * time.Second)
	for eng.Registry().Count() != 0 {
		select {
		case <-waitEmpty:
			t.Fatalf("registry count = %d, want 0", eng.Registry().Count())
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Stop flushes the async observer before we inspect events.
	_ = eng.Stop()
	names := make(map[string]bool)
	for _, ev := range mem.Events {
		names[ev.Name] = true
	}
	if !names["audio_in"] {
		t.Error("expected audio_in events")
	}
	if !names["message_sent"] {
		t.Error("expected message_sent events")
	}
}

// stalledCorrector hangs every correction until its context is
// cancelled, pinning the owning session's stage chain.
type stalledCorrector struct{}

func (stalledCorrector) Name() string { return "stalled" }

func (stalledCorrector) Correct(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stalledCorrector) Close() error { return nil }

func TestSaturatedSessionDoesNotStallOthers(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Pipeline.StageBuffer = 4
	cfg.Vendors.Grammar.Provider = "stall"

	providers := DefaultProviderRegistry()
	providers.RegisterGrammar("stall", func(cfg Config, sessionID string) (gec.Corrector, error) {
		if sessionID == "sess-1" {
			return stalledCorrector{}, nil
		}
		return buildMockGrammar(cfg, sessionID)
	})

	tr := mocktransport.New()
	eng := NewEngine(EngineOptions{Config: cfg, Providers: providers, Transport: tr})
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = eng.Stop() }()

	// sess-1 speaks to completion; its stage chain then hangs, so its
	// audio queue is left open with nothing draining it.
	for i := 0; i < 20; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-1", Frame: speechFrame()})
	}
	for i := 0; i < 8; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-1", Frame: silenceFrame()})
	}
	time.Sleep(200 * time.Millisecond)

	// Overfill the stalled session's audio queue, then start another
	// session. Routing must keep serving it.
	for i := 0; i < 10; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-1", Frame: speechFrame()})
	}
	for i := 0; i < 20; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-2", Frame: speechFrame()})
	}
	for i := 0; i < 8; i++ {
		tr.Push(transports.AudioPacket{SessionID: "sess-2", Frame: silenceFrame()})
	}
	tr.Push(transports.AudioPacket{SessionID: "sess-2", Last: true})

	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-tr.Sent():
			if msg.Event == messages.EventEndTone && msg.ID == "sess-2" {
				return
			}
		case <-deadline:
			t.Fatal("sess-2 never finished while sess-1 was saturated")
		}
	}
}

func TestEngineUnknownProviderDropsSession(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Vendors.ASR.Provider = "nope"

	tr := mocktransport.New()
	eng := NewEngine(EngineOptions{Config: cfg, Transport: tr})
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = eng.Stop() }()

	tr.Push(transports.AudioPacket{SessionID: "sess-1", Frame: speechFrame()})
	time.Sleep(100 * time.Millisecond)
	if eng.Registry().Count() != 0 {
		t.Errorf("registry count = %d, want 0", eng.Registry().Count())
	}
}
