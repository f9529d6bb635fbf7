package deepgram

import (
	"context"
	"testing"

	"github.com/voxkit/dictate/pkg/audio"
)

func TestSilentWindowSkipsRequest(t *testing.T) {
	tr := New(Config{APIKey: "test-key", SessionID: "s1"})

	// Samples below the RMS gate must resolve locally, without a request.
	frame := audio.NewFrame(make([]float32, 1600), 16000)
	res, err := tr.Transcribe(context.Background(), frame)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.NoSpeechProb != 1 {
		t.Errorf("no_speech_prob = %v, want 1", res.NoSpeechProb)
	}
	if res.Text != "" {
		t.Errorf("text = %q, want empty", res.Text)
	}
}

func TestConfigDefaults(t *testing.T) {
	tr := New(Config{APIKey: "test-key"})
	if tr.cfg.Model != "nova-2" {
		t.Errorf("model = %q, want nova-2", tr.cfg.Model)
	}
	if tr.cfg.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", tr.cfg.SampleRate)
	}
	if tr.cfg.MinRMS != 0.005 {
		t.Errorf("min rms = %v, want 0.005", tr.cfg.MinRMS)
	}
}
