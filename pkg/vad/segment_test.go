package vad

import "testing"

func speechFrame(n int) []float32 {
	frame := make([]float32, n)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 0.5
		} else {
			frame[i] = -0.5
		}
	}
	return frame
}

func TestDetectorSilenceNeverSpeech(t *testing.T) {
	d := NewDetector(Config{SampleRate: 16000, FrameDurationMS: 30}, nil)
	silent := make([]float32, d.FrameSamples())
	for i := 0; i < 100; i++ {
		if d.ProcessFrame(silent) {
			t.Fatalf("silence classified as speech at frame %d", i)
		}
	}
}

func TestDetectorSpeechRatio(t *testing.T) {
	d := NewDetector(Config{SampleRate: 16000, FrameDurationMS: 30, WindowFrames: 10, SpeechRatio: 0.3}, nil)
	frame := speechFrame(d.FrameSamples())
	// 3 of 10 recent frames speech crosses the 0.3 ratio.
	silent := make([]float32, d.FrameSamples())
	for i := 0; i < 7; i++ {
		d.ProcessFrame(silent)
	}
	d.ProcessFrame(frame)
	d.ProcessFrame(frame)
	if !d.ProcessFrame(frame) {
		t.Fatalf("expected speech decision at 30%% window ratio")
	}
}

func TestDetectorSkipsWrongSizeFrames(t *testing.T) {
	d := NewDetector(Config{SampleRate: 16000, FrameDurationMS: 30}, nil)
	if d.ProcessFrame(speechFrame(17)) {
		t.Fatalf("wrong-size frame must not flip the decision")
	}
}

func TestSegmentDetectorBoundaries(t *testing.T) {
	s := NewSegmentDetector(SegmentConfig{SilenceDurationMS: 90, FrameDurationMS: 30})

	tr := s.Update(true)
	if !tr.SpeechStarted || !tr.IsSpeaking {
		t.Fatalf("expected speech start, got %+v", tr)
	}
	if tr := s.Update(true); tr.SpeechStarted {
		t.Fatalf("speech start must fire once per segment")
	}

	// Two silence frames stay below the 3-frame threshold.
	s.Update(false)
	if tr := s.Update(false); tr.SpeechEnded {
		t.Fatalf("segment ended before silence threshold")
	}
	// Speech resets the counter.
	s.Update(true)
	s.Update(false)
	s.Update(false)
	tr = s.Update(false)
	if !tr.SpeechEnded || tr.IsSpeaking {
		t.Fatalf("expected speech end after sustained silence, got %+v", tr)
	}
}

func TestSegmentDetectorReset(t *testing.T) {
	s := NewSegmentDetector(SegmentConfig{})
	s.Update(true)
	s.Reset()
	if s.IsSpeaking() {
		t.Fatalf("expected idle state after reset")
	}
}
