package vad

// Transition reports the segmenter's view after one frame decision.
type Transition struct {
	HasSpeech     bool
	SpeechStarted bool
	SpeechEnded   bool
	IsSpeaking    bool
}

type SegmentConfig struct {
	SilenceDurationMS int
	FrameDurationMS   int
}

func (c *SegmentConfig) applyDefaults() {
	if c.SilenceDurationMS <= 0 {
		c.SilenceDurationMS = 2500
	}
	if c.FrameDurationMS <= 0 {
		c.FrameDurationMS = 30
	}
}

// SegmentDetector turns per-frame speech decisions into speech segment
// boundaries. A segment ends after SilenceDurationMS of consecutive
// silence frames.
type SegmentDetector struct {
	cfg              SegmentConfig
	silenceThreshold int
	silenceFrames    int
	speaking         bool
}

func NewSegmentDetector(cfg SegmentConfig) *SegmentDetector {
	cfg.applyDefaults()
	return &SegmentDetector{
		cfg:              cfg,
		silenceThreshold: cfg.SilenceDurationMS / cfg.FrameDurationMS,
	}
}

// Update consumes one windowed speech decision and reports any boundary
// crossed. Speech resets the silence counter; the segment ends only after
// the full silence threshold elapses.
func (s *SegmentDetector) Update(hasSpeech bool) Transition {
	tr := Transition{HasSpeech: hasSpeech}
	if hasSpeech {
		s.silenceFrames = 0
		if !s.speaking {
			s.speaking = true
			tr.SpeechStarted = true
		}
	} else if s.speaking {
		s.silenceFrames++
		if s.silenceFrames >= s.silenceThreshold {
			s.speaking = false
			s.silenceFrames = 0
			tr.SpeechEnded = true
		}
	}
	tr.IsSpeaking = s.speaking
	return tr
}

func (s *SegmentDetector) IsSpeaking() bool { return s.speaking }

func (s *SegmentDetector) Reset() {
	s.silenceFrames = 0
	s.speaking = false
}
