package vad

import (
	"github.com/voxkit/dictate/pkg/audio"
)

// Classifier decides whether a single fixed-size frame contains speech.
// The default is energy thresholding; callers may plug in model-backed
// classifiers without touching the windowing logic.
type Classifier func(frame []float32, rate int) bool

type Config struct {
	SampleRate      int
	FrameDurationMS int
	WindowFrames    int
	SpeechRatio     float64
	EnergyThreshold float64
}

func (c *Config) applyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.FrameDurationMS <= 0 {
		c.FrameDurationMS = 30
	}
	if c.WindowFrames <= 0 {
		c.WindowFrames = 30
	}
	if c.SpeechRatio <= 0 {
		c.SpeechRatio = 0.3
	}
	if c.EnergyThreshold <= 0 {
		c.EnergyThreshold = 0.01
	}
}

// Detector smooths per-frame classifier decisions over a sliding window.
// The aggregate is speech when the recent speech ratio reaches SpeechRatio.
type Detector struct {
	cfg     Config
	cls     Classifier
	window  []bool
	head    int
	filled  int
	samples int
}

func NewDetector(cfg Config, cls Classifier) *Detector {
	cfg.applyDefaults()
	d := &Detector{
		cfg:     cfg,
		cls:     cls,
		window:  make([]bool, cfg.WindowFrames),
		samples: audio.FrameSamples(cfg.SampleRate, cfg.FrameDurationMS),
	}
	if d.cls == nil {
		threshold := cfg.EnergyThreshold
		d.cls = func(frame []float32, _ int) bool {
			return audio.RMS(frame) >= threshold
		}
	}
	return d
}

// FrameSamples returns the expected per-frame sample count.
func (d *Detector) FrameSamples() int { return d.samples }

// ProcessFrame classifies one frame and returns the windowed speech
// decision. Frames with an unexpected sample count are skipped and the
// current decision is returned unchanged.
func (d *Detector) ProcessFrame(frame []float32) bool {
	if len(frame) != d.samples {
		return d.decision()
	}
	d.window[d.head] = d.cls(frame, d.cfg.SampleRate)
	d.head = (d.head + 1) % len(d.window)
	if d.filled < len(d.window) {
		d.filled++
	}
	return d.decision()
}

func (d *Detector) decision() bool {
	if d.filled == 0 {
		return false
	}
	speech := 0
	for i := 0; i < d.filled; i++ {
		if d.window[i] {
			speech++
		}
	}
	return float64(speech)/float64(d.filled) >= d.cfg.SpeechRatio
}

func (d *Detector) Reset() {
	for i := range d.window {
		d.window[i] = false
	}
	d.head = 0
	d.filled = 0
}
