package audio

import (
	"math"
	"time"
)

// Frame carries a slice of mono float32 samples at a fixed sample rate.
type Frame struct {
	Samples []float32
	Rate    int
}

func NewFrame(samples []float32, rate int) Frame {
	return Frame{Samples: samples, Rate: rate}
}

func (f Frame) Duration() time.Duration {
	if f.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(f.Samples)) / float64(f.Rate) * float64(time.Second))
}

// RMS returns the root-mean-square energy of the samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// FrameSamples converts a frame duration in milliseconds to a sample count.
func FrameSamples(rate, durationMS int) int {
	return rate * durationMS / 1000
}
