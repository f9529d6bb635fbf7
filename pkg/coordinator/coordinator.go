package coordinator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/voxkit/dictate/pkg/adapters/asr"
	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/errorsx"
	"github.com/voxkit/dictate/pkg/logging"
	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/metrics"
	"github.com/voxkit/dictate/pkg/queue"
	"github.com/voxkit/dictate/pkg/redact"
	"github.com/voxkit/dictate/pkg/resilience"
	"github.com/voxkit/dictate/pkg/vad"
)

type Config struct {
	SampleRate    int
	BufferSeconds int
	// ChunkSamples is the expected inbound chunk size. The cadence and
	// minimum-buffer checks are expressed in chunks of this size.
	ChunkSamples          int
	TranscribeEveryChunks int
	MinBufferChunks       int

	MinRMS                float64
	MaxNoSpeechProb       float64
	MinConfidence         float64
	MinCompleteConfidence float64
	MinFlushConfidence    float64
	MinTranscriptChars    int
	CompleteWords         int
	SignificanceOverlap   float64

	// SignificantPrefixRatio suppresses a hypothesis that is a prefix of
	// the previous one and shorter than this fraction of it.
	SignificantPrefixRatio float64

	ASRDeadline time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration

	VAD     vad.Config
	Segment vad.SegmentConfig
}

func (c *Config) applyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.BufferSeconds <= 0 {
		c.BufferSeconds = 30
	}
	if c.ChunkSamples <= 0 {
		c.ChunkSamples = audio.FrameSamples(c.SampleRate, 100)
	}
	if c.TranscribeEveryChunks <= 0 {
		c.TranscribeEveryChunks = 15
	}
	if c.MinBufferChunks <= 0 {
		c.MinBufferChunks = 2
	}
	if c.MinRMS <= 0 {
		c.MinRMS = 0.005
	}
	if c.MaxNoSpeechProb <= 0 {
		c.MaxNoSpeechProb = 0.5
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.6
	}
	if c.MinCompleteConfidence <= 0 {
		c.MinCompleteConfidence = 0.4
	}
	if c.MinFlushConfidence <= 0 {
		c.MinFlushConfidence = 0.5
	}
	if c.MinTranscriptChars <= 0 {
		c.MinTranscriptChars = 2
	}
	if c.CompleteWords <= 0 {
		c.CompleteWords = 5
	}
	if c.SignificanceOverlap <= 0 {
		c.SignificanceOverlap = 0.8
	}
	if c.SignificantPrefixRatio <= 0 {
		c.SignificantPrefixRatio = 0.8
	}
	if c.ASRDeadline <= 0 {
		c.ASRDeadline = 5 * time.Second
	}
}

// Coordinator drives recognition for one session: it segments incoming
// audio with VAD, buffers speech, transcribes on a fixed cadence, and
// emits the PART / AUTO_STOP / END_ASR sequence. END_ASR is always the
// last message, even after errors.
type Coordinator struct {
	cfg      Config
	asr      asr.Transcriber
	detector *vad.Detector
	segments *vad.SegmentDetector
	buffer   *audio.RingBuffer
	breaker  *resilience.CircuitBreaker
	observer metrics.Observer
	logger   *slog.Logger

	prevTranscript string
	chunkIndex     int
	chunkCounter   int
	speaking       bool
	start          time.Time
}

func New(cfg Config, transcriber asr.Transcriber, observer metrics.Observer) *Coordinator {
	cfg.applyDefaults()
	if observer == nil {
		observer = metrics.NoopObserver{}
	}
	return &Coordinator{
		cfg:      cfg,
		asr:      transcriber,
		detector: vad.NewDetector(cfg.VAD, nil),
		segments: vad.NewSegmentDetector(cfg.Segment),
		buffer:   audio.NewRingBuffer(cfg.SampleRate * cfg.BufferSeconds),
		breaker:  resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		observer: observer,
		logger:   logging.NewComponentLogger(slog.Default(), "coordinator"),
	}
}

// Run consumes audio chunks until the input closes or silence ends the
// utterance, pushing messages downstream. It returns after END_ASR is
// delivered or its deadline expires.
func (c *Coordinator) Run(ctx context.Context, sessionID string, in *queue.Queue[audio.Frame], out *queue.Queue[messages.Message]) error {
	c.start = time.Now()
	c.detector.Reset()
	c.segments.Reset()
	defer c.sendEndASR(sessionID, out)

	for {
		frame, ok := in.Pop(ctx)
		if !ok {
			return nil
		}

		tr := c.observeFrame(frame)

		if tr.SpeechStarted {
			c.speaking = true
			c.buffer.Clear()
			c.chunkCounter = 0
			c.logger.Info("speech_started", "session_id", sessionID)
		}

		if tr.SpeechEnded {
			c.speaking = false
			c.flush(ctx, sessionID, out)
			c.buffer.Clear()
			c.chunkCounter = 0

			stop := messages.Message{
				ID:            sessionID,
				ChunkIndex:    messages.ChunkIndexAutoStop,
				Event:         messages.EventAutoStop,
				IsFinal:       true,
				EndOfSpeechMS: c.elapsedMS(),
			}
			if err := out.Push(ctx, stop); err != nil {
				c.logger.Error("auto_stop_send_failed", "session_id", sessionID, "error", err)
			}
			c.observer.RecordEvent(metrics.MetricsEvent{
				Name: "auto_stop",
				Time: time.Now(),
				Tags: map[string]string{"session_id": sessionID},
			})
			c.logger.Info("auto_stop", "session_id", sessionID, "end_of_speech_ms", stop.EndOfSpeechMS)
			return nil
		}

		if c.speaking && tr.HasSpeech {
			c.buffer.Append(frame.Samples)
			c.chunkCounter++
			if c.chunkCounter >= c.cfg.TranscribeEveryChunks &&
				c.buffer.Len() > c.cfg.ChunkSamples*c.cfg.MinBufferChunks {
				c.chunkCounter = 0
				c.emitInterim(ctx, sessionID, out)
			}
		}
	}
}

// observeFrame feeds the chunk through the frame-level detector and the
// segmenter, merging the per-frame transitions into one view of the chunk.
func (c *Coordinator) observeFrame(frame audio.Frame) vad.Transition {
	var agg vad.Transition
	size := c.detector.FrameSamples()
	for off := 0; off+size <= len(frame.Samples); off += size {
		has := c.detector.ProcessFrame(frame.Samples[off : off+size])
		tr := c.segments.Update(has)
		agg.HasSpeech = agg.HasSpeech || tr.HasSpeech
		agg.SpeechStarted = agg.SpeechStarted || tr.SpeechStarted
		agg.SpeechEnded = agg.SpeechEnded || tr.SpeechEnded
	}
	agg.IsSpeaking = c.segments.IsSpeaking()
	return agg
}

// emitInterim transcribes the current buffer and emits a PART when the
// hypothesis passes the acceptance and significance gates. The buffer is
// cleared after a send so the next window holds only new audio.
func (c *Coordinator) emitInterim(ctx context.Context, sessionID string, out *queue.Queue[messages.Message]) {
	samples := c.buffer.Snapshot()
	if audio.RMS(samples) <= c.cfg.MinRMS {
		return
	}

	res, err := c.transcribe(ctx, sessionID, samples)
	if err != nil {
		return
	}

	text := strings.TrimSpace(res.Text)
	complete := isComplete(text, c.cfg.CompleteWords)
	accept := text != "" &&
		len(text) > c.cfg.MinTranscriptChars &&
		res.NoSpeechProb < c.cfg.MaxNoSpeechProb &&
		(res.Confidence >= c.cfg.MinConfidence ||
			(complete && res.Confidence >= c.cfg.MinCompleteConfidence))
	if !accept {
		return
	}
	if !c.isSignificantUpdate(res.Text) {
		c.logger.Debug("part_suppressed", "session_id", sessionID, "chunk_index", c.chunkIndex)
		return
	}

	c.sendPart(ctx, sessionID, out, res.Text, complete)
	c.buffer.Clear()
}

// flush transcribes whatever remains in the buffer when speech ends,
// applying the stricter end-of-segment confidence gate.
func (c *Coordinator) flush(ctx context.Context, sessionID string, out *queue.Queue[messages.Message]) {
	if c.buffer.Len() <= c.cfg.ChunkSamples {
		return
	}
	samples := c.buffer.Snapshot()
	if audio.RMS(samples) <= c.cfg.MinRMS {
		return
	}

	res, err := c.transcribe(ctx, sessionID, samples)
	if err != nil {
		return
	}

	text := strings.TrimSpace(res.Text)
	accept := text != "" &&
		len(text) > c.cfg.MinTranscriptChars &&
		res.NoSpeechProb < c.cfg.MaxNoSpeechProb &&
		res.Confidence >= c.cfg.MinFlushConfidence
	if !accept || !c.isSignificantUpdate(res.Text) {
		return
	}

	c.sendPart(ctx, sessionID, out, res.Text, true)
}

func (c *Coordinator) sendPart(ctx context.Context, sessionID string, out *queue.Queue[messages.Message], text string, isFinal bool) {
	msg := messages.Message{
		ID:         sessionID,
		ChunkIndex: c.chunkIndex,
		Text:       text,
		Event:      messages.EventPart,
		IsFinal:    isFinal,
	}
	if err := out.Push(ctx, msg); err != nil {
		c.logger.Error("part_send_failed", "session_id", sessionID, "error", err)
		return
	}
	c.chunkIndex++
	c.prevTranscript = text
	c.observer.RecordEvent(metrics.MetricsEvent{
		Name:  "part_emitted",
		Time:  time.Now(),
		Value: float64(len(text)),
		Tags:  map[string]string{"session_id": sessionID},
	})
	c.logger.Info("part_emitted",
		"session_id", sessionID,
		"chunk_index", msg.ChunkIndex,
		"is_final", isFinal,
		"text", redact.Clip(text, 50))
}

func (c *Coordinator) transcribe(ctx context.Context, sessionID string, samples []float32) (asr.Result, error) {
	if !c.breaker.Allow() {
		err := errorsx.Wrap(resilience.RateLimitError{Provider: c.asr.Name()}, errorsx.ReasonASRCircuitOpen)
		c.logger.Warn("asr_circuit_open", "session_id", sessionID, "provider", c.asr.Name())
		return asr.Result{}, err
	}

	started := time.Now()
	res, err := c.asr.Transcribe(ctx, audio.NewFrame(samples, c.cfg.SampleRate))
	c.observer.RecordEvent(metrics.MetricsEvent{
		Name:   "asr_latency_us",
		Time:   time.Now(),
		Value:  float64(time.Since(started).Microseconds()),
		Tags:   map[string]string{"session_id": sessionID, "provider": c.asr.Name()},
		Fields: map[string]any{"audio_seconds": float64(len(samples)) / float64(c.cfg.SampleRate)},
	})
	if err != nil {
		c.breaker.OnError(err)
		c.logger.Error("asr_transcribe_failed",
			"session_id", sessionID,
			"reason", string(errorsx.Reason(errorsx.Wrap(err, errorsx.ReasonASRTranscribe))),
			"error", err)
		return asr.Result{}, errorsx.Wrap(err, errorsx.ReasonASRTranscribe)
	}
	c.breaker.OnSuccess()
	return res, nil
}

// sendEndASR delivers the terminal END_ASR with a hard deadline. Failure
// to deliver is logged, never retried; the orchestrator's fallback covers
// the missing terminal chain.
func (c *Coordinator) sendEndASR(sessionID string, out *queue.Queue[messages.Message]) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ASRDeadline)
	defer cancel()

	msg := messages.Message{
		ID:            sessionID,
		ChunkIndex:    messages.ChunkIndexControl,
		Event:         messages.EventEndASR,
		IsFinal:       true,
		EndOfSpeechMS: c.elapsedMS(),
	}
	if err := out.Push(ctx, msg); err != nil {
		c.logger.Error("end_asr_send_failed",
			"session_id", sessionID,
			"reason", string(errorsx.ReasonDeliveryTimeout),
			"error", err)
		return
	}
	c.observer.RecordEvent(metrics.MetricsEvent{
		Name: "end_asr",
		Time: time.Now(),
		Tags: map[string]string{"session_id": sessionID},
	})
	c.logger.Info("end_asr_sent", "session_id", sessionID, "end_of_speech_ms", msg.EndOfSpeechMS)
}

func (c *Coordinator) elapsedMS() float64 {
	return float64(time.Since(c.start).Microseconds()) / 1000
}

// isSignificantUpdate gates repeated hypotheses over the same audio. A
// shrunken prefix of the previous transcript or a word set overlapping it
// beyond the threshold is suppressed.
func (c *Coordinator) isSignificantUpdate(current string) bool {
	prev := strings.ToLower(strings.TrimSpace(c.prevTranscript))
	if prev == "" {
		return true
	}
	cur := strings.ToLower(strings.TrimSpace(current))

	if strings.HasPrefix(prev, cur) && float64(len(cur)) < float64(len(prev))*c.cfg.SignificantPrefixRatio {
		return false
	}

	prevWords := wordSet(prev)
	curWords := wordSet(cur)
	if len(prevWords) == 0 || len(curWords) == 0 {
		return true
	}

	inter := 0
	union := len(prevWords)
	for w := range curWords {
		if prevWords[w] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter)/float64(union) < c.cfg.SignificanceOverlap
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func isComplete(text string, minWords int) bool {
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?', ',':
		return true
	}
	return len(strings.Fields(text)) >= minWords
}
