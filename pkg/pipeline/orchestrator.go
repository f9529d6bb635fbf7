package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voxkit/dictate/pkg/fusion"
	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/metrics"
	"github.com/voxkit/dictate/pkg/queue"
)

// Orchestrator runs a session's message stages, each on its own goroutine
// over bounded queues. It guarantees the session ends with exactly one
// END_TONE on Out: duplicates are dropped and a fallback is synthesized
// when the chain drains without one.
type Orchestrator interface {
	Start() error
	Stop() error
	In() *queue.Queue[messages.Message]
	Out() *queue.Queue[messages.Message]
	AddStage(s Stage) error
	SetContext(ctx context.Context)
	SetObserver(obs metrics.Observer)
	// Done is closed once the chain has fully drained and Out is closed.
	Done() <-chan struct{}
}

type orchestrator struct {
	cfg     Config
	stages  []Stage
	in      *queue.Queue[messages.Message]
	out     *queue.Queue[messages.Message]
	fuse    *fusion.Processor
	obs     metrics.Observer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	armed   chan struct{}
	armOnce sync.Once
}

func New(cfg Config) Orchestrator {
	cfg.applyDefaults()
	o := &orchestrator{
		cfg:   cfg,
		in:    queue.New[messages.Message](cfg.StageBuffer),
		out:   queue.New[messages.Message](cfg.StageBuffer),
		fuse:  fusion.NewProcessor(),
		done:  make(chan struct{}),
		armed: make(chan struct{}),
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o
}

func NewWithStages(cfg Config, stages ...Stage) Orchestrator {
	orch := New(cfg)
	logPipeline(stages)
	for _, s := range stages {
		_ = orch.AddStage(s)
	}
	return orch
}

func (o *orchestrator) SetContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
}

func (o *orchestrator) In() *queue.Queue[messages.Message]  { return o.in }
func (o *orchestrator) Out() *queue.Queue[messages.Message] { return o.out }
func (o *orchestrator) SetObserver(obs metrics.Observer)    { o.obs = obs }
func (o *orchestrator) Done() <-chan struct{}               { return o.done }

func (o *orchestrator) AddStage(s Stage) error {
	o.stages = append(o.stages, s)
	return nil
}

func (o *orchestrator) Start() error {
	chain := make([]*queue.Queue[messages.Message], len(o.stages)+1)
	chain[0] = o.in
	for i := 1; i < len(chain); i++ {
		chain[i] = queue.New[messages.Message](o.cfg.StageBuffer)
	}
	for i, s := range o.stages {
		go o.runStage(s, chain[i], chain[i+1], i == 0)
	}
	go o.finalize(chain[len(chain)-1])
	go o.watchdog()
	return nil
}

// Stop cancels the chain. In normal shutdown callers close In instead and
// let the stages drain; Stop is the forced path.
func (o *orchestrator) Stop() error {
	o.cancel()
	o.in.Close()
	return nil
}

func (o *orchestrator) runStage(s Stage, in, out *queue.Queue[messages.Message], first bool) {
	defer out.Close()
	for {
		msg, ok := in.Pop(o.ctx)
		if !ok {
			return
		}
		if first {
			o.recordFlow("message_in", msg)
			if msg.Event == messages.EventEndASR {
				o.armOnce.Do(func() { close(o.armed) })
			}
		}
		start := time.Now()
		results, err := s.Process(o.ctx, msg)
		if err != nil {
			o.recordFlow("message_drop", msg)
			continue
		}
		o.recordStage(s.Name(), msg, start)
		for _, r := range results {
			o.push(out, r)
		}
	}
}

// finalize applies the fusion pass to the terminal text and enforces the
// single-END_TONE contract before handing messages to Out.
func (o *orchestrator) finalize(last *queue.Queue[messages.Message]) {
	defer close(o.done)
	defer o.out.Close()

	var sessionID string
	var lastEOS float64
	endToneSent := false

	for {
		msg, ok := last.Pop(o.ctx)
		if !ok {
			break
		}
		if sessionID == "" {
			sessionID = msg.ID
		}
		if msg.EndOfSpeechMS > 0 {
			lastEOS = msg.EndOfSpeechMS
		}
		if msg.Event == messages.EventEndTone {
			if endToneSent {
				o.recordFlow("message_drop", msg)
				continue
			}
			endToneSent = true
			msg.Text = o.fuse.Process(msg.Text)
		}
		o.recordFlow("message_out", msg)
		if msg.Event == messages.EventPart || msg.Event == messages.EventPreviewTone {
			o.push(o.out, msg)
		} else {
			o.deliver(msg)
		}
	}

	if !endToneSent && sessionID != "" {
		fallback := messages.Message{
			ID:            sessionID,
			ChunkIndex:    messages.ChunkIndexFinal,
			Event:         messages.EventEndTone,
			IsFinal:       true,
			EndOfSpeechMS: lastEOS,
		}
		o.recordFlow("message_out", fallback)
		o.deliver(fallback)
	}
}

// watchdog bounds the terminal chain. Once the first stage has seen
// END_ASR the remaining stages must drain within FinalizeTimeout;
// otherwise the chain is cancelled so finalize can synthesize the
// fallback END_TONE.
func (o *orchestrator) watchdog() {
	select {
	case <-o.done:
		return
	case <-o.ctx.Done():
		return
	case <-o.armed:
	}
	timer := time.NewTimer(o.cfg.FinalizeTimeout)
	defer timer.Stop()
	select {
	case <-o.done:
	case <-o.ctx.Done():
	case <-timer.C:
		slog.Warn("terminal_chain_timeout",
			slog.Duration("timeout", o.cfg.FinalizeTimeout))
		o.cancel()
	}
}

// deliver pushes a control message to Out on its own short-deadline
// context, so a forced Stop cannot swallow the terminal END_TONE.
func (o *orchestrator) deliver(msg messages.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.out.Push(ctx, msg); err != nil {
		o.recordFlow("message_drop", msg)
	}
}

// push honors the configured backpressure mode for PART and preview
// traffic. Control events always wait: dropping one would stall the
// terminal chain.
func (o *orchestrator) push(q *queue.Queue[messages.Message], msg messages.Message) {
	if o.cfg.Backpressure == BackpressureWait || msg.Event != messages.EventPart && msg.Event != messages.EventPreviewTone {
		if err := q.Push(o.ctx, msg); err != nil {
			o.recordFlow("message_drop", msg)
		}
		return
	}
	if !q.TryPush(msg) {
		o.recordFlow("message_drop", msg)
	}
}

func (o *orchestrator) recordStage(name string, msg messages.Message, start time.Time) {
	if o.obs == nil {
		return
	}
	o.obs.RecordEvent(metrics.MetricsEvent{
		Name:  "stage_latency_us",
		Time:  time.Now(),
		Value: float64(time.Since(start).Microseconds()),
		Tags: map[string]string{
			"processor":  name,
			"session_id": msg.ID,
			"event":      string(msg.Event),
		},
	})
}

func (o *orchestrator) recordFlow(name string, msg messages.Message) {
	if o.obs == nil {
		return
	}
	o.obs.RecordEvent(metrics.MetricsEvent{
		Name: name,
		Time: time.Now(),
		Tags: map[string]string{
			"session_id": msg.ID,
			"event":      string(msg.Event),
		},
	})
}
