package dictate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/voxkit/dictate/pkg/adapters/asr"
	"github.com/voxkit/dictate/pkg/adapters/gec"
	"github.com/voxkit/dictate/pkg/assembler"
	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/coordinator"
	"github.com/voxkit/dictate/pkg/dedup"
	"github.com/voxkit/dictate/pkg/disfluency"
	"github.com/voxkit/dictate/pkg/grammar"
	"github.com/voxkit/dictate/pkg/messages"
	"github.com/voxkit/dictate/pkg/metrics"
	"github.com/voxkit/dictate/pkg/pipeline"
	"github.com/voxkit/dictate/pkg/queue"
	"github.com/voxkit/dictate/pkg/tone"
)

// sessionProcessor couples a coordinator with a stage chain for one
// session. Audio goes into the coordinator; its PART / AUTO_STOP /
// END_ASR stream feeds the orchestrator, whose Out carries the final
// message sequence. When the coordinator returns, the chain input is
// closed so the orchestrator drains and enforces the END_TONE contract.
type sessionProcessor struct {
	id    string
	coord *coordinator.Coordinator
	orch  pipeline.Orchestrator
	audio *queue.Queue[audio.Frame]

	transcriber asr.Transcriber
	corrector   gec.Corrector

	ctx      context.Context
	logger   *slog.Logger
	stopOnce sync.Once
}

type sessionOptions struct {
	preStages  []pipeline.Stage
	postStages []pipeline.Stage
}

func newSessionProcessor(ctx context.Context, cfg Config, providers *ProviderRegistry, obs metrics.Observer, sessionID, traceID string, opts sessionOptions) (*sessionProcessor, error) {
	transcriber, err := providers.BuildASR(cfg.Vendors.ASR.Provider, cfg, sessionID, traceID)
	if err != nil {
		return nil, err
	}

	var corrector gec.Corrector
	if cfg.Vendors.Grammar.Provider != "" {
		corrector, err = providers.BuildGrammar(cfg.Vendors.Grammar.Provider, cfg, sessionID)
		if err != nil {
			_ = transcriber.Close()
			return nil, err
		}
	}

	builder := pipeline.NewDictationBuilder()
	for _, s := range opts.preStages {
		if s != nil {
			builder = builder.WithNormalizer(s)
		}
	}
	builder = builder.
		WithDisfluency(disfluency.NewWorker(cfg.disfluencyConfig(), dedup.NewRollingWindow(cfg.dedupConfig()))).
		WithGrammar(grammar.NewStage(corrector)).
		WithAssembler(assembler.New(tone.NewTransformer(cfg.toneMode())))
	for _, s := range opts.postStages {
		if s != nil {
			builder = builder.WithSink(s)
		}
	}

	orch := builder.Build(cfg.Pipeline)
	orch.SetContext(ctx)
	orch.SetObserver(obs)

	buffer := cfg.Pipeline.StageBuffer
	if buffer <= 0 {
		buffer = 64
	}

	return &sessionProcessor{
		id:          sessionID,
		coord:       coordinator.New(cfg.coordinatorConfig(), transcriber, obs),
		orch:        orch,
		audio:       queue.New[audio.Frame](buffer),
		transcriber: transcriber,
		corrector:   corrector,
		ctx:         ctx,
		logger:      slog.Default().With("component", "session", "session_id", sessionID),
	}, nil
}

func (p *sessionProcessor) Start() error {
	if err := p.orch.Start(); err != nil {
		return err
	}
	go func() {
		if err := p.coord.Run(p.ctx, p.id, p.audio, p.orch.In()); err != nil {
			p.logger.Warn("coordinator_exit", "error", err)
		}
		p.orch.In().Close()
	}()
	return nil
}

func (p *sessionProcessor) Stop() error {
	p.stopOnce.Do(func() {
		p.audio.Close()
		_ = p.orch.Stop()
		_ = p.transcriber.Close()
		if p.corrector != nil {
			_ = p.corrector.Close()
		}
	})
	return nil
}

func (p *sessionProcessor) Audio() *queue.Queue[audio.Frame]    { return p.audio }
func (p *sessionProcessor) Out() *queue.Queue[messages.Message] { return p.orch.Out() }

// Done is closed once the orchestrator has drained.
func (p *sessionProcessor) Done() <-chan struct{} { return p.orch.Done() }

var _ pipeline.Processor = (*sessionProcessor)(nil)
