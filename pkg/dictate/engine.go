package dictate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxkit/dictate/pkg/metrics"
	"github.com/voxkit/dictate/pkg/observers"
	"github.com/voxkit/dictate/pkg/pipeline"
	"github.com/voxkit/dictate/pkg/redact"
	"github.com/voxkit/dictate/pkg/runner"
	"github.com/voxkit/dictate/pkg/transports"
)

type Engine struct {
	cfg       Config
	registry  *pipeline.SessionRegistry
	transport transports.Transport
	providers *ProviderRegistry
	runner    *pipeline.Runner
	asyncObs  *metrics.AsyncObserver
	ctx       context.Context
	cancel    context.CancelFunc
}

type EngineOptions struct {
	Config    Config
	Providers *ProviderRegistry
	Transport transports.Transport
	// Optional stage extensions. PreStages run before the core chain,
	// PostStages after it, per session.
	PreStages  []pipeline.Stage
	PostStages []pipeline.Stage
	// Extra observers appended to the built-in set.
	Observers []metrics.Observer
}

func NewEngine(opts EngineOptions) *Engine {
	cfg := opts.Config
	SetDefaultLogger(cfg.LogLevel)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	slog.Info("dictate_init",
		"environment", cfg.Environment,
		"asr_provider", cfg.Vendors.ASR.Provider,
		"grammar_provider", cfg.Vendors.Grammar.Provider,
		"tone_mode", cfg.Tone.Mode,
	)

	latencyObs := observers.NewLatencyObserver(slog.Default())
	logObs := observers.NewLoggerObserver(slog.Default())
	var timelineObs *observers.TimelineObserver
	var costObs *observers.CostObserver
	obsList := []metrics.Observer{latencyObs, logObs}
	if dir := strings.TrimSpace(cfg.Observability.ArtifactsDir); dir != "" {
		if cfg.Observability.RetentionDays > 0 {
			_, _ = observers.PurgeArtifacts(dir, time.Duration(cfg.Observability.RetentionDays)*24*time.Hour)
		}
		timelineObs = observers.NewTimelineObserver(dir)
		costObs = observers.NewCostObserver(dir)
		obsList = append(obsList, timelineObs, costObs)
	}
	obsList = append(obsList, opts.Observers...)
	multiObs := observers.NewMultiObserver(obsList...)
	asyncObs := metrics.NewAsyncObserver(multiObs, 2048)

	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviderRegistry()
	}

	sessionOpts := sessionOptions{
		preStages:  opts.PreStages,
		postStages: opts.PostStages,
	}

	registry := pipeline.NewSessionRegistry(func(ctx context.Context, sessionID, traceID string) (pipeline.Processor, error) {
		return newSessionProcessor(ctx, cfg, providers, asyncObs, sessionID, traceID, sessionOpts)
	})

	hooks := runner.Hooks{
		OnStart: func() {
			fields := []any{"message", "Dictation Engine Ready"}
			if rr, ok := opts.Transport.(transports.ReadyReporter); ok {
				for k, v := range rr.ReadyFields() {
					fields = append(fields, k, v)
				}
			}
			slog.Info("engine_ready", fields...)
		},
		OnStop: func() {
			if asyncObs != nil {
				asyncObs.Close()
			}
			if timelineObs != nil {
				_ = timelineObs.Close()
			}
			if costObs != nil {
				_ = costObs.Close()
			}
			slog.Info("shutdown", "goroutines", runtime.NumGoroutine(), "active_sessions", registry.Count())
		},
	}

	drainer := pipeline.DrainerFunc(func() error {
		if opts.Transport != nil {
			_ = opts.Transport.Stop()
		}
		registry.SetDraining(true)
		registry.CloseAll()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		_ = registry.WaitForEmpty(ctx, 200*time.Millisecond)
		return nil
	})

	lr := pipeline.NewDrainRunner(drainer, hooks, 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		cfg:       cfg,
		registry:  registry,
		transport: opts.Transport,
		providers: providers,
		runner:    lr,
		asyncObs:  asyncObs,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (e *Engine) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.transport != nil {
		if err := e.transport.Start(ctx); err != nil {
			return err
		}
		go e.routeTransport(ctx)
	}
	go func() {
		_ = e.runner.Run(ctx)
	}()
	return nil
}

func (e *Engine) Stop() error {
	if e.cancel != nil {
		e.cancel()
	}
	return e.runner.Stop()
}

// routeTransport moves inbound audio packets into per-session processors
// and, on first sight of a session, starts pumping its output back to
// the transport.
func (e *Engine) routeTransport(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-e.transport.Recv():
			if !ok {
				return
			}
			if p.SessionID == "" {
				continue
			}
			if e.registry.Draining() {
				continue
			}
			traceID := p.TraceID
			if traceID == "" {
				traceID = uuid.NewString()
			}
			sess, created, err := e.registry.GetOrCreate(p.SessionID, traceID)
			if err != nil {
				slog.Warn("session_create_failed", "session_id", redact.Text(p.SessionID), "error", err)
				continue
			}
			if created {
				go e.pumpSession(sess)
			}
			if e.asyncObs != nil && len(p.Frame.Samples) > 0 {
				e.asyncObs.RecordEvent(metrics.MetricsEvent{
					Name: "audio_in",
					Time: time.Now(),
					Tags: map[string]string{
						"session_id": p.SessionID,
						"trace_id":   sess.TraceID,
						"component":  "transport",
					},
					Fields: map[string]any{"samples": len(p.Frame.Samples)},
				})
			}
			// Routing serves every session; a full queue on one must
			// not stall the rest, so frames are dropped instead of
			// waiting.
			if len(p.Frame.Samples) > 0 && !sess.Proc.Audio().TryPush(p.Frame) {
				if e.asyncObs != nil {
					e.asyncObs.RecordEvent(metrics.MetricsEvent{
						Name: "audio_drop",
						Time: time.Now(),
						Tags: map[string]string{
							"session_id": p.SessionID,
							"trace_id":   sess.TraceID,
							"component":  "transport",
						},
					})
				}
			}
			if p.Last {
				sess.Proc.Audio().Close()
			}
		}
	}
}

// pumpSession forwards a session's output to the transport and removes
// the session once its pipeline has drained.
func (e *Engine) pumpSession(sess *pipeline.Session) {
	defer e.registry.Remove(sess.ID)
	for {
		msg, ok := sess.Proc.Out().Pop(sess.Ctx)
		if !ok {
			return
		}
		if e.asyncObs != nil {
			e.asyncObs.RecordEvent(metrics.MetricsEvent{
				Name: "message_sent",
				Time: time.Now(),
				Tags: map[string]string{
					"session_id": sess.ID,
					"trace_id":   sess.TraceID,
					"event":      string(msg.Event),
				},
			})
		}
		if err := e.transport.Send(msg); err != nil {
			slog.Warn("transport_send_failed", "session_id", redact.Text(sess.ID), "error", err)
		}
	}
}

func SetDefaultLogger(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func (e *Engine) ProviderRegistry() *ProviderRegistry {
	return e.providers
}

func (e *Engine) Transport() transports.Transport {
	return e.transport
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Registry() *pipeline.SessionRegistry {
	return e.registry
}

func (e *Engine) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *Engine) Health() error {
	if e.transport == nil {
		return fmt.Errorf("missing transport")
	}
	return nil
}
