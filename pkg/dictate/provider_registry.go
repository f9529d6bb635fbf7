package dictate

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxkit/dictate/pkg/adapters/asr"
	"github.com/voxkit/dictate/pkg/adapters/gec"
	"github.com/voxkit/dictate/pkg/configutil"
	"github.com/voxkit/dictate/pkg/errorsx"
	"github.com/voxkit/dictate/pkg/providers/deepgram"
	"github.com/voxkit/dictate/pkg/providers/mock"
)

type ASRFactory func(cfg Config, sessionID, traceID string) (asr.Transcriber, error)
type GrammarFactory func(cfg Config, sessionID string) (gec.Corrector, error)

type ProviderRegistry struct {
	asr     map[string]ASRFactory
	grammar map[string]GrammarFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		asr:     make(map[string]ASRFactory),
		grammar: make(map[string]GrammarFactory),
	}
}

// DefaultProviderRegistry returns a registry with the built-in providers:
// deepgram and mock for recognition, mock for grammar correction.
func DefaultProviderRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.RegisterASR("deepgram", buildDeepgramASR)
	r.RegisterASR("mock", buildMockASR)
	r.RegisterGrammar("mock", buildMockGrammar)
	return r
}

func (r *ProviderRegistry) RegisterASR(name string, factory ASRFactory) {
	r.asr[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) RegisterGrammar(name string, factory GrammarFactory) {
	r.grammar[strings.ToLower(strings.TrimSpace(name))] = factory
}

func (r *ProviderRegistry) BuildASR(provider string, cfg Config, sessionID, traceID string) (asr.Transcriber, error) {
	fn := r.asr[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, errorsx.Wrap(fmt.Errorf("asr provider not registered: %s", provider), errorsx.ReasonProviderNotRegistered)
	}
	return fn(cfg, sessionID, traceID)
}

func (r *ProviderRegistry) BuildGrammar(provider string, cfg Config, sessionID string) (gec.Corrector, error) {
	fn := r.grammar[strings.ToLower(strings.TrimSpace(provider))]
	if fn == nil {
		return nil, errorsx.Wrap(fmt.Errorf("grammar provider not registered: %s", provider), errorsx.ReasonProviderNotRegistered)
	}
	return fn(cfg, sessionID)
}

type deepgramSettings struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Language   string `mapstructure:"language"`
	TimeoutMS  int    `mapstructure:"timeout_ms"`
	MaxRetries int    `mapstructure:"max_retries"`
	BackoffMS  int    `mapstructure:"backoff_ms"`
}

func buildDeepgramASR(cfg Config, sessionID, traceID string) (asr.Transcriber, error) {
	if err := configutil.ValidateSettings(cfg.Vendors.ASR.Settings, configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "language", "timeout_ms", "max_retries", "backoff_ms"},
	}); err != nil {
		return nil, fmt.Errorf("deepgram settings: %w", err)
	}
	var s deepgramSettings
	if err := configutil.DecodeSettings(cfg.Vendors.ASR.Settings, &s); err != nil {
		return nil, fmt.Errorf("deepgram settings: %w", err)
	}
	return deepgram.New(deepgram.Config{
		APIKey:     s.APIKey,
		Model:      s.Model,
		Language:   s.Language,
		SampleRate: cfg.Coordinator.SampleRate,
		SessionID:  sessionID,
		TraceID:    traceID,
		MinRMS:     cfg.Coordinator.MinRMS,
		Timeout:    time.Duration(s.TimeoutMS) * time.Millisecond,
		MaxRetries: s.MaxRetries,
		Backoff:    time.Duration(s.BackoffMS) * time.Millisecond,
	}), nil
}

type mockASRSettings struct {
	Transcripts []string  `mapstructure:"transcripts"`
	Confidence  []float64 `mapstructure:"confidence"`
}

func buildMockASR(cfg Config, sessionID, _ string) (asr.Transcriber, error) {
	var s mockASRSettings
	if err := configutil.DecodeSettings(cfg.Vendors.ASR.Settings, &s); err != nil {
		return nil, fmt.Errorf("mock asr settings: %w", err)
	}
	script := make([]asr.Result, 0, len(s.Transcripts))
	for i, text := range s.Transcripts {
		conf := 0.9
		if i < len(s.Confidence) {
			conf = s.Confidence[i]
		}
		script = append(script, asr.Result{Text: text, Confidence: conf})
	}
	return mock.NewTranscriber(mock.ASRConfig{SessionID: sessionID, Script: script}), nil
}

type mockGrammarSettings struct {
	Replacements map[string]string `mapstructure:"replacements"`
}

func buildMockGrammar(cfg Config, _ string) (gec.Corrector, error) {
	var s mockGrammarSettings
	if err := configutil.DecodeSettings(cfg.Vendors.Grammar.Settings, &s); err != nil {
		return nil, fmt.Errorf("mock grammar settings: %w", err)
	}
	return mock.NewCorrector(mock.GECConfig{Replacements: s.Replacements}), nil
}
