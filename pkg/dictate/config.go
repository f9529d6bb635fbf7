package dictate

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/coordinator"
	"github.com/voxkit/dictate/pkg/dedup"
	"github.com/voxkit/dictate/pkg/disfluency"
	"github.com/voxkit/dictate/pkg/pipeline"
	"github.com/voxkit/dictate/pkg/tone"
	"github.com/voxkit/dictate/pkg/vad"
)

type Config struct {
	Pipeline      pipeline.Config
	Coordinator   CoordinatorConfig   `mapstructure:"coordinator"`
	VAD           VADConfig           `mapstructure:"vad"`
	Dedup         DedupConfig         `mapstructure:"dedup"`
	Disfluency    DisfluencyConfig    `mapstructure:"disfluency"`
	Tone          ToneConfig          `mapstructure:"tone"`
	Vendors       VendorsConfig       `mapstructure:"vendors"`
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	ASR     VendorConfig `mapstructure:"asr"`
	Grammar VendorConfig `mapstructure:"grammar"`
}

// CoordinatorConfig carries the recognition thresholds. Durations are
// expressed in milliseconds so the YAML stays unit-explicit.
type CoordinatorConfig struct {
	SampleRate             int     `mapstructure:"sample_rate"`
	BufferSeconds          int     `mapstructure:"buffer_seconds"`
	ChunkMS                int     `mapstructure:"chunk_ms"`
	TranscribeEveryChunks  int     `mapstructure:"transcribe_every_chunks"`
	MinBufferChunks        int     `mapstructure:"min_buffer_chunks"`
	MinRMS                 float64 `mapstructure:"min_rms"`
	MaxNoSpeechProb        float64 `mapstructure:"max_no_speech_prob"`
	MinConfidence          float64 `mapstructure:"min_confidence"`
	MinCompleteConfidence  float64 `mapstructure:"min_complete_confidence"`
	MinFlushConfidence     float64 `mapstructure:"min_flush_confidence"`
	MinTranscriptChars     int     `mapstructure:"min_transcript_chars"`
	CompleteWords          int     `mapstructure:"complete_words"`
	SignificanceOverlap    float64 `mapstructure:"significance_overlap"`
	SignificantPrefixRatio float64 `mapstructure:"significant_prefix_ratio"`
	ASRDeadlineMS          int     `mapstructure:"asr_deadline_ms"`
	BreakerThreshold       int     `mapstructure:"breaker_threshold"`
	BreakerCooldownMS      int     `mapstructure:"breaker_cooldown_ms"`
}

type VADConfig struct {
	FrameDurationMS   int     `mapstructure:"frame_duration_ms"`
	WindowFrames      int     `mapstructure:"window_frames"`
	SpeechRatio       float64 `mapstructure:"speech_ratio"`
	EnergyThreshold   float64 `mapstructure:"energy_threshold"`
	SilenceDurationMS int     `mapstructure:"silence_duration_ms"`
}

type DedupConfig struct {
	WindowChars       int `mapstructure:"window_chars"`
	CompareChars      int `mapstructure:"compare_chars"`
	MaxOverlapWords   int `mapstructure:"max_overlap_words"`
	MinOverlapWords   int `mapstructure:"min_overlap_words"`
	MinCharOverlap    int `mapstructure:"min_char_overlap"`
	SubstringMinChars int `mapstructure:"substring_min_chars"`
}

type DisfluencyConfig struct {
	ContextTokens int      `mapstructure:"context_tokens"`
	BigramWindow  int      `mapstructure:"bigram_window"`
	Fillers       []string `mapstructure:"fillers"`
}

type ToneConfig struct {
	Mode string `mapstructure:"mode"`
}

type ObservabilityConfig struct {
	ArtifactsDir  string `mapstructure:"artifacts_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("pipeline.stage_buffer", 64)
	v.SetDefault("pipeline.backpressure", "drop")
	v.SetDefault("pipeline.finalize_timeout_ms", 30000)
	v.SetDefault("coordinator.sample_rate", 16000)
	v.SetDefault("coordinator.buffer_seconds", 30)
	v.SetDefault("coordinator.chunk_ms", 100)
	v.SetDefault("coordinator.transcribe_every_chunks", 15)
	v.SetDefault("coordinator.min_buffer_chunks", 2)
	v.SetDefault("coordinator.min_rms", 0.005)
	v.SetDefault("coordinator.max_no_speech_prob", 0.5)
	v.SetDefault("coordinator.min_confidence", 0.6)
	v.SetDefault("coordinator.min_complete_confidence", 0.4)
	v.SetDefault("coordinator.min_flush_confidence", 0.5)
	v.SetDefault("coordinator.min_transcript_chars", 2)
	v.SetDefault("coordinator.complete_words", 5)
	v.SetDefault("coordinator.significance_overlap", 0.8)
	v.SetDefault("coordinator.significant_prefix_ratio", 0.8)
	v.SetDefault("coordinator.asr_deadline_ms", 5000)
	v.SetDefault("coordinator.breaker_threshold", 3)
	v.SetDefault("coordinator.breaker_cooldown_ms", 10000)
	v.SetDefault("vad.frame_duration_ms", 30)
	v.SetDefault("vad.window_frames", 30)
	v.SetDefault("vad.speech_ratio", 0.3)
	v.SetDefault("vad.energy_threshold", 0.01)
	v.SetDefault("vad.silence_duration_ms", 2500)
	v.SetDefault("dedup.window_chars", 60)
	v.SetDefault("dedup.compare_chars", 30)
	v.SetDefault("dedup.max_overlap_words", 8)
	v.SetDefault("dedup.min_overlap_words", 2)
	v.SetDefault("dedup.min_char_overlap", 5)
	v.SetDefault("dedup.substring_min_chars", 10)
	v.SetDefault("disfluency.context_tokens", 30)
	v.SetDefault("disfluency.bigram_window", 6)
	v.SetDefault("tone.mode", "neutral")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("observability.artifacts_dir", "")
	v.SetDefault("observability.retention_days", 0)
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Pipeline struct {
			StageBuffer       int    `mapstructure:"stage_buffer"`
			Backpressure      string `mapstructure:"backpressure"`
			FinalizeTimeoutMS int    `mapstructure:"finalize_timeout_ms"`
		} `mapstructure:"pipeline"`
		Coordinator   CoordinatorConfig   `mapstructure:"coordinator"`
		VAD           VADConfig           `mapstructure:"vad"`
		Dedup         DedupConfig         `mapstructure:"dedup"`
		Disfluency    DisfluencyConfig    `mapstructure:"disfluency"`
		Tone          ToneConfig          `mapstructure:"tone"`
		Vendors       VendorsConfig       `mapstructure:"vendors"`
		Environment   string              `mapstructure:"environment"`
		LogLevel      string              `mapstructure:"log_level"`
		Observability ObservabilityConfig `mapstructure:"observability"`
		Privacy       PrivacyConfig       `mapstructure:"privacy"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	cfg := Config{
		Pipeline: pipeline.Config{
			StageBuffer:     raw.Pipeline.StageBuffer,
			Backpressure:    parseBackpressure(raw.Pipeline.Backpressure),
			FinalizeTimeout: time.Duration(raw.Pipeline.FinalizeTimeoutMS) * time.Millisecond,
		},
		Coordinator:   raw.Coordinator,
		VAD:           raw.VAD,
		Dedup:         raw.Dedup,
		Disfluency:    raw.Disfluency,
		Tone:          raw.Tone,
		Vendors:       raw.Vendors,
		Environment:   raw.Environment,
		LogLevel:      raw.LogLevel,
		Observability: raw.Observability,
		Privacy:       raw.Privacy,
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vendors.ASR.Provider) == "" {
		return fmt.Errorf("vendors.asr.provider is required")
	}
	return nil
}

func (c Config) coordinatorConfig() coordinator.Config {
	return coordinator.Config{
		SampleRate:             c.Coordinator.SampleRate,
		BufferSeconds:          c.Coordinator.BufferSeconds,
		ChunkSamples:           audio.FrameSamples(c.Coordinator.SampleRate, c.Coordinator.ChunkMS),
		TranscribeEveryChunks:  c.Coordinator.TranscribeEveryChunks,
		MinBufferChunks:        c.Coordinator.MinBufferChunks,
		MinRMS:                 c.Coordinator.MinRMS,
		MaxNoSpeechProb:        c.Coordinator.MaxNoSpeechProb,
		MinConfidence:          c.Coordinator.MinConfidence,
		MinCompleteConfidence:  c.Coordinator.MinCompleteConfidence,
		MinFlushConfidence:     c.Coordinator.MinFlushConfidence,
		MinTranscriptChars:     c.Coordinator.MinTranscriptChars,
		CompleteWords:          c.Coordinator.CompleteWords,
		SignificanceOverlap:    c.Coordinator.SignificanceOverlap,
		SignificantPrefixRatio: c.Coordinator.SignificantPrefixRatio,
		ASRDeadline:            time.Duration(c.Coordinator.ASRDeadlineMS) * time.Millisecond,
		BreakerThreshold:       c.Coordinator.BreakerThreshold,
		BreakerCooldown:        time.Duration(c.Coordinator.BreakerCooldownMS) * time.Millisecond,
		VAD: vad.Config{
			SampleRate:      c.Coordinator.SampleRate,
			FrameDurationMS: c.VAD.FrameDurationMS,
			WindowFrames:    c.VAD.WindowFrames,
			SpeechRatio:     c.VAD.SpeechRatio,
			EnergyThreshold: c.VAD.EnergyThreshold,
		},
		Segment: vad.SegmentConfig{
			SilenceDurationMS: c.VAD.SilenceDurationMS,
			FrameDurationMS:   c.VAD.FrameDurationMS,
		},
	}
}

func (c Config) dedupConfig() dedup.Config {
	return dedup.Config{
		WindowChars:       c.Dedup.WindowChars,
		CompareChars:      c.Dedup.CompareChars,
		MaxOverlapWords:   c.Dedup.MaxOverlapWords,
		MinOverlapWords:   c.Dedup.MinOverlapWords,
		MinCharOverlap:    c.Dedup.MinCharOverlap,
		SubstringMinChars: c.Dedup.SubstringMinChars,
	}
}

func (c Config) disfluencyConfig() disfluency.Config {
	return disfluency.Config{
		ContextTokens: c.Disfluency.ContextTokens,
		BigramWindow:  c.Disfluency.BigramWindow,
		Fillers:       c.Disfluency.Fillers,
	}
}

func (c Config) toneMode() tone.Mode {
	return tone.Mode(strings.ToLower(strings.TrimSpace(c.Tone.Mode)))
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.ASR.Settings = expandSettings(cfg.Vendors.ASR.Settings)
	cfg.Vendors.Grammar.Settings = expandSettings(cfg.Vendors.Grammar.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				val := v.MapIndex(key)
				expanded := os.ExpandEnv(val.String())
				v.SetMapIndex(key, reflect.ValueOf(expanded))
			}
		}
	}
}

func parseBackpressure(v string) pipeline.BackpressureMode {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "wait":
		return pipeline.BackpressureWait
	case "drop", "":
		return pipeline.BackpressureDrop
	default:
		if n, err := strconv.Atoi(v); err == nil {
			return pipeline.BackpressureMode(n)
		}
	}
	return pipeline.BackpressureDrop
}
