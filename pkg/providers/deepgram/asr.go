package deepgram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxkit/dictate/pkg/adapters/asr"
	"github.com/voxkit/dictate/pkg/audio"
	"github.com/voxkit/dictate/pkg/errorsx"
	"github.com/voxkit/dictate/pkg/logging"
	"github.com/voxkit/dictate/pkg/resilience"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

type Config struct {
	APIKey     string
	Model      string
	Language   string
	SampleRate int
	SessionID  string
	TraceID    string
	// MinRMS short-circuits windows that are effectively silence so no
	// request is made for them.
	MinRMS  float64
	Timeout time.Duration

	MaxRetries int
	Backoff    time.Duration
}

// Transcriber sends buffered audio windows to Deepgram's prerecorded
// endpoint. Windows are small (seconds, not minutes) so a synchronous
// request per window keeps the coordinator loop simple.
type Transcriber struct {
	cfg    Config
	api    *listenv1rest.Client
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func New(cfg Config) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.MinRMS <= 0 {
		cfg.MinRMS = 0.005
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	rest := client.NewREST(cfg.APIKey, &interfaces.ClientOptions{})

	return &Transcriber{
		cfg:    cfg,
		api:    listenv1rest.New(rest),
		retry:  resilience.NewRetryPolicy(cfg.MaxRetries, cfg.Backoff),
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_asr"),
	}
}

func (t *Transcriber) Name() string { return "deepgram_asr" }

func (t *Transcriber) Transcribe(ctx context.Context, frame audio.Frame) (asr.Result, error) {
	if audio.RMS(frame.Samples) < t.cfg.MinRMS {
		return asr.Result{NoSpeechProb: 1}, nil
	}

	wav := audio.EncodeWAV(frame.Samples, frame.Rate)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		SmartFormat: true,
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	var result asr.Result
	err := t.retry.Do(func() error {
		resp, reqErr := t.api.FromStream(reqCtx, bytes.NewReader(wav), options)
		if reqErr != nil {
			t.logger.Warn("deepgram_request_failed",
				slog.String("session_id", t.cfg.SessionID),
				slog.String("error", reqErr.Error()))
			return reqErr
		}
		if resp == nil || len(resp.Results.Channels) == 0 {
			return fmt.Errorf("empty response")
		}
		alts := resp.Results.Channels[0].Alternatives
		if len(alts) == 0 {
			result = asr.Result{NoSpeechProb: 1}
			return nil
		}
		result = asr.Result{Text: alts[0].Transcript, Confidence: alts[0].Confidence}
		if result.Text == "" {
			result.NoSpeechProb = 1
		}
		return nil
	})
	if err != nil {
		return asr.Result{}, errorsx.Wrap(err, errorsx.ReasonASRTranscribe)
	}

	t.logger.Debug("transcript_received",
		slog.String("session_id", t.cfg.SessionID),
		slog.Float64("confidence", result.Confidence),
		slog.Int("chars", len(result.Text)))
	return result, nil
}

func (t *Transcriber) Close() error { return nil }

var _ asr.Transcriber = (*Transcriber)(nil)
