package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/voxkit/dictate/pkg/adapters/gec"
)

// GECConfig configures the rule-based corrector. Replacements are plain
// substring substitutions applied in one pass. A non-nil Err makes every
// call fail.
type GECConfig struct {
	Replacements map[string]string
	Err          error
}

type Corrector struct {
	cfg      GECConfig
	replacer *strings.Replacer
	mu       sync.Mutex
	calls    int
}

func NewCorrector(cfg GECConfig) *Corrector {
	pairs := make([]string, 0, len(cfg.Replacements)*2)
	for from, to := range cfg.Replacements {
		pairs = append(pairs, from, to)
	}
	return &Corrector{cfg: cfg, replacer: strings.NewReplacer(pairs...)}
}

func (c *Corrector) Name() string { return "mock_gec" }

func (c *Corrector) Correct(_ context.Context, text string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.cfg.Err != nil {
		return "", c.cfg.Err
	}
	return c.replacer.Replace(text), nil
}

func (c *Corrector) Close() error { return nil }

func (c *Corrector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

var _ gec.Corrector = (*Corrector)(nil)
