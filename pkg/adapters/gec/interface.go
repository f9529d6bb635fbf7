package gec

import "context"

// Corrector defines the contract for any grammar-correction vendor
// implementation. Correctors rewrite a text window; callers decide how
// much surrounding context to include.
type Corrector interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Correct returns the corrected form of the given text.
	Correct(ctx context.Context, text string) (string, error)
	// Close releases vendor resources.
	Close() error
}

// Config contains vendor-agnostic corrector configuration.
type Config struct {
	SessionID string
	Language  string
}
