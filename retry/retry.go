// Package retry repeats failed API calls on the caller side. The client
// performs exactly one attempt per call; callers that want more wrap the
// call in Do.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/consultdesk/apiclient/httpclient"
	"github.com/consultdesk/apiclient/validation"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0,lte=10"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// Factor multiplies the delay after each attempt.
	Factor float64 `yaml:"factor" mapstructure:"factor"`
	// Jitter randomizes each delay by up to this fraction (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`

	// RetryIf decides whether err is worth another attempt.
	// Defaults to httpclient.IsRetryable.
	RetryIf func(err error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultConfig returns a single-attempt config with backoff defaults set,
// so raising MaxAttempts is enough to enable retries.
func DefaultConfig() Config {
	c := Config{MaxAttempts: 1}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.Factor <= 0 {
		c.Factor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = httpclient.IsRetryable
	}
}

// Validate checks the attempt count and jitter range.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done. It returns the last result.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg.ApplyDefaults()

	var (
		result T
		err    error
	)
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return result, err
			}
			return result, ctxErr
		}

		result, err = fn(ctx)
		if err == nil || attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return result, err
		}

		wait := Backoff(cfg, attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, err
		case <-timer.C:
		}
	}
}

// Backoff returns the delay after the given attempt (1-based):
// InitialBackoff * Factor^(attempt-1), jittered and capped at MaxBackoff.
func Backoff(cfg Config, attempt int) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.Factor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	if d < 0 {
		d = float64(cfg.InitialBackoff)
	}
	return time.Duration(d)
}
