package httpclient

import (
	"fmt"
	"maps"
	"time"

	"github.com/consultdesk/apiclient/validation"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prefixed to every relative request URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,http_url"`

	// Timeout is the per-call deadline. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Headers are default headers sent with every request. Per-call headers
	// override them key by key. Defaults to a JSON Content-Type.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// DefaultHeaders returns the headers used when Config.Headers is nil.
func DefaultHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Headers == nil {
		c.Headers = DefaultHeaders()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}

// clone returns a deep copy so in-flight calls never observe later updates.
func (c Config) clone() Config {
	c.Headers = maps.Clone(c.Headers)
	return c
}

// ConfigPatch is a shallow update applied by Client.SetConfig. Nil fields
// are left untouched; a non-nil Headers map replaces the defaults as a whole.
type ConfigPatch struct {
	BaseURL *string
	Timeout *time.Duration
	Headers map[string]string
}

// WithBaseURL returns a copy of the patch that sets the base URL.
func (p ConfigPatch) WithBaseURL(u string) ConfigPatch {
	p.BaseURL = &u
	return p
}

// WithTimeout returns a copy of the patch that sets the timeout.
func (p ConfigPatch) WithTimeout(d time.Duration) ConfigPatch {
	p.Timeout = &d
	return p
}

// WithHeaders returns a copy of the patch that replaces the default headers.
func (p ConfigPatch) WithHeaders(h map[string]string) ConfigPatch {
	p.Headers = h
	return p
}

// apply merges the patch into cfg and validates the result.
func (p ConfigPatch) apply(cfg Config) (Config, error) {
	next := cfg.clone()
	if p.BaseURL != nil {
		next.BaseURL = *p.BaseURL
	}
	if p.Timeout != nil {
		next.Timeout = *p.Timeout
	}
	if p.Headers != nil {
		next.Headers = maps.Clone(p.Headers)
	}
	if err := next.Validate(); err != nil {
		return cfg, err
	}
	return next, nil
}
