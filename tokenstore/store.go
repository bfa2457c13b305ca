package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/consultdesk/apiclient/logger"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("tokenstore: store is closed")

// Store is a string key-value store for session credentials.
// It satisfies httpclient.TokenSource.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value, replacing any previous one.
	Set(ctx context.Context, key, value string) error
	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the backend. Safe to call multiple times.
	Close() error
}

// New creates the store selected by cfg.Driver.
func New(cfg Config, log *logger.Logger) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.WithComponent("tokenstore")
	}
	ttl, _ := cfg.ttl()

	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(cfg.Redis, ttl, log)
	case DriverBolt:
		return OpenBolt(cfg.Bolt, ttl, log)
	default:
		return nil, fmt.Errorf("tokenstore: unsupported driver %q", cfg.Driver)
	}
}
