package tokenstore

import (
	"fmt"
	"time"

	"github.com/consultdesk/apiclient/validation"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
)

// Config selects and configures the token store backend.
type Config struct {
	// Driver is one of memory, redis or bolt. Defaults to memory.
	Driver string `yaml:"driver" mapstructure:"driver" validate:"oneof=memory redis bolt"`

	// TTL expires stored tokens (e.g. "12h"). Empty means no expiry.
	// The memory driver ignores it.
	TTL string `yaml:"ttl" mapstructure:"ttl"`

	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	Bolt  BoltConfig  `yaml:"bolt" mapstructure:"bolt"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Password is the Redis server password.
	Password string `yaml:"password" mapstructure:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db" mapstructure:"db" validate:"gte=0"`

	// KeyPrefix is prepended to every key, followed by a colon.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// DialTimeout is the timeout for establishing new connections (e.g. "5s").
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout is the timeout for socket reads (e.g. "3s").
	ReadTimeout string `yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout is the timeout for socket writes (e.g. "3s").
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// BoltConfig holds the on-disk store settings.
type BoltConfig struct {
	// Path is the database file. Parent directories are created.
	Path string `yaml:"path" mapstructure:"path"`

	// Bucket defaults to "session".
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "consultdesk"
	}
	if c.Redis.PoolSize <= 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MaxRetries <= 0 {
		c.Redis.MaxRetries = 3
	}
	if c.Redis.DialTimeout == "" {
		c.Redis.DialTimeout = "5s"
	}
	if c.Redis.ReadTimeout == "" {
		c.Redis.ReadTimeout = "3s"
	}
	if c.Redis.WriteTimeout == "" {
		c.Redis.WriteTimeout = "3s"
	}
	if c.Bolt.Bucket == "" {
		c.Bolt.Bucket = "session"
	}
}

// Validate checks that the selected driver has what it needs.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("tokenstore: %w", err)
	}
	if _, err := c.ttl(); err != nil {
		return err
	}
	switch c.Driver {
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("tokenstore: redis addr is required")
		}
		for name, v := range map[string]string{
			"dial_timeout":  c.Redis.DialTimeout,
			"read_timeout":  c.Redis.ReadTimeout,
			"write_timeout": c.Redis.WriteTimeout,
		} {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("tokenstore: invalid redis %s %q: %w", name, v, err)
			}
		}
	case DriverBolt:
		if c.Bolt.Path == "" {
			return fmt.Errorf("tokenstore: bolt path is required")
		}
	}
	return nil
}

func (c *Config) ttl() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("tokenstore: invalid ttl %q", c.TTL)
	}
	return d, nil
}
