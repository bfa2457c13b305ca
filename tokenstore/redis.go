package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/consultdesk/apiclient/logger"
)

// Redis stores tokens in Redis under "<prefix>:<key>".
type Redis struct {
	rdb       *goredis.Client
	keyPrefix string
	ttl       time.Duration
	log       *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewRedis connects a go-redis client. It does not ping; use Ping to check
// reachability at startup.
func NewRedis(cfg RedisConfig, ttl time.Duration, log *logger.Logger) (*Redis, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: invalid redis dial_timeout: %w", err)
	}
	readTimeout, _ := time.ParseDuration(cfg.ReadTimeout)
	writeTimeout, _ := time.ParseDuration(cfg.WriteTimeout)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	log.Info("redis token store created", logger.Fields(
		"addr", cfg.Addr,
		"db", cfg.DB,
		"pool_size", cfg.PoolSize,
		logger.FieldStoreType, DriverRedis,
	))

	return NewRedisFromClient(rdb, cfg.KeyPrefix, ttl, log), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *goredis.Client, keyPrefix string, ttl time.Duration, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.WithComponent("tokenstore")
	}
	return &Redis{rdb: rdb, keyPrefix: keyPrefix, ttl: ttl, log: log}
}

func (r *Redis) fullKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + ":" + key
}

// Ping verifies the Redis connection is alive.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.fullKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, r.wrap("get", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.fullKey(key), value, r.ttl).Err(); err != nil {
		return r.wrap("set", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return r.wrap("remove", key, err)
	}
	return nil
}

// Close closes the Redis connection. Safe to call multiple times.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.log.Debug("closing redis token store")
	return r.rdb.Close()
}

func (r *Redis) wrap(op, key string, err error) error {
	if errors.Is(err, goredis.ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("tokenstore: redis %s %q: %w", op, key, err)
}
