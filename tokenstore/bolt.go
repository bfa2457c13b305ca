package tokenstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/consultdesk/apiclient/logger"
)

// expiryBytes prefixes every stored value with a big-endian unix expiry.
// Zero means the value never expires.
const expiryBytes = 8

var errBucketMissing = errors.New("bucket missing")

// Bolt persists tokens in a bbolt bucket so a session survives restarts.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger
}

// OpenBolt opens (or creates) the database file and its bucket.
func OpenBolt(cfg BoltConfig, ttl time.Duration, log *logger.Logger) (*Bolt, error) {
	if log == nil {
		log = logger.WithComponent("tokenstore")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "session"
	}
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("tokenstore: create directory: %w", err)
		}
	}

	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("tokenstore: open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("tokenstore: init bucket: %w", err)
	}

	log.Info("bolt token store opened", logger.Fields(
		logger.FieldPath, cfg.Path,
		logger.FieldStoreType, DriverBolt,
	))
	return &Bolt{db: db, bucket: []byte(cfg.Bucket), ttl: ttl, now: time.Now, log: log}, nil
}

// Get returns the token; an expired entry is deleted and reported missing.
func (b *Bolt) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.update(func(bucket *bolt.Bucket) error {
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		v, expired := b.decode(raw)
		if expired {
			b.log.Debug("token expired", logger.Fields(logger.FieldStoreKey, key))
			return bucket.Delete([]byte(key))
		}
		value, found = v, true
		return nil
	})
	if err != nil {
		return "", false, b.wrap("get", key, err)
	}
	return value, found, nil
}

func (b *Bolt) Set(_ context.Context, key, value string) error {
	buf := make([]byte, expiryBytes+len(value))
	if b.ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(b.now().Add(b.ttl).Unix()))
	}
	copy(buf[expiryBytes:], value)

	err := b.update(func(bucket *bolt.Bucket) error {
		return bucket.Put([]byte(key), buf)
	})
	return b.wrap("set", key, err)
}

func (b *Bolt) Remove(_ context.Context, key string) error {
	err := b.update(func(bucket *bolt.Bucket) error {
		return bucket.Delete([]byte(key))
	})
	return b.wrap("remove", key, err)
}

// Close closes the database file.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) update(fn func(*bolt.Bucket) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("%w: %s", errBucketMissing, b.bucket)
		}
		return fn(bucket)
	})
}

// decode splits a stored value; malformed entries count as expired.
func (b *Bolt) decode(raw []byte) (string, bool) {
	if len(raw) < expiryBytes {
		return "", true
	}
	unix := int64(binary.BigEndian.Uint64(raw[:expiryBytes]))
	if unix != 0 && !time.Unix(unix, 0).After(b.now()) {
		return "", true
	}
	return string(raw[expiryBytes:]), false
}

func (b *Bolt) wrap(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bolt.ErrDatabaseNotOpen):
		return ErrClosed
	default:
		return fmt.Errorf("tokenstore: bolt %s %q: %w", op, key, err)
	}
}
