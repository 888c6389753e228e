package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// PebbleConfig configures the on-disk backend.
type PebbleConfig struct {
	Path string `yaml:"path"`
	// CacheMB sizes the block cache. Zero uses pebble's default.
	CacheMB int `yaml:"cache_mb"`
}

// PebbleStore is a Store backed by an on-disk pebble database. Expiry is
// encoded with each value and enforced lazily on read.
type PebbleStore struct {
	db     *pebble.DB
	logger *zap.Logger
	closed atomic.Bool
	now    func() time.Time
}

// NewPebbleStore opens (or creates) a pebble-backed store at cfg.Path.
func NewPebbleStore(cfg PebbleConfig, logger *zap.Logger) (*PebbleStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("pebble store: path is required")
	}

	opts := &pebble.Options{}
	if cfg.CacheMB > 0 {
		opts.Cache = pebble.NewCache(int64(cfg.CacheMB) << 20)
	}

	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble store: open %s: %w", cfg.Path, err)
	}

	return &PebbleStore{
		db:     db,
		logger: logger.Named("kvstore"),
		now:    time.Now,
	}, nil
}

// Each record is an 8-byte big-endian unix-nano expiry (zero means no
// expiry) followed by the value bytes.
const expiryLen = 8

func encodeRecord(value []byte, expiresAt time.Time) []byte {
	record := make([]byte, expiryLen+len(value))
	if !expiresAt.IsZero() {
		binary.BigEndian.PutUint64(record, uint64(expiresAt.UnixNano()))
	}
	copy(record[expiryLen:], value)
	return record
}

func decodeRecord(record []byte) (value []byte, expiresAt time.Time, err error) {
	if len(record) < expiryLen {
		return nil, time.Time{}, fmt.Errorf("record too short: %d bytes", len(record))
	}
	nanos := binary.BigEndian.Uint64(record)
	if nanos != 0 {
		expiresAt = time.Unix(0, int64(nanos))
	}
	value = make([]byte, len(record)-expiryLen)
	copy(value, record[expiryLen:])
	return value, expiresAt, nil
}

func (s *PebbleStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if key == "" {
		return nil, ErrInvalidKey
	}

	record, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pebble store: get %s: %w", key, err)
	}

	value, expiresAt, err := decodeRecord(record)
	closer.Close()
	if err != nil {
		return nil, fmt.Errorf("pebble store: decode %s: %w", key, err)
	}

	if !expiresAt.IsZero() && s.now().After(expiresAt) {
		if err := s.db.Delete([]byte(key), pebble.NoSync); err != nil {
			s.logger.Warn("failed to purge expired key", zap.String("key", key), zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *PebbleStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrInvalidKey
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	if err := s.db.Set([]byte(key), encodeRecord(value, expiresAt), pebble.Sync); err != nil {
		return fmt.Errorf("pebble store: put %s: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble store: delete %s: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
