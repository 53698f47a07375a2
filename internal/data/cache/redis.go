package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisStore[T any] struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore shares snapshots between replicas as JSON under prefix.
func NewRedisStore[T any](rdb *goredis.Client, prefix string, ttl time.Duration) Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "greenlight"
	}
	return &redisStore[T]{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *redisStore[T]) key(k string) string { return s.prefix + ":" + k }

func (s *redisStore[T]) versionKey(k string) string { return s.prefix + ":v:" + k }

// maxWatchAttempts bounds optimistic retries of WATCH/MULTI transactions.
const maxWatchAttempts = 8

func (s *redisStore[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		// A payload from an older shape is treated as a miss.
		_ = s.Delete(ctx, key)
		return zero, false, nil
	}
	return out, true, nil
}

func (s *redisStore[T]) Version(ctx context.Context, key string) (uint64, error) {
	return readVersion(ctx, s.rdb, s.versionKey(key))
}

type stringGetter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func readVersion(ctx context.Context, c stringGetter, vkey string) (uint64, error) {
	v, err := c.Get(ctx, vkey).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis version %s: %w", vkey, err)
	}
	return v, nil
}

func (s *redisStore[T]) bump(ctx context.Context, p goredis.Pipeliner, key string) {
	p.Incr(ctx, s.versionKey(key))
	p.Expire(ctx, s.versionKey(key), s.ttl)
}

func (s *redisStore[T]) Fill(ctx context.Context, key string, ver uint64, val T) (bool, error) {
	raw, err := json.Marshal(val)
	if err != nil {
		return false, err
	}
	stored := false
	err = s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := readVersion(ctx, tx, s.versionKey(key))
		if err != nil || cur != ver {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, s.key(key), raw, s.ttl)
			return nil
		})
		stored = err == nil
		return err
	}, s.versionKey(key))
	if errors.Is(err, goredis.TxFailedErr) {
		// A writer moved the version after our read.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis fill %s: %w", key, err)
	}
	return stored, nil
}

func (s *redisStore[T]) Update(ctx context.Context, key string, fn func(T) T) error {
	k := s.key(key)
	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		var next []byte
		if err == nil {
			var cur T
			if jerr := json.Unmarshal(raw, &cur); jerr == nil {
				if next, err = json.Marshal(fn(cur)); err != nil {
					return err
				}
			}
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			s.bump(ctx, p, key)
			if next != nil {
				p.Set(ctx, k, next, goredis.KeepTTL)
			} else {
				p.Del(ctx, k)
			}
			return nil
		})
		return err
	}
	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, k, s.versionKey(key))
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis update %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("redis update %s: %w", key, ErrContended)
}

func (s *redisStore[T]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		for _, k := range keys {
			p.Del(ctx, s.key(k))
			s.bump(ctx, p, k)
		}
		return nil
	})
	return err
}

// NewRedisClient dials addr and verifies it with a ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
