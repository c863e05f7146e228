package blobcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/waterfall/pkg/photo"
)

const (
	idField       = "photoId"
	scanBatchSize = 256
)

// RedisStore is a Store holding one hash per photo with one field per tier.
// Writing a tier sets a single hash field, so the other tiers are untouched.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. Keys are prefix + "photo:" + id.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// OpenRedis connects to the server at url (redis://host:port/db) and checks
// that it answers.
func OpenRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStore(rdb, prefix), nil
}

func (s *RedisStore) key(id string) string { return s.prefix + keyPrefix + id }

// Get returns the payload for (id, tier).
func (s *RedisStore) Get(ctx context.Context, id string, tier photo.Tier) ([]byte, bool, error) {
	if err := checkKey(id, tier); err != nil {
		return nil, false, err
	}
	data, err := s.rdb.HGet(ctx, s.key(id), string(tier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", id, tier, err)
	}
	return data, len(data) > 0, nil
}

// Put sets the tier field of the photo's hash.
func (s *RedisStore) Put(ctx context.Context, id string, tier photo.Tier, data []byte) error {
	if err := checkPut(id, tier, data); err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, s.key(id), idField, id, string(tier), data).Err(); err != nil {
		return fmt.Errorf("write %s/%s: %w", id, tier, err)
	}
	return nil
}

// Record returns everything stored for id.
func (s *RedisStore) Record(ctx context.Context, id string) (*Record, bool, error) {
	if id == "" {
		return nil, false, ErrEmptyID
	}
	rec, err := s.record(ctx, s.key(id))
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", id, err)
	}
	return rec, rec != nil, nil
}

func (s *RedisStore) record(ctx context.Context, key string) (*Record, error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	rec := &Record{PhotoID: fields[idField]}
	for _, t := range photo.Tiers {
		if v, ok := fields[string(t)]; ok {
			rec.SetTier(t, []byte(v))
		}
	}
	return rec, nil
}

// Clear deletes every photo hash under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(keys []string) error {
		return s.rdb.Del(ctx, keys...).Err()
	})
}

// Stats reads every photo hash under the store's prefix.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.scan(ctx, func(keys []string) error {
		for _, k := range keys {
			rec, err := s.record(ctx, k)
			if err != nil {
				return err
			}
			if rec != nil {
				st.add(rec)
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	match := s.prefix + keyPrefix + "*"
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.rdb.Close() }

var _ Store = (*RedisStore)(nil)
