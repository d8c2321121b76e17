package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/makkenzo/pixel-service-api/internal/storage/kv"
)

const defaultScanCount = 100

// KV adapts a Redis client to the kv.Store contract. Values live under
// plain string keys without TTL; listings are served via SCAN, so a page
// may observe writes that happened mid-scan.
type KV struct {
	client *redis.Client
	logger *zap.Logger
}

var _ kv.Store = (*KV)(nil)

func NewKV(client *redis.Client, logger *zap.Logger) *KV {
	return &KV{
		client: client,
		logger: logger.Named("RedisKV"),
	}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

func (s *KV) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// List collects keys under the prefix with SCAN until either limit keys
// are gathered or the cursor wraps. SCAN returns keys unordered, so the
// page is sorted before it is handed out.
func (s *KV) List(ctx context.Context, prefix string, limit int) (kv.Page, error) {
	pattern := prefix + "*"
	count := int64(limit)
	if count <= 0 || count > defaultScanCount {
		count = defaultScanCount
	}

	var (
		cursor    uint64
		keys      []string
		exhausted bool
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, count).Result()
		if err != nil {
			return kv.Page{}, fmt.Errorf("redis scan %q: %w", pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next

		if cursor == 0 {
			exhausted = true
			break
		}
		if limit > 0 && len(keys) >= limit {
			break
		}
	}

	// SCAN can deliver the same key twice while the keyspace is rehashing.
	sort.Strings(keys)
	keys = slices.Compact(keys)

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		exhausted = false
	}
	if !exhausted {
		s.logger.Debug("Listing truncated at page limit", zap.String("prefix", prefix), zap.Int("limit", limit))
	}
	return kv.Page{Keys: keys, Complete: exhausted}, nil
}
