package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
	pkgredis "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/redis"
)

// RedisStore is an optional shared entry store backed by Redis, for
// deployments running more than one replica against the same upstreams.
// Entries are JSON blobs carrying their own FetchedAt and TTL; the Redis
// key expiry is stretched to TTL plus the stale retention window so expired
// entries stay reachable for stale-on-error fallback. Store errors degrade
// to cache misses — Redis being down must never fail a search.
type RedisStore struct {
	client    *pkgredis.Client
	retention time.Duration
	logger    *slog.Logger
}

// NewRedisStore builds a RedisStore over an established client.
func NewRedisStore(client *pkgredis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
		logger:    logger.WithComponent("redis-cache-store"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			s.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		s.logger.Error("cache entry unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &entry, true
}

func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("cache entry marshal failed", "key", key, "error", err)
		return
	}
	if err := s.client.Set(ctx, key, data, entry.TTL+s.retention); err != nil {
		s.logger.Error("cache set failed", "key", key, "error", err)
	}
}
