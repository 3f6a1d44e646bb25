package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guestbook/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares the recent-entries list between server instances
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ EntryCache = (*RedisCache)(nil)

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisCacheWithClient(redis.NewClient(opts), ttl), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) GetRecent(ctx context.Context) ([]models.Entry, bool, error) {
	raw, err := r.client.Get(ctx, recentKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []models.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decode cached entries: %w", err)
	}
	return entries, true, nil
}

func (r *RedisCache) Generation(ctx context.Context) (uint64, error) {
	return generationOf(ctx, r.client)
}

// SetRecent writes the list inside a WATCH on the generation key, so an
// InvalidateRecent from any instance between the read of gen and the write
// aborts the write.
func (r *RedisCache) SetRecent(ctx context.Context, gen uint64, entries []models.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recentKey, raw, r.ttl)
			return nil
		})
		return err
	}, generationKey)

	// lost the race with an invalidation; nothing to store
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *RedisCache) InvalidateRecent(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, recentKey)
		return nil
	})
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generationOf(ctx context.Context, c getter) (uint64, error) {
	gen, err := c.Get(ctx, generationKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Ping checks the connection to Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client
func (r *RedisCache) Close() error {
	return r.client.Close()
}
