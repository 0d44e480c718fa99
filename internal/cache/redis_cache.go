package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"smpos/backend/internal/domain"
)

// SearchKeyPrefix namespaces cached search results.
const SearchKeyPrefix = "pos:search:"

func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type RedisSearchCache struct {
	client *redis.Client
}

func NewRedisSearchCache(client *redis.Client) *RedisSearchCache {
	return &RedisSearchCache{client: client}
}

func (c *RedisSearchCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) (*domain.ProductSearchResult, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp domain.ProductSearchResult
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, value *domain.ProductSearchResult, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisSearchCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, SearchKeyPrefix+"*", 100).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
