package cache

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// RedisKV is a store.KeyValueStore over redis strings, for shops whose
// tills share one invoice sequence through a redis instance.
type RedisKV struct {
	client *redis.Client
	prefix string
}

func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

func (kv *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := kv.client.Get(ctx, kv.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (kv *RedisKV) Set(ctx context.Context, key string, value string) error {
	return kv.client.Set(ctx, kv.prefix+key, value, 0).Err()
}
