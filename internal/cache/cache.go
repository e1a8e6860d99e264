package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss - ключа нет в кэше
var ErrMiss = errors.New("cache miss")

// Cache - namespaced обертка над Redis
type Cache struct {
	client redis.UniversalClient
}

// NewCache подключается к одиночному Redis или кластеру (несколько адресов)
func NewCache(addrs []string, password string, db int) *Cache {
	return NewCacheFromClient(redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: password,
		DB:       db,
	}))
}

func NewCacheFromClient(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

func key(namespace, k string) string {
	return namespace + ":" + k
}

func (c *Cache) Set(ctx context.Context, namespace, k string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, key(namespace, k), value, ttl).Err()
}

// Get возвращает ErrMiss, если ключа нет
func (c *Cache) Get(ctx context.Context, namespace, k string) ([]byte, error) {
	b, err := c.client.Get(ctx, key(namespace, k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (c *Cache) Delete(ctx context.Context, namespace, k string) error {
	return c.client.Del(ctx, key(namespace, k)).Err()
}

func (c *Cache) Incr(ctx context.Context, namespace, k string) (int64, error) {
	return c.client.Incr(ctx, key(namespace, k)).Result()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
