package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisStorage хранит снимки в Redis под ключами <namespace>:<key>, без TTL
type RedisStorage struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
}

// NewRedisStorage подключается по redis:// URL и проверяет соединение
func NewRedisStorage(redisURL, namespace string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("persist: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("persist: redis ping: %w", err)
	}
	return NewRedisStorageFromClient(client, namespace, logger), nil
}

func NewRedisStorageFromClient(client *redis.Client, namespace string, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{client: client, namespace: namespace, logger: logger}
}

var _ Storage = (*RedisStorage)(nil)

func (r *RedisStorage) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

func (r *RedisStorage) Load(key string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		r.logger.Warn("persist: redis get", "key", key, "error", err)
		return nil
	}
	return b
}

func (r *RedisStorage) Save(key string, blob []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(key), blob, 0).Err(); err != nil {
		r.logger.Warn("persist: redis set", "key", key, "error", err)
	}
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
