package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/piresc/geoquery/internal/pkg/models"
)

// RedisClient represents a Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(config models.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

// GetClient returns the underlying Redis client
func (r *RedisClient) GetClient() *redis.Client {
	return r.Client
}

// Get retrieves a value by key. A missing key returns redis.Nil.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return r.Client.Get(ctx, key).Result()
}

// MGet retrieves several values at once. Missing keys come back as nil.
func (r *RedisClient) MGet(ctx context.Context, keys ...string) ([]interface{}, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return r.Client.MGet(ctx, keys...).Result()
}

// ZRangeByLex returns the members of a score-0 sorted set within [min, max]
// using ZRANGEBYLEX bound syntax.
func (r *RedisClient) ZRangeByLex(ctx context.Context, key, min, max string) ([]string, error) {
	return r.Client.ZRangeByLex(ctx, key, &redis.ZRangeBy{Min: min, Max: max}).Result()
}

// ReplaceIndexedValue atomically swaps the index member of a record and
// writes the record. An empty oldMember skips the removal and a nil value
// deletes the record.
func (r *RedisClient) ReplaceIndexedValue(ctx context.Context, indexKey, oldMember, newMember, recordKey string, value []byte) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if oldMember != "" && oldMember != newMember {
			pipe.ZRem(ctx, indexKey, oldMember)
		}
		if value == nil {
			pipe.Del(ctx, recordKey)
			return nil
		}
		pipe.Set(ctx, recordKey, value, 0)
		pipe.ZAdd(ctx, indexKey, &redis.Z{Score: 0, Member: newMember})
		return nil
	})
	return err
}

// Close closes the Redis client
func (r *RedisClient) Close() error {
	return r.Client.Close()
}
