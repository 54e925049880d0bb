package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBlockStore keeps blocks as Redis sets so several API replicas and the
// worker share one blocking index.
type RedisBlockStore struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration
}

var _ BlockStore = (*RedisBlockStore)(nil)

// NewRedisBlockStore connects to redisURL and pings it.
func NewRedisBlockStore(redisURL string, logger *zap.Logger) (*RedisBlockStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBlockStoreFromClient(client, logger), nil
}

// NewRedisBlockStoreFromClient wraps an existing client.
func NewRedisBlockStoreFromClient(client *redis.Client, logger *zap.Logger) *RedisBlockStore {
	return &RedisBlockStore{
		client: client,
		logger: logger,
		prefix: "dedupe:block:",
		ttl:    7 * 24 * time.Hour,
	}
}

func (rbs *RedisBlockStore) Add(ctx context.Context, key string, recordIDs ...string) error {
	if len(recordIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(recordIDs))
	for i, id := range recordIDs {
		members[i] = id
	}

	blockKey := rbs.prefix + key
	pipe := rbs.client.TxPipeline()
	pipe.SAdd(ctx, blockKey, members...)
	pipe.Expire(ctx, blockKey, rbs.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		rbs.logger.Error("Failed to add block members", zap.Error(err), zap.String("key", blockKey))
		return err
	}
	return nil
}

func (rbs *RedisBlockStore) Members(ctx context.Context, key string) ([]string, error) {
	ids, err := rbs.client.SMembers(ctx, rbs.prefix+key).Result()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (rbs *RedisBlockStore) Delete(ctx context.Context, key string) error {
	return rbs.client.Del(ctx, rbs.prefix+key).Err()
}

// Clear removes every block. It scans instead of using KEYS so a large index
// doesn't stall Redis.
func (rbs *RedisBlockStore) Clear(ctx context.Context) error {
	deleted := 0
	iter := rbs.client.Scan(ctx, 0, rbs.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		if err := rbs.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan blocks: %w", err)
	}

	rbs.logger.Info("Cleared block store", zap.Int("keys_deleted", deleted))
	return nil
}

func (rbs *RedisBlockStore) Stats(ctx context.Context) (*BlockStats, error) {
	stats := &BlockStats{}
	iter := rbs.client.Scan(ctx, 0, rbs.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n, err := rbs.client.SCard(ctx, iter.Val()).Result()
		if err != nil {
			return nil, err
		}
		stats.Blocks++
		stats.Members += n
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (rbs *RedisBlockStore) Close() error {
	return rbs.client.Close()
}

// SetTTL changes how long an untouched block survives.
func (rbs *RedisBlockStore) SetTTL(ttl time.Duration) {
	rbs.ttl = ttl
}

// Client exposes the underlying client so the job queue can share it.
func (rbs *RedisBlockStore) Client() *redis.Client {
	return rbs.client
}
