package tilestore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jaennil/terrain_streamer/pkg/metrics"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour // default TTL
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) keyFor(k Key) string {
	return fmt.Sprintf("tile:%s:%d:%d:%d", k.Curve, k.Resolution, k.X, k.Y)
}

func (s *RedisStore) Get(k Key) (Value, bool, error) {
	ctx := context.Background()
	key := s.keyFor(k)

	start := time.Now()
	data, err := s.client.Get(ctx, key).Bytes()
	metrics.SnapshotStoreDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		metrics.SnapshotStoreErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}

	return data, true, nil
}

func (s *RedisStore) Set(k Key, v Value) error {
	ctx := context.Background()
	key := s.keyFor(k)

	start := time.Now()
	err := s.client.Set(ctx, key, []byte(v), s.ttl).Err()
	metrics.SnapshotStoreDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotStoreErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
