package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/pacebook/internal/config"
)

var (
	newRedisClient = redis.NewClient
	redisPing      = func(ctx context.Context, client *redis.Client) error { return client.Ping(ctx).Err() }
)

// RedisDB backs the idempotency store. The service keeps running when it is
// unreachable, so health reports it separately from Postgres.
type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(cfg config.RedisConfig) (*RedisDB, error) {
	client := newRedisClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisPing(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	if r != nil && r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Health reports an error when Redis is unreachable or was never connected.
func (r *RedisDB) Health(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("redis not connected")
	}
	return redisPing(ctx, r.Client)
}
