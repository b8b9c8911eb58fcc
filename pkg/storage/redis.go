package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for the Redis backend
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, defaults to "pricewatch:"
}

// RedisStorage keeps the position in one hash with fields status, price and ts
type RedisStorage struct {
	rdb redis.UniversalClient
	key string
}

// FromRedis connects to Redis and verifies the connection with a ping
func FromRedis(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return NewRedisStorage(rdb, cfg.Prefix), nil
}

// NewRedisStorage wraps an existing client
func NewRedisStorage(rdb redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "pricewatch:"
	}
	return &RedisStorage{rdb: rdb, key: prefix + positionKey}
}

func (r *RedisStorage) RecordPosition(ctx context.Context, side core.Side, price float64) error {
	p, err := core.NewPosition(side, price, time.Now())
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"status": string(p.Side),
		"price":  strconv.FormatFloat(p.Price, 'f', -1, 64),
		"ts":     strconv.FormatInt(p.RecordedAt.UnixNano(), 10),
	}
	if err := r.rdb.HSet(ctx, r.key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set position: %w", err)
	}

	return nil
}

func (r *RedisStorage) Position(ctx context.Context) (*core.Position, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get position: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return nil, fmt.Errorf("redis: parse price: %w", core.ErrInvalidPrice)
	}

	p := core.Position{Side: core.Side(vals["status"]), Price: price}
	if ts, err := strconv.ParseInt(vals["ts"], 10, 64); err == nil {
		p.RecordedAt = time.Unix(0, ts).UTC()
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored position: %w", err)
	}

	return &p, nil
}

func (r *RedisStorage) Close() error {
	return r.rdb.Close()
}
