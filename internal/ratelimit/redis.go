package ratelimit

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/fixed_window.lua
var fixedWindowScript string

// Redis хранит счётчики в Redis, так что лимит общий для всех экземпляров сервиса.
type Redis struct {
	rdb    redis.UniversalClient
	script *redis.Script
	prefix string
	limit  int
	window time.Duration
}

// NewRedis создаёт лимитер поверх клиента Redis.
func NewRedis(rdb redis.UniversalClient, limit int, w time.Duration) *Redis {
	return &Redis{
		rdb:    rdb,
		script: redis.NewScript(fixedWindowScript),
		prefix: "ratelimit:",
		limit:  limit,
		window: w,
	}
}

// Allow атомарно увеличивает счётчик клиента key в текущем окне.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	res, err := r.script.Run(ctx, r.rdb, []string{r.prefix + key}, r.window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("fixed window script failed: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Result{}, fmt.Errorf("unexpected script result %v", res)
	}
	count, ok1 := vals[0].(int64)
	ttl, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return Result{}, fmt.Errorf("unexpected script result types %T, %T", vals[0], vals[1])
	}

	return decide(count, r.limit, time.Duration(ttl)*time.Millisecond), nil
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
