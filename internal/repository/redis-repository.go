package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"study_admin_service/internal/database/redis"
	"time"

	redis_v9 "github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis_v9.Client
}

func NewRedisRepo() *RedisRepo {
	return &RedisRepo{
		client: redis.Redis_Client,
	}
}

func (rr *RedisRepo) SaveStructCached(ctx context.Context, key string, model any, ttl time.Duration) (bool, error) {
	val, err := json.Marshal(model)
	if err != nil {
		return false, fmt.Errorf("error saving struct to cache: %s", err)
	}
	err = rr.client.Set(ctx, key, val, ttl).Err()
	if err != nil {
		return false, fmt.Errorf("error saving struct to cached: %s", err)
	}
	return true, nil
}

func (rr *RedisRepo) GetStructCached(ctx context.Context, key string, model any) error {
	cached, err := rr.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("error get struct in cache: %s", err)
	}

	return json.Unmarshal(cached, model)
}

func (rr *RedisRepo) DeleteCached(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rr.client.Del(ctx, keys...).Err()
}
