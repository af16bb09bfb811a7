package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"iot-anomaly-engine/models"
)

const (
	summaryKey = "detection:latest"
	summaryTTL = 5 * time.Minute
)

// RedisStore key-value хранилище настроек плюс кэш последнего итога
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: rdb}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) SetString(ctx context.Context, key, value string) error {
	// настройки живут без TTL
	return s.client.Set(ctx, key, value, 0).Err()
}

// SaveSummary кэширует итог последнего прогона с коротким TTL;
// история оценок не хранится
func (s *RedisStore) SaveSummary(ctx context.Context, summary models.DetectionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, summaryKey, data, summaryTTL).Err()
}

func (s *RedisStore) LatestSummary(ctx context.Context) (*models.DetectionSummary, error) {
	val, err := s.client.Get(ctx, summaryKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary models.DetectionSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
