package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/model"
)

// ExamCache is a read-through cache of full exam documents. Get returns
// (nil, nil) on a miss.
type ExamCache interface {
	Get(ctx context.Context, examID string) (*model.Exam, error)
	Set(ctx context.Context, exam *model.Exam, ttl time.Duration) error
	Invalidate(ctx context.Context, examID string) error
}

// RedisExamCache stores exams as JSON under exam:{id}:payload.
type RedisExamCache struct {
	rdb *redis.Client
}

// NewRedisExamCache creates a RedisExamCache.
func NewRedisExamCache(rdb *redis.Client) *RedisExamCache {
	return &RedisExamCache{rdb: rdb}
}

func (c *RedisExamCache) Get(ctx context.Context, examID string) (*model.Exam, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}
	var exam model.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &exam, nil
}

func (c *RedisExamCache) Set(ctx context.Context, exam *model.Exam, ttl time.Duration) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamPayloadKey(exam.ID), data, ttl).Err()
}

func (c *RedisExamCache) Invalidate(ctx context.Context, examID string) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamPayloadKey(examID)).Err()
}
