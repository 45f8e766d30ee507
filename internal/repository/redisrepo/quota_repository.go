package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// quotaTTL keeps a daily counter around a little longer than the day it counts.
const quotaTTL = 48 * time.Hour

type quotaRepository struct {
	client redis.UniversalClient
}

func NewQuotaRepository(client redis.UniversalClient) repository.QuotaRepository {
	return &quotaRepository{client: client}
}

func quotaKey(action string, userID int, day time.Time) string {
	return fmt.Sprintf("quota:%s:%d:%s", action, userID, day.UTC().Format("2006-01-02"))
}

func (r *quotaRepository) Increment(ctx context.Context, action string, userID int, day time.Time) (int, error) {
	key := quotaKey(action, userID, day)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, quotaTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment quota: %w", err)
	}
	return int(incr.Val()), nil
}

func (r *quotaRepository) Decrement(ctx context.Context, action string, userID int, day time.Time) error {
	if err := r.client.Decr(ctx, quotaKey(action, userID, day)).Err(); err != nil {
		return fmt.Errorf("failed to decrement quota: %w", err)
	}
	return nil
}

func (r *quotaRepository) Get(ctx context.Context, action string, userID int, day time.Time) (int, error) {
	n, err := r.client.Get(ctx, quotaKey(action, userID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get quota: %w", err)
	}
	return n, nil
}
