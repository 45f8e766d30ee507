package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

type presenceRepository struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewPresenceRepository(client redis.UniversalClient) repository.PresenceRepository {
	return &presenceRepository{client: client, now: time.Now}
}

func presenceKey(userID int) string {
	return fmt.Sprintf("presence:%d", userID)
}

func typingKey(matchID, userID int) string {
	return fmt.Sprintf("typing:%d:%d", matchID, userID)
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID int) error {
	return r.set(ctx, userID, domain.PresenceOnline)
}

func (r *presenceRepository) SetOffline(ctx context.Context, userID int) error {
	return r.set(ctx, userID, domain.PresenceOffline)
}

func (r *presenceRepository) set(ctx context.Context, userID int, status domain.PresenceStatus) error {
	err := r.client.HSet(ctx, presenceKey(userID),
		"status", string(status),
		"last_seen", r.now().UTC().Unix(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (r *presenceRepository) Get(ctx context.Context, userID int) (*domain.Presence, error) {
	values, err := r.client.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	presence := &domain.Presence{UserID: userID, Status: domain.PresenceOffline}
	if status, ok := values["status"]; ok {
		presence.Status = domain.PresenceStatus(status)
	}
	if raw, ok := values["last_seen"]; ok {
		if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
			seen := time.Unix(ts, 0).UTC()
			presence.LastSeen = &seen
		}
	}
	return presence, nil
}

// SetTyping stores a flag that expires after domain.TypingTTL unless refreshed.
func (r *presenceRepository) SetTyping(ctx context.Context, matchID, userID int, typing bool) error {
	key := typingKey(matchID, userID)
	var err error
	if typing {
		err = r.client.Set(ctx, key, 1, domain.TypingTTL).Err()
	} else {
		err = r.client.Del(ctx, key).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to set typing: %w", err)
	}
	return nil
}

func (r *presenceRepository) IsTyping(ctx context.Context, matchID, userID int) (bool, error) {
	err := r.client.Get(ctx, typingKey(matchID, userID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get typing: %w", err)
	}
	return true, nil
}
