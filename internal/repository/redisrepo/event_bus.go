package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type eventBus struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewEventBus(client redis.UniversalClient, logger *zap.Logger) repository.EventBus {
	return &eventBus{client: client, logger: logger}
}

func matchChannel(matchID int) string {
	return fmt.Sprintf("match:%d", matchID)
}

func (b *eventBus) Publish(ctx context.Context, event *domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, matchChannel(event.MatchID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *eventBus) Subscribe(ctx context.Context, matchID int) (repository.Subscription, error) {
	pubsub := b.client.Subscribe(ctx, matchChannel(matchID))
	// wait for the subscription confirmation so no event published afterwards is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &subscription{
		pubsub: pubsub,
		events: make(chan *domain.Event, 16),
		done:   make(chan struct{}),
	}
	go sub.forward(b.logger.With(zap.Int("match_id", matchID)))
	return sub, nil
}

type subscription struct {
	pubsub *redis.PubSub
	events chan *domain.Event
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) forward(logger *zap.Logger) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var event domain.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("dropping malformed event", zap.Error(err))
			continue
		}
		select {
		case s.events <- &event:
		case <-s.done:
			return
		}
	}
}

func (s *subscription) Events() <-chan *domain.Event {
	return s.events
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
