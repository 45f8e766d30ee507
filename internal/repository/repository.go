// Package repository declares the persistence ports used by the use cases.
package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/spark-backend/internal/domain"
)

//go:generate mockgen -destination=./mock/repository.go -package=mock -source=repository.go

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLocation(ctx context.Context, id int, lat, lng float64) error
	UpdateProfilePicture(ctx context.Context, id int, url string) error
	UpdateTier(ctx context.Context, id int, tier domain.Tier) error
	// ListFeed returns users ordered by created_at desc, id desc, strictly after the
	// cursor when one is given, excluding the viewer and everyone the viewer blocked.
	ListFeed(ctx context.Context, viewerID int, after *FeedCursor, limit int) ([]*domain.User, error)
}

// FeedCursor points at the last row of a previously returned feed page.
type FeedCursor struct {
	CreatedAt time.Time
	ID        int
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type BlockRepository interface {
	Block(ctx context.Context, blockerID, blockedID int) (*domain.Block, error)
	Unblock(ctx context.Context, blockerID, blockedID int) error
	ListBlocked(ctx context.Context, blockerID int) ([]*domain.Block, error)
}

type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id int) (*domain.Match, error)
	GetByUsers(ctx context.Context, user1ID, user2ID int) (*domain.Match, error)
	GetUserMatches(ctx context.Context, userID int) ([]*domain.Match, error)
	UpdateStatus(ctx context.Context, id int, status domain.MatchStatus) error
	// Delete removes the match together with its messages.
	Delete(ctx context.Context, id int) error
	UpdateIcebreakers(ctx context.Context, matchID int, icebreakers []string) error
}

type SwipeRepository interface {
	Create(ctx context.Context, swipe *domain.Swipe) error
	GetByUsers(ctx context.Context, swiperID, swipedID int) (*domain.Swipe, error)
	CheckMutualLike(ctx context.Context, user1ID, user2ID int) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id int) (*domain.Message, error)
	ListByMatch(ctx context.Context, matchID int, limit int) ([]*domain.Message, error)
	// MarkDelivered moves messages not sent by readerID from sent to delivered.
	MarkDelivered(ctx context.Context, matchID, readerID int) error
	// MarkRead marks the given messages read, skipping ones sent by readerID, and
	// returns the ids that changed.
	MarkRead(ctx context.Context, matchID, readerID int, ids []int, at time.Time) ([]int, error)
	GetLastMessage(ctx context.Context, matchID int) (*domain.Message, error)
	CountUnread(ctx context.Context, matchID, readerID int) (int, error)
}

type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id string) (*domain.Video, error)
	ListByUser(ctx context.Context, userID int) ([]*domain.Video, error)
	ListLatest(ctx context.Context, limit int) ([]*domain.Video, error)
	CountByUser(ctx context.Context, userID int) (int, error)
	IncrementCounter(ctx context.Context, id string, counter VideoCounter) (int, error)
}

type VideoCounter string

const (
	VideoLikes    VideoCounter = "likes"
	VideoViews    VideoCounter = "views"
	VideoComments VideoCounter = "comments"
)

// PresenceRepository keeps online state and short-lived typing flags.
type PresenceRepository interface {
	SetOnline(ctx context.Context, userID int) error
	SetOffline(ctx context.Context, userID int) error
	Get(ctx context.Context, userID int) (*domain.Presence, error)
	SetTyping(ctx context.Context, matchID, userID int, typing bool) error
	IsTyping(ctx context.Context, matchID, userID int) (bool, error)
}

// QuotaRepository counts metered actions per user per day.
type QuotaRepository interface {
	Increment(ctx context.Context, action string, userID int, day time.Time) (int, error)
	Decrement(ctx context.Context, action string, userID int, day time.Time) error
	Get(ctx context.Context, action string, userID int, day time.Time) (int, error)
}

// EventBus fans realtime events out to the subscribers of a match.
type EventBus interface {
	Publish(ctx context.Context, event *domain.Event) error
	Subscribe(ctx context.Context, matchID int) (Subscription, error)
}

type Subscription interface {
	Events() <-chan *domain.Event
	Close() error
}
