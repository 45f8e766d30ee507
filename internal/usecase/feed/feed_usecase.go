package feed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

// ItemsPerPage is the fixed feed page size
const ItemsPerPage = 10

type FeedUseCase struct {
	userRepo  repository.UserRepository
	blockRepo repository.BlockRepository
}

func NewFeedUseCase(userRepo repository.UserRepository, blockRepo repository.BlockRepository) *FeedUseCase {
	return &FeedUseCase{
		userRepo:  userRepo,
		blockRepo: blockRepo,
	}
}

// FeedPage represents one page of candidate profiles
type FeedPage struct {
	Profiles   []*domain.PublicProfile `json:"profiles"`
	NextCursor string                  `json:"next_cursor,omitempty"`
	HasMore    bool                    `json:"has_more"`
}

// Fetch returns the page after cursor; an empty cursor starts from the newest profile
func (uc *FeedUseCase) Fetch(ctx context.Context, currentUserID int, cursor string) (*FeedPage, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	me, err := uc.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	users, err := uc.userRepo.ListFeed(ctx, currentUserID, after, ItemsPerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	page := &FeedPage{
		Profiles: make([]*domain.PublicProfile, 0, len(users)),
		HasMore:  len(users) == ItemsPerPage,
	}
	for _, u := range users {
		p := u.Public()
		p.DistanceKm = domain.DistanceBetween(me, u)
		page.Profiles = append(page.Profiles, p)
	}
	if n := len(users); n > 0 {
		last := users[n-1]
		page.NextCursor = EncodeCursor(&repository.FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return page, nil
}

// BlockUser hides target from the current user's feed. Repeated blocks keep the first timestamp.
func (uc *FeedUseCase) BlockUser(ctx context.Context, currentUserID, targetUserID int) (*domain.Block, error) {
	if currentUserID == targetUserID {
		return nil, domain.ErrCannotBlockSelf
	}

	if _, err := uc.userRepo.GetByID(ctx, targetUserID); err != nil {
		return nil, err
	}

	block, err := uc.blockRepo.Block(ctx, currentUserID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to block user: %w", err)
	}
	return block, nil
}

func (uc *FeedUseCase) UnblockUser(ctx context.Context, currentUserID, targetUserID int) error {
	if err := uc.blockRepo.Unblock(ctx, currentUserID, targetUserID); err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	return nil
}

func (uc *FeedUseCase) ListBlocked(ctx context.Context, currentUserID int) ([]*domain.Block, error) {
	blocks, err := uc.blockRepo.ListBlocked(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	return blocks, nil
}

// EncodeCursor renders "created_at|id" as an opaque url-safe token
func EncodeCursor(c *repository.FeedCursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + strconv.Itoa(c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token from EncodeCursor. Empty input means first page.
func DecodeCursor(s string) (*repository.FeedCursor, error) {
	if s == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, cursorError(err)
	}

	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, cursorError(errors.New("missing separator"))
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, cursorError(err)
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, cursorError(err)
	}

	return &repository.FeedCursor{CreatedAt: createdAt, ID: n}, nil
}

func cursorError(err error) error {
	return &domain.Error{Code: domain.ErrInvalidCursor.Code, Message: domain.ErrInvalidCursor.Message, Err: err}
}
