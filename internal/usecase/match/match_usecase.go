package match

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

type MatchUseCase struct {
	matchRepo repository.MatchRepository
	userRepo  repository.UserRepository
	events    repository.EventBus
	logger    *zap.Logger
}

func NewMatchUseCase(
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	events repository.EventBus,
	logger *zap.Logger,
) *MatchUseCase {
	return &MatchUseCase{
		matchRepo: matchRepo,
		userRepo:  userRepo,
		events:    events,
		logger:    logger,
	}
}

// CreateMatchRequest represents request to open a match with another user
type CreateMatchRequest struct {
	TargetUserID int `json:"target_user_id" binding:"required"`
}

// UpdateStatusRequest represents request to change match status
type UpdateStatusRequest struct {
	Status domain.MatchStatus `json:"status" binding:"required"`
}

// Create opens a pending match between the current user and target
func (uc *MatchUseCase) Create(ctx context.Context, currentUserID int, req *CreateMatchRequest) (*domain.Match, error) {
	if currentUserID == req.TargetUserID {
		return nil, domain.ErrCannotMatchSelf
	}

	if _, err := uc.userRepo.GetByID(ctx, req.TargetUserID); err != nil {
		return nil, err
	}

	existing, err := uc.matchRepo.GetByUsers(ctx, currentUserID, req.TargetUserID)
	if err == nil && existing != nil {
		return nil, domain.ErrMatchAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
		return nil, fmt.Errorf("failed to check existing match: %w", err)
	}

	match := &domain.Match{
		User1ID:   currentUserID,
		User2ID:   req.TargetUserID,
		Status:    domain.MatchStatusPending,
		CreatedBy: currentUserID,
	}
	if err := uc.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, domain.ErrMatchAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// List returns the current user's matches, newest first
func (uc *MatchUseCase) List(ctx context.Context, currentUserID int) ([]*domain.Match, error) {
	matches, err := uc.matchRepo.GetUserMatches(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	return matches, nil
}

func (uc *MatchUseCase) Get(ctx context.Context, currentUserID, matchID int) (*domain.Match, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasUser(currentUserID) {
		return nil, domain.ErrMatchNotFound
	}
	return match, nil
}

func (uc *MatchUseCase) UpdateStatus(ctx context.Context, currentUserID, matchID int, req *UpdateStatusRequest) (*domain.Match, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasUser(currentUserID) {
		return nil, domain.ErrMatchUpdateForbidden
	}
	if !req.Status.Valid() {
		return nil, domain.ErrInvalidMatchStatus
	}

	if err := uc.matchRepo.UpdateStatus(ctx, matchID, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update match status: %w", err)
	}
	match.Status = req.Status

	uc.publish(ctx, domain.EventMatchUpdated, match, currentUserID)
	return match, nil
}

// Delete removes the match and every message in it
func (uc *MatchUseCase) Delete(ctx context.Context, currentUserID, matchID int) error {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.HasUser(currentUserID) {
		return domain.ErrMatchDeleteForbidden
	}

	if err := uc.matchRepo.Delete(ctx, matchID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	uc.publish(ctx, domain.EventMatchDeleted, match, currentUserID)
	return nil
}

func (uc *MatchUseCase) publish(ctx context.Context, t domain.EventType, match *domain.Match, userID int) {
	ev, err := domain.NewEvent(t, match.ID, userID, match)
	if err == nil {
		err = uc.events.Publish(ctx, ev)
	}
	if err != nil {
		uc.logger.Warn("failed to publish match event",
			zap.String("type", string(t)), zap.Int("match_id", match.ID), zap.Error(err))
	}
}
