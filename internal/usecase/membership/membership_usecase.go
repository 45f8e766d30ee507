package membership

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

type MembershipUseCase struct {
	userRepo  repository.UserRepository
	videoRepo repository.VideoRepository
	quotaRepo repository.QuotaRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewMembershipUseCase(
	userRepo repository.UserRepository,
	videoRepo repository.VideoRepository,
	quotaRepo repository.QuotaRepository,
	logger *zap.Logger,
) *MembershipUseCase {
	return &MembershipUseCase{
		userRepo:  userRepo,
		videoRepo: videoRepo,
		quotaRepo: quotaRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// ChangeTierRequest represents request to switch membership tier
type ChangeTierRequest struct {
	Tier domain.Tier `json:"tier" binding:"required"`
}

// UsageResponse shows how much of today's allowance is spent
type UsageResponse struct {
	Tier         domain.Tier       `json:"tier"`
	Limits       domain.TierLimits `json:"limits"`
	SwipesToday  int               `json:"swipes_today"`
	SuperLikes   int               `json:"super_likes_today"`
	VideoUploads int               `json:"video_uploads"`
}

func (uc *MembershipUseCase) Tiers() []domain.TierLimits {
	return domain.Tiers()
}

// ChangeTier switches the user's tier. No payment is taken.
func (uc *MembershipUseCase) ChangeTier(ctx context.Context, userID int, req *ChangeTierRequest) (*domain.User, error) {
	if !req.Tier.Valid() {
		return nil, domain.ErrInvalidTier
	}
	if err := uc.userRepo.UpdateTier(ctx, userID, req.Tier); err != nil {
		return nil, fmt.Errorf("failed to update tier: %w", err)
	}

	uc.logger.Info("membership changed", zap.Int("user_id", userID), zap.String("tier", string(req.Tier)))
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *MembershipUseCase) Usage(ctx context.Context, userID int) (*UsageResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := uc.now()
	resp := &UsageResponse{Tier: user.MembershipTier, Limits: domain.LimitsFor(user.MembershipTier)}

	if resp.SwipesToday, err = uc.quotaRepo.Get(ctx, domain.QuotaSwipes, userID, today); err != nil {
		return nil, fmt.Errorf("failed to get swipe usage: %w", err)
	}
	if resp.SuperLikes, err = uc.quotaRepo.Get(ctx, domain.QuotaSuperLikes, userID, today); err != nil {
		return nil, fmt.Errorf("failed to get super like usage: %w", err)
	}
	if resp.VideoUploads, err = uc.videoRepo.CountByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}

	return resp, nil
}
