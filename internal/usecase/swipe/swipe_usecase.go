package swipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

const icebreakerTimeout = 30 * time.Second

// IcebreakerGenerator suggests opening lines for a fresh match
type IcebreakerGenerator interface {
	GenerateIcebreakers(ctx context.Context, user1Interests, user2Interests []string) ([]string, error)
}

type SwipeUseCase struct {
	swipeRepo   repository.SwipeRepository
	matchRepo   repository.MatchRepository
	userRepo    repository.UserRepository
	quotaRepo   repository.QuotaRepository
	events      repository.EventBus
	icebreakers IcebreakerGenerator
	logger      *zap.Logger
	now         func() time.Time

	wg sync.WaitGroup
}

func NewSwipeUseCase(
	swipeRepo repository.SwipeRepository,
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	quotaRepo repository.QuotaRepository,
	events repository.EventBus,
	icebreakers IcebreakerGenerator,
	logger *zap.Logger,
) *SwipeUseCase {
	return &SwipeUseCase{
		swipeRepo:   swipeRepo,
		matchRepo:   matchRepo,
		userRepo:    userRepo,
		quotaRepo:   quotaRepo,
		events:      events,
		icebreakers: icebreakers,
		logger:      logger,
		now:         time.Now,
	}
}

// SwipeRequest represents a swipe action
type SwipeRequest struct {
	SwipedUserID int  `json:"swiped_user_id" binding:"required"`
	IsLike       bool `json:"is_like"`
	IsSuper      bool `json:"is_super"`
}

// SwipeResponse represents swipe result
type SwipeResponse struct {
	IsMatch     bool                  `json:"is_match"`
	Swipe       *domain.Swipe         `json:"swipe"`
	Match       *domain.Match         `json:"match,omitempty"`
	MatchedUser *domain.PublicProfile `json:"matched_user,omitempty"`
}

// CreateSwipe records a swipe within the daily tier quota and matches on a mutual like
func (uc *SwipeUseCase) CreateSwipe(ctx context.Context, swiperID int, req *SwipeRequest) (*SwipeResponse, error) {
	if swiperID == req.SwipedUserID {
		return nil, domain.ErrCannotSwipeSelf
	}
	if req.IsSuper {
		req.IsLike = true
	}

	swiper, err := uc.userRepo.GetByID(ctx, swiperID)
	if err != nil {
		return nil, fmt.Errorf("failed to get swiper: %w", err)
	}

	existing, err := uc.swipeRepo.GetByUsers(ctx, swiperID, req.SwipedUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing swipe: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrSwipeAlreadyExists
	}

	limits := domain.LimitsFor(swiper.MembershipTier)
	day := uc.now()

	release, err := uc.reserve(ctx, swiperID, day, limits, req.IsSuper)
	if err != nil {
		return nil, err
	}

	swipe := &domain.Swipe{
		SwiperID: swiperID,
		SwipedID: req.SwipedUserID,
		IsLike:   req.IsLike,
		IsSuper:  req.IsSuper,
	}
	if err := uc.swipeRepo.Create(ctx, swipe); err != nil {
		release()
		if errors.Is(err, domain.ErrSwipeAlreadyExists) || domain.CodeOf(err) == domain.CodeNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create swipe: %w", err)
	}

	response := &SwipeResponse{Swipe: swipe}
	if !req.IsLike {
		return response, nil
	}

	isMutual, err := uc.swipeRepo.CheckMutualLike(ctx, swiperID, req.SwipedUserID)
	if err != nil {
		uc.logger.Error("mutual like check failed", zap.Int("swiper_id", swiperID), zap.Error(err))
		return response, nil
	}
	if !isMutual {
		return response, nil
	}

	match, created, err := uc.upsertMatch(ctx, swiperID, req.SwipedUserID)
	if err != nil {
		uc.logger.Error("failed to create match", zap.Int("swiper_id", swiperID),
			zap.Int("swiped_id", req.SwipedUserID), zap.Error(err))
		return response, nil
	}
	if match.Status != domain.MatchStatusMatched {
		return response, nil
	}

	response.IsMatch = true
	response.Match = match
	if other, err := uc.userRepo.GetByID(ctx, req.SwipedUserID); err == nil {
		response.MatchedUser = other.Public()
		response.MatchedUser.DistanceKm = domain.DistanceBetween(swiper, other)
		if created || len(match.Icebreakers) == 0 {
			uc.enrichMatchAsync(match.ID, swiper.Interests, other.Interests)
		}
	}

	return response, nil
}

// reserve takes one unit of the daily swipe (and super like) quota and returns its undo
func (uc *SwipeUseCase) reserve(ctx context.Context, userID int, day time.Time, limits domain.TierLimits, super bool) (func(), error) {
	var taken []string
	release := func() {
		for _, action := range taken {
			if err := uc.quotaRepo.Decrement(context.WithoutCancel(ctx), action, userID, day); err != nil {
				uc.logger.Warn("failed to release quota", zap.String("action", action), zap.Error(err))
			}
		}
	}

	take := func(action string, limit int, limitErr error) error {
		if limit == domain.Unlimited {
			return nil
		}
		n, err := uc.quotaRepo.Increment(ctx, action, userID, day)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", action, err)
		}
		taken = append(taken, action)
		if n > limit {
			return limitErr
		}
		return nil
	}

	if err := take(domain.QuotaSwipes, limits.SwipesPerDay, domain.ErrSwipeLimitReached); err != nil {
		release()
		return nil, err
	}
	if super {
		if err := take(domain.QuotaSuperLikes, limits.SuperLikes, domain.ErrSuperLikeLimit); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}

// upsertMatch creates a matched match for the pair or upgrades a pending one.
// A rejected match is returned as is.
func (uc *SwipeUseCase) upsertMatch(ctx context.Context, swiperID, swipedID int) (*domain.Match, bool, error) {
	existing, err := uc.matchRepo.GetByUsers(ctx, swiperID, swipedID)
	if err != nil && !errors.Is(err, domain.ErrMatchNotFound) {
		return nil, false, err
	}

	if existing != nil {
		if existing.Status == domain.MatchStatusPending {
			if err := uc.matchRepo.UpdateStatus(ctx, existing.ID, domain.MatchStatusMatched); err != nil {
				return nil, false, err
			}
			existing.Status = domain.MatchStatusMatched
			uc.publish(ctx, existing, swiperID)
		}
		return existing, false, nil
	}

	match := &domain.Match{
		User1ID:   swiperID,
		User2ID:   swipedID,
		Status:    domain.MatchStatusMatched,
		CreatedBy: swiperID,
	}
	if err := uc.matchRepo.Create(ctx, match); err != nil {
		return nil, false, err
	}
	return match, true, nil
}

func (uc *SwipeUseCase) enrichMatchAsync(matchID int, interests1, interests2 []string) {
	if uc.icebreakers == nil {
		return
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), icebreakerTimeout)
		defer cancel()

		lines, err := uc.icebreakers.GenerateIcebreakers(ctx, interests1, interests2)
		if err != nil {
			uc.logger.Warn("failed to generate icebreakers", zap.Int("match_id", matchID), zap.Error(err))
			return
		}
		if err := uc.matchRepo.UpdateIcebreakers(ctx, matchID, lines); err != nil {
			uc.logger.Warn("failed to save icebreakers", zap.Int("match_id", matchID), zap.Error(err))
		}
	}()
}

// Wait blocks until background match enrichment finishes
func (uc *SwipeUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *SwipeUseCase) publish(ctx context.Context, match *domain.Match, userID int) {
	ev, err := domain.NewEvent(domain.EventMatchUpdated, match.ID, userID, match)
	if err == nil {
		err = uc.events.Publish(ctx, ev)
	}
	if err != nil {
		uc.logger.Warn("failed to publish match event", zap.Int("match_id", match.ID), zap.Error(err))
	}
}
