package video

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

type VideoUseCase struct {
	videoRepo repository.VideoRepository
	userRepo  repository.UserRepository
	storage   storage.Storage
	logger    *zap.Logger
	now       func() time.Time
}

func NewVideoUseCase(
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	storage storage.Storage,
	logger *zap.Logger,
) *VideoUseCase {
	return &VideoUseCase{
		videoRepo: videoRepo,
		userRepo:  userRepo,
		storage:   storage,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadRequest describes a video file being uploaded
type UploadRequest struct {
	FileName    string  `form:"name"`
	Duration    float64 `form:"duration" binding:"required,gt=0"`
	ContentType string  `form:"-"`
}

// CounterResponse carries the new value of a video counter
type CounterResponse struct {
	VideoID string `json:"video_id"`
	Count   int    `json:"count"`
}

// Upload stores the clip and its metadata, enforcing length and the tier upload cap
func (uc *VideoUseCase) Upload(ctx context.Context, userID int, req *UploadRequest, file io.Reader) (*domain.Video, error) {
	if req.Duration > domain.VideoDurationLong {
		return nil, domain.ErrVideoTooLong
	}
	if req.ContentType != "" && !strings.HasPrefix(req.ContentType, "video/") {
		return nil, domain.ErrInvalidVideoFile
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	limits := domain.LimitsFor(user.MembershipTier)
	if limits.VideoUploads != domain.Unlimited {
		count, err := uc.videoRepo.CountByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count videos: %w", err)
		}
		if !domain.Allows(limits.VideoUploads, count) {
			return nil, domain.ErrUploadLimit(limits.Tier)
		}
	}

	name := cleanName(req.FileName)
	now := uc.now().UTC()
	key := fmt.Sprintf("videos/%d/%d-%s", userID, now.UnixMilli(), name)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}
	if err := uc.storage.Save(ctx, key, file, contentType); err != nil {
		return nil, fmt.Errorf("failed to store video: %w", err)
	}

	url := uc.storage.GetURL(key)
	video := &domain.Video{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       url,
		Key:       key,
		Thumbnail: url,
		Duration:  req.Duration,
		CreatedAt: now,
	}
	if err := uc.videoRepo.Create(ctx, video); err != nil {
		if delErr := uc.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			uc.logger.Warn("failed to remove orphaned video", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	uc.logger.Info("video uploaded", zap.Int("user_id", userID), zap.String("video_id", video.ID))
	return video, nil
}

// List returns one user's videos newest first, or the latest videos overall when userID is nil
func (uc *VideoUseCase) List(ctx context.Context, userID *int) ([]*domain.Video, error) {
	var (
		videos []*domain.Video
		err    error
	)
	if userID != nil {
		videos, err = uc.videoRepo.ListByUser(ctx, *userID)
	} else {
		videos, err = uc.videoRepo.ListLatest(ctx, domain.LatestVideosLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	if videos == nil {
		videos = []*domain.Video{}
	}
	return videos, nil
}

func (uc *VideoUseCase) Get(ctx context.Context, id string) (*domain.Video, error) {
	return uc.videoRepo.GetByID(ctx, id)
}

func (uc *VideoUseCase) Like(ctx context.Context, id string) (*CounterResponse, error) {
	return uc.increment(ctx, id, repository.VideoLikes)
}

func (uc *VideoUseCase) View(ctx context.Context, id string) (*CounterResponse, error) {
	return uc.increment(ctx, id, repository.VideoViews)
}

func (uc *VideoUseCase) increment(ctx context.Context, id string, counter repository.VideoCounter) (*CounterResponse, error) {
	n, err := uc.videoRepo.IncrementCounter(ctx, id, counter)
	if err != nil {
		return nil, err
	}
	return &CounterResponse{VideoID: id, Count: n}, nil
}

func cleanName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == "_" {
		return "video.mp4"
	}
	return name
}
