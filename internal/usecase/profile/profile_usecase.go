package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

// BioGenerator drafts profile bios. Implemented by the Gemini client.
type BioGenerator interface {
	GenerateBio(ctx context.Context, username string, interests []string, vibe string) ([]string, error)
}

// ImageProcessor normalizes uploaded profile pictures
type ImageProcessor interface {
	Process(r io.Reader) ([]byte, error)
}

type ProfileUseCase struct {
	userRepo repository.UserRepository
	storage  storage.Storage
	images   ImageProcessor
	bios     BioGenerator
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewProfileUseCase(
	userRepo repository.UserRepository,
	storage storage.Storage,
	images ImageProcessor,
	bios BioGenerator,
	logger *zap.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		userRepo: userRepo,
		storage:  storage,
		images:   images,
		bios:     bios,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// UpdateProfileRequest merges into the stored profile; nil fields are left untouched
type UpdateProfileRequest struct {
	Username          *string  `json:"username" validate:"omitempty,min=2,max=50"`
	Age               *int     `json:"age" validate:"omitempty,min=18,max=100"`
	GenderIdentity    *string  `json:"gender_identity"`
	SexualOrientation *string  `json:"sexual_orientation"`
	Bio               *string  `json:"bio" validate:"omitempty,max=500"`
	Interests         []string `json:"interests" validate:"omitempty,max=20,dive,min=1,max=40"`
	PrefMinAge        *int     `json:"pref_min_age" validate:"omitempty,min=18,max=100"`
	PrefMaxAge        *int     `json:"pref_max_age" validate:"omitempty,min=18,max=100"`
	PrefDistanceKm    *int     `json:"pref_distance_km" validate:"omitempty,min=1,max=20000"`
}

// UpdateLocationRequest carries device coordinates
type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" binding:"required" validate:"required,latitude"`
	Lng *float64 `json:"lng" binding:"required" validate:"required,longitude"`
}

// GenerateBioRequest represents request to generate bio
type GenerateBioRequest struct {
	Interests []string `json:"interests"`
	Vibe      string   `json:"vibe"`
}

// ProfileResponse is another user's profile as seen by the viewer
type ProfileResponse struct {
	*domain.PublicProfile
}

func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, userID int) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// GetProfileByUserID returns the public view of target with distance to the viewer
func (uc *ProfileUseCase) GetProfileByUserID(ctx context.Context, targetUserID, currentUserID int) (*ProfileResponse, error) {
	target, err := uc.userRepo.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	public := target.Public()
	if me, err := uc.userRepo.GetByID(ctx, currentUserID); err == nil {
		public.DistanceKm = domain.DistanceBetween(me, target)
	}
	return &ProfileResponse{PublicProfile: public}, nil
}

// UpdateProfile validates and merges the request into the user's profile
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, userID int, req *UpdateProfileRequest) (*domain.User, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, invalid(err.Error())
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.GenderIdentity != nil {
		if !domain.IsGenderIdentity(*req.GenderIdentity) {
			return nil, invalid("unknown gender identity")
		}
		user.GenderIdentity = req.GenderIdentity
	}
	if req.SexualOrientation != nil {
		if !domain.IsSexualOrientation(*req.SexualOrientation) {
			return nil, invalid("unknown sexual orientation")
		}
		user.SexualOrientation = req.SexualOrientation
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		user.Bio = &bio
	}
	if req.Interests != nil {
		user.Interests = normalizeInterests(req.Interests)
	}
	if req.PrefMinAge != nil {
		user.PrefMinAge = *req.PrefMinAge
	}
	if req.PrefMaxAge != nil {
		user.PrefMaxAge = *req.PrefMaxAge
	}
	if req.PrefDistanceKm != nil {
		user.PrefDistanceKm = *req.PrefDistanceKm
	}
	if user.PrefMinAge > user.PrefMaxAge {
		return nil, invalid("preferred age range minimum exceeds maximum")
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (uc *ProfileUseCase) UpdateLocation(ctx context.Context, userID int, req *UpdateLocationRequest) (*domain.User, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, invalid(err.Error())
	}
	if err := uc.userRepo.UpdateLocation(ctx, userID, *req.Lat, *req.Lng); err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}
	return uc.userRepo.GetByID(ctx, userID)
}

// UploadProfilePicture resizes the image, stores it and points the profile at it
func (uc *ProfileUseCase) UploadProfilePicture(ctx context.Context, userID int, image io.Reader) (*domain.User, error) {
	data, err := uc.images.Process(image)
	if err != nil {
		return nil, invalid("unsupported image")
	}

	key := fmt.Sprintf("profile-pictures/%d/%d.jpg", userID, uc.now().UnixMilli())
	if err := uc.storage.Save(ctx, key, bytes.NewReader(data), "image/jpeg"); err != nil {
		return nil, fmt.Errorf("failed to store profile picture: %w", err)
	}

	if err := uc.userRepo.UpdateProfilePicture(ctx, userID, uc.storage.GetURL(key)); err != nil {
		if delErr := uc.storage.Delete(ctx, key); delErr != nil {
			uc.logger.Warn("failed to remove orphaned picture", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to update profile picture: %w", err)
	}

	return uc.userRepo.GetByID(ctx, userID)
}

// GenerateBio asks the AI for bio drafts, falling back to a template when AI is off
func (uc *ProfileUseCase) GenerateBio(ctx context.Context, userID int, req *GenerateBioRequest) ([]string, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	interests := req.Interests
	if len(interests) == 0 {
		interests = user.Interests
	}
	vibe := req.Vibe
	if vibe == "" {
		vibe = "warm and playful"
	}

	if uc.bios != nil {
		bios, err := uc.bios.GenerateBio(ctx, user.Username, interests, vibe)
		if err == nil && len(bios) > 0 {
			return truncateAll(bios, domain.MaxBioLength), nil
		}
		uc.logger.Warn("bio generation unavailable, using fallback", zap.Error(err))
	}

	return []string{fallbackBio(interests)}, nil
}

func fallbackBio(interests []string) string {
	if len(interests) == 0 {
		return "New here and curious. Ask me about my favorite weekend plans."
	}
	if len(interests) > 3 {
		interests = interests[:3]
	}
	return "Into " + strings.Join(interests, ", ") + ". Looking for someone to share them with."
}

func normalizeInterests(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func truncateAll(items []string, max int) []string {
	for i, s := range items {
		if r := []rune(s); len(r) > max {
			items[i] = string(r[:max])
		}
	}
	return items
}

func invalid(msg string) error {
	return &domain.Error{Code: domain.CodeInvalidArgument, Message: "Invalid data provided: " + msg, Err: errors.New(msg)}
}
