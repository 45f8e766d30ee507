package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

type AuthUseCase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtSecret   string
	tokenTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// SignUpRequest represents email registration
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Username string `json:"username" binding:"required,min=2,max=50"`
}

// SignInRequest represents email login
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ClientInfo describes where a session was opened from
type ClientInfo struct {
	DeviceInfo string
	IPAddress  string
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
	IsNewUser bool         `json:"is_new_user"`
}

// SignUp creates the account with default preferences and opens a session
func (uc *AuthUseCase) SignUp(ctx context.Context, req *SignUpRequest, client ClientInfo) (*AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(hash),
		Username:       strings.TrimSpace(req.Username),
		Interests:      []string{},
		PrefMinAge:     domain.DefaultMinAgePref,
		PrefMaxAge:     domain.DefaultMaxAgePref,
		PrefDistanceKm: domain.DefaultDistanceKm,
		MembershipTier: domain.TierFree,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, expiresAt, err := uc.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	uc.logger.Info("user signed up", zap.Int("user_id", user.ID))

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user, IsNewUser: true}, nil
}

// SignIn checks the password and opens a session
func (uc *AuthUseCase) SignIn(ctx context.Context, req *SignInRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := uc.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me returns the signed-in user
func (uc *AuthUseCase) Me(ctx context.Context, userID int) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

// createSession creates a new session and returns JWT token
func (uc *AuthUseCase) createSession(ctx context.Context, userID int, client ClientInfo) (string, time.Time, error) {
	now := uc.now()
	expiresAt := now.Add(uc.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	})

	tokenString, err := token.SignedString([]byte(uc.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	session := &domain.Session{
		UserID:    userID,
		Token:     hashToken(tokenString),
		ExpiresAt: expiresAt,
	}
	if client.DeviceInfo != "" {
		session.DeviceInfo = &client.DeviceInfo
	}
	if client.IPAddress != "" {
		session.IPAddress = &client.IPAddress
	}

	if err := uc.sessionRepo.Create(ctx, session); err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// VerifyToken verifies JWT token and returns user ID
func (uc *AuthUseCase) VerifyToken(ctx context.Context, tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return []byte(uc.jwtSecret), nil
	}, jwt.WithTimeFunc(uc.now))

	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, domain.ErrInvalidToken
	}

	session, err := uc.sessionRepo.GetByToken(ctx, hashToken(tokenString))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpired(uc.now()) {
		return 0, domain.ErrSessionExpired
	}

	return int(userID), nil
}

// SignOut deletes user session
func (uc *AuthUseCase) SignOut(ctx context.Context, tokenString string) error {
	return uc.sessionRepo.DeleteByToken(ctx, hashToken(tokenString))
}

// PurgeExpiredSessions removes sessions past their expiry
func (uc *AuthUseCase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return uc.sessionRepo.DeleteExpired(ctx)
}

// hashToken creates SHA256 hash of token for storage
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
