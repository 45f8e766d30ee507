package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository/mock"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestUseCase(t *testing.T) (*AuthUseCase, *mock.MockUserRepository, *mock.MockSessionRepository) {
	ctrl := gomock.NewController(t)
	users := mock.NewMockUserRepository(ctrl)
	sessions := mock.NewMockSessionRepository(ctrl)
	return NewAuthUseCase(users, sessions, testSecret, time.Hour, zap.NewNop()), users, sessions
}

func TestSignUp_Defaults(t *testing.T) {
	uc, users, sessions := newTestUseCase(t)

	users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
		assert.Equal(t, "new@example.com", u.Email)
		assert.Equal(t, domain.TierFree, u.MembershipTier)
		assert.Equal(t, 18, u.PrefMinAge)
		assert.Equal(t, 50, u.PrefMaxAge)
		assert.Equal(t, 50, u.PrefDistanceKm)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
		u.ID = 5
		return nil
	})
	sessions.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.Session) error {
		assert.Equal(t, 5, s.UserID)
		assert.Len(t, s.Token, 64)
		require.NotNil(t, s.IPAddress)
		assert.Equal(t, "10.0.0.1", *s.IPAddress)
		return nil
	})

	resp, err := uc.SignUp(context.Background(), &SignUpRequest{
		Email: " New@Example.com ", Password: "secret1", Username: "newbie",
	}, ClientInfo{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, resp.IsNewUser)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 5, resp.User.ID)
}

func TestSignUp_EmailTaken(t *testing.T) {
	uc, users, _ := newTestUseCase(t)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrEmailTaken)

	_, err := uc.SignUp(context.Background(), &SignUpRequest{Email: "a@b.c", Password: "secret1", Username: "ab"}, ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Equal(t, domain.CodeAlreadyExists, domain.CodeOf(err))
}

func TestSignIn_WrongPassword(t *testing.T) {
	uc, users, _ := newTestUseCase(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users.EXPECT().GetByEmail(gomock.Any(), "a@b.c").Return(&domain.User{ID: 1, PasswordHash: string(hash)}, nil)

	_, err = uc.SignIn(context.Background(), &SignInRequest{Email: "a@b.c", Password: "wrong-pass"}, ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignIn_UnknownEmail(t *testing.T) {
	uc, users, _ := newTestUseCase(t)
	users.EXPECT().GetByEmail(gomock.Any(), "nobody@b.c").Return(nil, domain.ErrUserNotFound)

	_, err := uc.SignIn(context.Background(), &SignInRequest{Email: "nobody@b.c", Password: "x"}, ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	uc, _, sessions := newTestUseCase(t)

	var stored *domain.Session
	sessions.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.Session) error {
		stored = s
		return nil
	})

	token, _, err := uc.createSession(context.Background(), 9, ClientInfo{})
	require.NoError(t, err)

	sessions.EXPECT().GetByToken(gomock.Any(), hashToken(token)).Return(stored, nil)

	userID, err := uc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 9, userID)
}

func TestVerifyToken_SessionRevoked(t *testing.T) {
	uc, _, sessions := newTestUseCase(t)
	sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	token, _, err := uc.createSession(context.Background(), 9, ClientInfo{})
	require.NoError(t, err)

	sessions.EXPECT().GetByToken(gomock.Any(), gomock.Any()).Return(nil, domain.ErrSessionNotFound)

	_, err = uc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestVerifyToken_Garbage(t *testing.T) {
	uc, _, _ := newTestUseCase(t)

	_, err := uc.VerifyToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	uc, _, sessions := newTestUseCase(t)
	sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	past := time.Now().Add(-2 * time.Hour)
	uc.now = func() time.Time { return past }
	token, _, err := uc.createSession(context.Background(), 9, ClientInfo{})
	require.NoError(t, err)

	uc.now = time.Now
	_, err = uc.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSignOut_HashesToken(t *testing.T) {
	uc, _, sessions := newTestUseCase(t)
	sessions.EXPECT().DeleteByToken(gomock.Any(), hashToken("abc")).Return(nil)

	require.NoError(t, uc.SignOut(context.Background(), "abc"))
}
