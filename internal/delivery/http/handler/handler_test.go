package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository/mock"
	"github.com/gdugdh24/spark-backend/internal/usecase/feed"
	"github.com/gdugdh24/spark-backend/internal/usecase/match"
	"github.com/gdugdh24/spark-backend/internal/usecase/membership"
	"github.com/gdugdh24/spark-backend/internal/usecase/video"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for the auth middleware
func asUser(id int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Next()
	}
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrMatchNotFound, http.StatusNotFound},
		{domain.ErrChatAccessDenied, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrChatClosed, http.StatusPreconditionFailed},
		{domain.ErrSwipeLimitReached, http.StatusTooManyRequests},
		{domain.ErrVideoTooLong, http.StatusBadRequest},
		{context.Canceled, 499},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{domain.WrapError(domain.CodeUnavailable, errors.New("redis down")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestFeedHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mock.NewMockUserRepository(ctrl)
	blocks := mock.NewMockBlockRepository(ctrl)
	h := NewFeedHandler(feed.NewFeedUseCase(users, blocks))

	r := gin.New()
	r.GET("/feed", asUser(1), h.GetFeed)
	r.POST("/blocks/:user_id", asUser(1), h.BlockUser)
	r.GET("/anonymous", h.GetFeed)

	t.Run("page", func(t *testing.T) {
		users.EXPECT().GetByID(gomock.Any(), 1).Return(&domain.User{ID: 1}, nil)
		users.EXPECT().ListFeed(gomock.Any(), 1, gomock.Nil(), feed.ItemsPerPage).
			Return([]*domain.User{{ID: 2, Username: "bo"}}, nil)

		w := do(r, http.MethodGet, "/feed", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page feed.FeedPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Len(t, page.Profiles, 1)
		assert.Equal(t, "bo", page.Profiles[0].Username)
		assert.False(t, page.HasMore)
	})

	t.Run("bad cursor", func(t *testing.T) {
		w := do(r, http.MethodGet, "/feed?cursor=!!!", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid feed cursor", decodeError(t, w).Error)
	})

	t.Run("block self", func(t *testing.T) {
		w := do(r, http.MethodPost, "/blocks/1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "You cannot block yourself", resp.Error)
		assert.Equal(t, string(domain.CodeInvalidArgument), resp.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := do(r, http.MethodPost, "/blocks/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no user", func(t *testing.T) {
		w := do(r, http.MethodGet, "/anonymous", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMatchHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	matches := mock.NewMockMatchRepository(ctrl)
	users := mock.NewMockUserRepository(ctrl)
	events := mock.NewMockEventBus(ctrl)
	h := NewMatchHandler(match.NewMatchUseCase(matches, users, events, zap.NewNop()), nil)

	r := gin.New()
	r.GET("/matches/:id", asUser(1), h.GetMatch)
	r.PATCH("/matches/:id", asUser(1), h.UpdateMatchStatus)

	t.Run("not a participant", func(t *testing.T) {
		matches.EXPECT().GetByID(gomock.Any(), 5).Return(&domain.Match{ID: 5, User1ID: 2, User2ID: 3}, nil)

		w := do(r, http.MethodGet, "/matches/5", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Match not found", decodeError(t, w).Error)
	})

	t.Run("update forbidden", func(t *testing.T) {
		matches.EXPECT().GetByID(gomock.Any(), 6).Return(&domain.Match{ID: 6, User1ID: 2, User2ID: 3}, nil)

		w := do(r, http.MethodPatch, "/matches/6", map[string]string{"status": "matched"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You do not have permission to update this match", decodeError(t, w).Error)
	})

	t.Run("missing body", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/matches/6", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMembershipHandler_Tiers(t *testing.T) {
	h := NewMembershipHandler(membership.NewMembershipUseCase(nil, nil, nil, zap.NewNop()))
	r := gin.New()
	r.GET("/membership/tiers", h.Tiers)

	w := do(r, http.MethodGet, "/membership/tiers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tiers []domain.TierLimits
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tiers))
	require.Len(t, tiers, 3)
	assert.Equal(t, domain.Unlimited, tiers[2].SwipesPerDay)
}

func TestVideoHandler_UploadValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewVideoHandler(video.NewVideoUseCase(mock.NewMockVideoRepository(ctrl), mock.NewMockUserRepository(ctrl), nil, zap.NewNop()))
	r := gin.New()
	r.POST("/videos", asUser(1), h.Upload)

	upload := func(fields map[string]string, withFile bool) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for k, v := range fields {
			_ = mw.WriteField(k, v)
		}
		if withFile {
			part, _ := mw.CreateFormFile("video", "clip.mp4")
			_, _ = part.Write([]byte("frames"))
		}
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/videos", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := upload(map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duration is required", decodeError(t, w).Error)

	w = upload(map[string]string{"duration": "4"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "video file is required", decodeError(t, w).Error)

	// too long is rejected before the owner is looked up
	w = upload(map[string]string{"duration": "12"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Video must be 9 seconds or less", decodeError(t, w).Error)
}
