// Package ws streams match events to participants over websockets.
package ws

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

// ChatService is the part of the chat use case a socket needs
type ChatService interface {
	Subscribe(ctx context.Context, userID, matchID int) (repository.Subscription, error)
	SetTyping(ctx context.Context, userID, matchID int, typing bool) error
	GoOnline(ctx context.Context, userID int) error
	GoOffline(ctx context.Context, userID int) error
}

type Handler struct {
	chat     ChatService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler accepts upgrades from allowedOrigins; "*" allows any origin
func NewHandler(chat ChatService, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// ServeMatch handles GET /ws/matches/:id
// @Summary Realtime match events
// @Description Upgrades to a websocket that streams message, read, typing and match events
// @Tags chat
// @Security BearerAuth
// @Param id path int true "Match ID"
// @Param token query string false "Session token when the Authorization header cannot be set"
// @Success 101
// @Failure 403 {object} handler.ErrorResponse
// @Failure 404 {object} handler.ErrorResponse
// @Router /ws/matches/{id} [get]
func (h *Handler) ServeMatch(c *gin.Context) {
	userID := c.GetInt("user_id")
	matchID, err := strconv.Atoi(c.Param("id"))
	if err != nil || matchID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, handler.ErrorResponse{Error: "invalid id"})
		return
	}

	sub, err := h.chat.Subscribe(c.Request.Context(), userID, matchID)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(handler.StatusFor(err), handler.ErrorResponse{
			Error: domain.UserMessage(err),
			Code:  string(domain.CodeOf(err)),
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int("user_id", userID), zap.Error(err))
		_ = sub.Close()
		return
	}

	// the socket outlives the request context once hijacked
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.chat.GoOnline(ctx, userID); err != nil {
		h.logger.Warn("failed to set presence online", zap.Int("user_id", userID), zap.Error(err))
	}

	cl := &client{
		userID:  userID,
		matchID: matchID,
		conn:    conn,
		sub:     sub,
		chat:    h.chat,
		logger:  h.logger,
		replies: make(chan interface{}, 16),
		done:    make(chan struct{}),
	}

	go func() {
		cl.writePump()
		_ = conn.Close()
	}()

	go func() {
		cl.readPump(ctx)
		if err := sub.Close(); err != nil {
			h.logger.Warn("failed to close subscription", zap.Int("match_id", matchID), zap.Error(err))
		}
		if err := h.chat.GoOffline(ctx, userID); err != nil {
			h.logger.Warn("failed to set presence offline", zap.Int("user_id", userID), zap.Error(err))
		}
		_ = conn.Close()
	}()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
