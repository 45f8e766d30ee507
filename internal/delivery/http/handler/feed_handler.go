package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/spark-backend/internal/usecase/feed"
)

type FeedHandler struct {
	feedUseCase *feed.FeedUseCase
}

func NewFeedHandler(feedUseCase *feed.FeedUseCase) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
	}
}

// GetFeed handles GET /feed
// @Summary Get feed page
// @Description Newest profiles first, 10 per page. Pass next_cursor from the previous page to continue.
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param cursor query string false "Cursor from the previous page"
// @Success 200 {object} feed.FeedPage
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := h.feedUseCase.Fetch(c.Request.Context(), userID, c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// BlockUser handles POST /blocks/:user_id
// @Summary Block user
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} domain.Block
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /blocks/{user_id} [post]
func (h *FeedHandler) BlockUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := intParam(c, "user_id")
	if !ok {
		return
	}

	block, err := h.feedUseCase.BlockUser(c.Request.Context(), userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, block)
}

// UnblockUser handles DELETE /blocks/:user_id
// @Summary Unblock user
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} SuccessResponse
// @Router /blocks/{user_id} [delete]
func (h *FeedHandler) UnblockUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := intParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.feedUseCase.UnblockUser(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "user unblocked"})
}

// ListBlocked handles GET /blocks
// @Summary List blocked users
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Block
// @Router /blocks [get]
func (h *FeedHandler) ListBlocked(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	blocks, err := h.feedUseCase.ListBlocked(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, blocks)
}
