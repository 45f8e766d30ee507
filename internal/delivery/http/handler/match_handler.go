package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/spark-backend/internal/usecase/match"
	"github.com/gdugdh24/spark-backend/internal/usecase/swipe"
)

type MatchHandler struct {
	matchUseCase *match.MatchUseCase
	swipeUseCase *swipe.SwipeUseCase
}

func NewMatchHandler(matchUseCase *match.MatchUseCase, swipeUseCase *swipe.SwipeUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
		swipeUseCase: swipeUseCase,
	}
}

// CreateSwipe handles POST /swipes
// @Summary Swipe on a user
// @Description Records a like, pass or super like. A mutual like opens a match.
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body swipe.SwipeRequest true "Swipe"
// @Success 200 {object} swipe.SwipeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /swipes [post]
func (h *MatchHandler) CreateSwipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req swipe.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resp, err := h.swipeUseCase.CreateSwipe(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateMatch handles POST /matches
// @Summary Create match
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body match.CreateMatchRequest true "Target user"
// @Success 201 {object} domain.Match
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req match.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	m, err := h.matchUseCase.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// ListMatches handles GET /matches
// @Summary List my matches
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Match
// @Router /matches [get]
func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	matches, err := h.matchUseCase.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

// GetMatch handles GET /matches/:id
// @Summary Get match
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} domain.Match
// @Failure 404 {object} ErrorResponse
// @Router /matches/{id} [get]
func (h *MatchHandler) GetMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	m, err := h.matchUseCase.Get(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// UpdateMatchStatus handles PATCH /matches/:id
// @Summary Update match status
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body match.UpdateStatusRequest true "New status"
// @Success 200 {object} domain.Match
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /matches/{id} [patch]
func (h *MatchHandler) UpdateMatchStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req match.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	m, err := h.matchUseCase.UpdateStatus(c.Request.Context(), userID, matchID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// DeleteMatch handles DELETE /matches/:id
// @Summary Delete match
// @Description Deletes the match together with its messages
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /matches/{id} [delete]
func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.matchUseCase.Delete(c.Request.Context(), userID, matchID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "match deleted"})
}
