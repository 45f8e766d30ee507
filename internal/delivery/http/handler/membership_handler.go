package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/spark-backend/internal/usecase/membership"
)

type MembershipHandler struct {
	membershipUseCase *membership.MembershipUseCase
}

func NewMembershipHandler(membershipUseCase *membership.MembershipUseCase) *MembershipHandler {
	return &MembershipHandler{
		membershipUseCase: membershipUseCase,
	}
}

// Tiers handles GET /membership/tiers
// @Summary List membership tiers
// @Tags membership
// @Produce json
// @Success 200 {array} domain.TierLimits
// @Router /membership/tiers [get]
func (h *MembershipHandler) Tiers(c *gin.Context) {
	c.JSON(http.StatusOK, h.membershipUseCase.Tiers())
}

// ChangeTier handles PUT /membership
// @Summary Change membership tier
// @Tags membership
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body membership.ChangeTierRequest true "Tier"
// @Success 200 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Router /membership [put]
func (h *MembershipHandler) ChangeTier(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req membership.ChangeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.membershipUseCase.ChangeTier(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Usage handles GET /membership/usage
// @Summary Today's usage against tier limits
// @Tags membership
// @Security BearerAuth
// @Produce json
// @Success 200 {object} membership.UsageResponse
// @Router /membership/usage [get]
func (h *MembershipHandler) Usage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	usage, err := h.membershipUseCase.Usage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}
