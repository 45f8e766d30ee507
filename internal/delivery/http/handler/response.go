package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/spark-backend/internal/domain"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// statusCodes maps error codes to HTTP statuses. 499 follows the nginx convention for cancelled requests.
var statusCodes = map[domain.Code]int{
	domain.CodePermissionDenied:   http.StatusForbidden,
	domain.CodeUnauthenticated:    http.StatusUnauthorized,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeAlreadyExists:      http.StatusConflict,
	domain.CodeFailedPrecondition: http.StatusPreconditionFailed,
	domain.CodeResourceExhausted:  http.StatusTooManyRequests,
	domain.CodeCancelled:          499,
	domain.CodeDataLoss:           http.StatusInternalServerError,
	domain.CodeUnknown:            http.StatusInternalServerError,
	domain.CodeInvalidArgument:    http.StatusBadRequest,
	domain.CodeDeadlineExceeded:   http.StatusGatewayTimeout,
	domain.CodeUnavailable:        http.StatusServiceUnavailable,
}

// StatusFor returns the HTTP status for err
func StatusFor(err error) int {
	if status, ok := statusCodes[domain.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes the user-facing message and records err on the context for the logger
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusFor(err), ErrorResponse{
		Error: domain.UserMessage(err),
		Code:  string(domain.CodeOf(err)),
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: message,
		Code:  string(domain.CodeInvalidArgument),
	})
}

func currentUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized",
			Code:  string(domain.CodeUnauthenticated),
		})
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
