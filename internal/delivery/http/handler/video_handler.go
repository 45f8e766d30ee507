package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/spark-backend/internal/usecase/video"
)

// maxVideoBytes bounds a single clip upload
const maxVideoBytes = 50 << 20

type VideoHandler struct {
	videoUseCase *video.VideoUseCase
}

func NewVideoHandler(videoUseCase *video.VideoUseCase) *VideoHandler {
	return &VideoHandler{
		videoUseCase: videoUseCase,
	}
}

// Upload handles POST /videos
// @Summary Upload video
// @Description Multipart upload with field "video" and form value "duration" in seconds (max 9)
// @Tags videos
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file"
// @Param duration formData number true "Duration in seconds"
// @Param name formData string false "File name"
// @Success 201 {object} domain.Video
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxVideoBytes)

	var req video.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "duration is required")
		return
	}

	fh, err := c.FormFile("video")
	if err != nil {
		badRequest(c, "video file is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		badRequest(c, "failed to read video")
		return
	}
	defer file.Close()

	if req.FileName == "" {
		req.FileName = fh.Filename
	}
	req.ContentType = fh.Header.Get("Content-Type")

	v, err := h.videoUseCase.Upload(c.Request.Context(), userID, &req, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, v)
}

// List handles GET /videos
// @Summary List videos
// @Description Videos of user_id newest first, or the latest 10 across all users
// @Tags videos
// @Security BearerAuth
// @Produce json
// @Param user_id query int false "Owner"
// @Success 200 {array} domain.Video
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	var owner *int
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid user_id")
			return
		}
		owner = &id
	}

	videos, err := h.videoUseCase.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, videos)
}

// Get handles GET /videos/:id
// @Summary Get video
// @Tags videos
// @Security BearerAuth
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} domain.Video
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	v, err := h.videoUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

// Like handles POST /videos/:id/like
// @Summary Like video
// @Tags videos
// @Security BearerAuth
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} video.CounterResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id}/like [post]
func (h *VideoHandler) Like(c *gin.Context) {
	resp, err := h.videoUseCase.Like(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// View handles POST /videos/:id/view
// @Summary Count a video view
// @Tags videos
// @Security BearerAuth
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} video.CounterResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/{id}/view [post]
func (h *VideoHandler) View(c *gin.Context) {
	resp, err := h.videoUseCase.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
