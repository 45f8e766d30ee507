package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/spark-backend/internal/usecase/chat"
)

type ChatHandler struct {
	chatUseCase *chat.ChatUseCase
}

func NewChatHandler(chatUseCase *chat.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

// ListRooms handles GET /chats
// @Summary List chat rooms
// @Description One entry per match with last message, unread count, typing and presence
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.ChatRoom
// @Router /chats [get]
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rooms, err := h.chatUseCase.Rooms(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// ListMessages handles GET /chats/:id/messages
// @Summary List messages
// @Description Up to 100 messages, oldest first
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {array} domain.Message
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /chats/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.chatUseCase.ListMessages(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage handles POST /chats/:id/messages
// @Summary Send message
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body chat.SendMessageRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 412 {object} ErrorResponse
// @Router /chats/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	message, err := h.chatUseCase.SendMessage(c.Request.Context(), userID, matchID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// MarkAsRead handles POST /chats/:id/messages/:message_id/read
// @Summary Mark message read
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param id path int true "Match ID"
// @Param message_id path int true "Message ID"
// @Success 200 {object} SuccessResponse
// @Router /chats/{id}/messages/{message_id}/read [post]
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}
	messageID, ok := intParam(c, "message_id")
	if !ok {
		return
	}

	if err := h.chatUseCase.MarkAsRead(c.Request.Context(), userID, matchID, messageID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}

// MarkManyAsRead handles POST /chats/:id/read
// @Summary Mark messages read
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body chat.MarkManyRequest true "Message IDs"
// @Success 200 {object} SuccessResponse
// @Router /chats/{id}/read [post]
func (h *ChatHandler) MarkManyAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req chat.MarkManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.chatUseCase.MarkManyAsRead(c.Request.Context(), userID, matchID, req.MessageIDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}

// SetTyping handles POST /chats/:id/typing
// @Summary Set typing indicator
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body chat.TypingRequest true "Typing flag"
// @Success 200 {object} SuccessResponse
// @Router /chats/{id}/typing [post]
func (h *ChatHandler) SetTyping(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req chat.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.chatUseCase.SetTyping(c.Request.Context(), userID, matchID, req.Typing); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}

// PresignAttachment handles POST /chats/:id/attachments
// @Summary Get an attachment upload URL
// @Description Returns a presigned PUT URL valid for 5 minutes
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body chat.AttachmentRequest true "File info"
// @Success 200 {object} chat.AttachmentUpload
// @Failure 400 {object} ErrorResponse
// @Router /chats/{id}/attachments [post]
func (h *ChatHandler) PresignAttachment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchID, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req chat.AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	upload, err := h.chatUseCase.PresignAttachment(c.Request.Context(), userID, matchID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, upload)
}

// GetPresence handles GET /presence/:user_id
// @Summary Get user presence
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} domain.Presence
// @Router /presence/{user_id} [get]
func (h *ChatHandler) GetPresence(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	targetID, ok := intParam(c, "user_id")
	if !ok {
		return
	}

	presence, err := h.chatUseCase.GetPresence(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, presence)
}
