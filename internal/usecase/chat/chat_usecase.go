package chat

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

const (
	attachmentURLExpiry = 5 * time.Minute
	roomsConcurrency    = 8
)

type ChatUseCase struct {
	matchRepo    repository.MatchRepository
	messageRepo  repository.MessageRepository
	userRepo     repository.UserRepository
	presenceRepo repository.PresenceRepository
	events       repository.EventBus
	storage      storage.Storage
	logger       *zap.Logger
	now          func() time.Time
}

func NewChatUseCase(
	matchRepo repository.MatchRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	presenceRepo repository.PresenceRepository,
	events repository.EventBus,
	storage storage.Storage,
	logger *zap.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		matchRepo:    matchRepo,
		messageRepo:  messageRepo,
		userRepo:     userRepo,
		presenceRepo: presenceRepo,
		events:       events,
		storage:      storage,
		logger:       logger,
		now:          time.Now,
	}
}

// SendMessageRequest represents a new chat message
type SendMessageRequest struct {
	Content     string                 `json:"content" binding:"required"`
	ContentType domain.ContentType     `json:"content_type"`
	Metadata    domain.MessageMetadata `json:"metadata"`
}

// MarkManyRequest lists messages to acknowledge at once
type MarkManyRequest struct {
	MessageIDs []int `json:"message_ids" binding:"required,min=1"`
}

// TypingRequest toggles the typing indicator
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// AttachmentRequest asks for an upload slot for a chat attachment
type AttachmentRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// AttachmentUpload is a presigned PUT target plus the URL the file will be served from
type AttachmentUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authorize loads the match and checks that userID takes part in it
func (uc *ChatUseCase) Authorize(ctx context.Context, userID, matchID int) (*domain.Match, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, domain.ErrMatchNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	if !match.HasUser(userID) {
		return nil, domain.ErrChatAccessDenied
	}
	return match, nil
}

// ListMessages returns the chat history oldest first. Incoming sent messages become delivered.
func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, matchID int) ([]*domain.Message, error) {
	if _, err := uc.Authorize(ctx, userID, matchID); err != nil {
		return nil, err
	}

	if err := uc.messageRepo.MarkDelivered(ctx, matchID, userID); err != nil {
		uc.logger.Warn("failed to mark messages delivered", zap.Int("match_id", matchID), zap.Error(err))
	}

	messages, err := uc.messageRepo.ListByMatch(ctx, matchID, domain.MessagePageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return messages, nil
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, matchID int, req *SendMessageRequest) (*domain.Message, error) {
	match, err := uc.Authorize(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == domain.MatchStatusRejected {
		return nil, domain.ErrChatClosed
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = domain.ContentText
	}
	if !contentType.Valid() {
		return nil, domain.ErrInvalidContentType
	}

	message := &domain.Message{
		MatchID:     matchID,
		SenderID:    userID,
		Content:     content,
		ContentType: contentType,
		Metadata:    req.Metadata,
		Status:      domain.MessageSent,
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := uc.presenceRepo.SetTyping(ctx, matchID, userID, false); err != nil {
		uc.logger.Debug("failed to clear typing flag", zap.Error(err))
	}
	uc.publish(ctx, domain.EventMessageCreated, matchID, userID, message)

	return message, nil
}

// MarkAsRead acknowledges one message. Marking your own message is a no-op.
func (uc *ChatUseCase) MarkAsRead(ctx context.Context, userID, matchID, messageID int) error {
	if _, err := uc.Authorize(ctx, userID, matchID); err != nil {
		return err
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.MatchID != matchID {
		return domain.ErrMessageNotFound
	}
	if message.SenderID == userID || message.Read {
		return nil
	}

	return uc.markRead(ctx, userID, matchID, []int{messageID})
}

func (uc *ChatUseCase) MarkManyAsRead(ctx context.Context, userID, matchID int, ids []int) error {
	if _, err := uc.Authorize(ctx, userID, matchID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return uc.markRead(ctx, userID, matchID, ids)
}

func (uc *ChatUseCase) markRead(ctx context.Context, userID, matchID int, ids []int) error {
	readAt := uc.now().UTC()
	changed, err := uc.messageRepo.MarkRead(ctx, matchID, userID, ids, readAt)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	if len(changed) > 0 {
		uc.publish(ctx, domain.EventMessageRead, matchID, userID, domain.ReadPayload{MessageIDs: changed, ReadAt: readAt})
	}
	return nil
}

// SetTyping raises or clears the typing flag; a raised flag expires on its own
func (uc *ChatUseCase) SetTyping(ctx context.Context, userID, matchID int, typing bool) error {
	if _, err := uc.Authorize(ctx, userID, matchID); err != nil {
		return err
	}
	if err := uc.presenceRepo.SetTyping(ctx, matchID, userID, typing); err != nil {
		return err
	}
	uc.publish(ctx, domain.EventTyping, matchID, userID, domain.TypingPayload{Typing: typing})
	return nil
}

func (uc *ChatUseCase) GetPresence(ctx context.Context, userID int) (*domain.Presence, error) {
	return uc.presenceRepo.Get(ctx, userID)
}

func (uc *ChatUseCase) GoOnline(ctx context.Context, userID int) error {
	return uc.presenceRepo.SetOnline(ctx, userID)
}

func (uc *ChatUseCase) GoOffline(ctx context.Context, userID int) error {
	return uc.presenceRepo.SetOffline(ctx, userID)
}

// Subscribe opens the realtime event stream of a match for a participant
func (uc *ChatUseCase) Subscribe(ctx context.Context, userID, matchID int) (repository.Subscription, error) {
	if _, err := uc.Authorize(ctx, userID, matchID); err != nil {
		return nil, err
	}
	return uc.events.Subscribe(ctx, matchID)
}

// Rooms builds the conversation list, most recent activity first
func (uc *ChatUseCase) Rooms(ctx context.Context, userID int) ([]*domain.ChatRoom, error) {
	matches, err := uc.matchRepo.GetUserMatches(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	rooms := make([]*domain.ChatRoom, len(matches))
	otherIDs := make([]int, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(roomsConcurrency)
	for i, m := range matches {
		i, m := i, m
		otherID, _ := m.GetOtherUserID(userID)
		otherIDs[i] = otherID

		g.Go(func() error {
			room := &domain.ChatRoom{MatchID: m.ID, Status: m.Status, LastActivity: m.UpdatedAt}

			last, err := uc.messageRepo.GetLastMessage(gctx, m.ID)
			if err != nil {
				return err
			}
			if last != nil {
				room.LastMessage = last
				if last.CreatedAt.After(room.LastActivity) {
					room.LastActivity = last.CreatedAt
				}
			}

			if room.UnreadCount, err = uc.messageRepo.CountUnread(gctx, m.ID, userID); err != nil {
				return err
			}

			// presence is best effort, the room list must render without redis
			if typing, err := uc.presenceRepo.IsTyping(gctx, m.ID, otherID); err == nil {
				room.IsTyping = typing
			}
			if presence, err := uc.presenceRepo.Get(gctx, otherID); err == nil {
				room.Presence = presence
			}

			rooms[i] = room
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build chat rooms: %w", err)
	}

	if len(otherIDs) > 0 {
		users, err := uc.userRepo.GetByIDs(ctx, otherIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get participants: %w", err)
		}
		byID := make(map[int]*domain.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		for i, room := range rooms {
			if u, ok := byID[otherIDs[i]]; ok {
				room.Participant = u.Public()
			}
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].LastActivity.After(rooms[j].LastActivity)
	})
	return rooms, nil
}

// PresignAttachment reserves an object key for an image, video or audio attachment
func (uc *ChatUseCase) PresignAttachment(ctx context.Context, userID, matchID int, req *AttachmentRequest) (*AttachmentUpload, error) {
	if _, err := uc.Authorize(ctx, userID, matchID); err != nil {
		return nil, err
	}

	kind, _, _ := strings.Cut(req.ContentType, "/")
	if !domain.ContentType(kind).IsMedia() {
		return nil, domain.ErrInvalidContentType
	}

	name := sanitizeFileName(req.FileName)
	if name == "" {
		return nil, domain.NewError(domain.CodeInvalidArgument, "File name is required")
	}

	now := uc.now()
	key := fmt.Sprintf("chat/%d/%d-%s", matchID, now.UnixMilli(), name)
	uploadURL, err := uc.storage.PresignUpload(ctx, key, req.ContentType, attachmentURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign attachment: %w", err)
	}

	return &AttachmentUpload{
		UploadURL: uploadURL,
		FileURL:   uc.storage.GetURL(key),
		Key:       key,
		ExpiresAt: now.Add(attachmentURLExpiry),
	}, nil
}

func (uc *ChatUseCase) publish(ctx context.Context, t domain.EventType, matchID, userID int, payload interface{}) {
	ev, err := domain.NewEvent(t, matchID, userID, payload)
	if err == nil {
		err = uc.events.Publish(ctx, ev)
	}
	if err != nil {
		uc.logger.Warn("failed to publish chat event",
			zap.String("type", string(t)), zap.Int("match_id", matchID), zap.Error(err))
	}
}

// sanitizeFileName keeps the base name and replaces characters that are unsafe in object keys
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
