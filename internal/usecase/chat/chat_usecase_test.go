package chat

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository/mock"
)

type presignStorage struct {
	path        string
	contentType string
	expiry      time.Duration
}

func (s *presignStorage) Save(context.Context, string, io.Reader, string) error { return nil }
func (s *presignStorage) Delete(context.Context, string) error { return nil }
func (s *presignStorage) GetURL(p string) string { return "https://cdn.test/" + p }

func (s *presignStorage) PresignUpload(_ context.Context, p, contentType string, expiry time.Duration) (string, error) {
	s.path, s.contentType, s.expiry = p, contentType, expiry
	return "https://s3.test/put/" + p, nil
}

func (s *presignStorage) GetSignedURL(_ context.Context, p string, _ time.Duration) (string, error) {
	return "https://s3.test/get/" + p, nil
}

type fixture struct {
	uc       *ChatUseCase
	matches  *mock.MockMatchRepository
	messages *mock.MockMessageRepository
	users    *mock.MockUserRepository
	presence *mock.MockPresenceRepository
	events   *mock.MockEventBus
	storage  *presignStorage
}

var fixedNow = time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		matches:  mock.NewMockMatchRepository(ctrl),
		messages: mock.NewMockMessageRepository(ctrl),
		users:    mock.NewMockUserRepository(ctrl),
		presence: mock.NewMockPresenceRepository(ctrl),
		events:   mock.NewMockEventBus(ctrl),
		storage:  &presignStorage{},
	}
	f.uc = NewChatUseCase(f.matches, f.messages, f.users, f.presence, f.events, f.storage, zap.NewNop())
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) expectMatch(status domain.MatchStatus) {
	f.matches.EXPECT().GetByID(gomock.Any(), 10).
		Return(&domain.Match{ID: 10, User1ID: 1, User2ID: 2, Status: status}, nil)
}

func TestAuthorize(t *testing.T) {
	t.Run("missing match", func(t *testing.T) {
		f := newFixture(t)
		f.matches.EXPECT().GetByID(gomock.Any(), 10).Return(nil, domain.ErrMatchNotFound)

		_, err := f.uc.ListMessages(context.Background(), 1, 10)
		assert.ErrorIs(t, err, domain.ErrChatNotFound)
		assert.Equal(t, "Chat not found", domain.UserMessage(err))
	})

	t.Run("outsider", func(t *testing.T) {
		f := newFixture(t)
		f.expectMatch(domain.MatchStatusMatched)

		_, err := f.uc.ListMessages(context.Background(), 3, 10)
		assert.ErrorIs(t, err, domain.ErrChatAccessDenied)
		assert.Equal(t, domain.CodePermissionDenied, domain.CodeOf(err))
	})
}

func TestListMessages_MarksDelivered(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	gomock.InOrder(
		f.messages.EXPECT().MarkDelivered(gomock.Any(), 10, 1).Return(nil),
		f.messages.EXPECT().ListByMatch(gomock.Any(), 10, domain.MessagePageSize).Return(nil, nil),
	)

	msgs, err := f.uc.ListMessages(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	f.messages.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *domain.Message) error {
		assert.Equal(t, domain.MessageSent, m.Status)
		assert.Equal(t, domain.ContentText, m.ContentType)
		assert.False(t, m.Read)
		assert.Equal(t, "hello", m.Content)
		m.ID = 99
		return nil
	})
	f.presence.EXPECT().SetTyping(gomock.Any(), 10, 1, false).Return(nil)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev *domain.Event) error {
		assert.Equal(t, domain.EventMessageCreated, ev.Type)
		return nil
	})

	msg, err := f.uc.SendMessage(context.Background(), 1, 10, &SendMessageRequest{Content: " hello "})
	require.NoError(t, err)
	assert.Equal(t, 99, msg.ID)
}

func TestSendMessage_Rejections(t *testing.T) {
	tt := []struct {
		name   string
		status domain.MatchStatus
		req    *SendMessageRequest
		want   error
	}{
		{"rejected match", domain.MatchStatusRejected, &SendMessageRequest{Content: "hi"}, domain.ErrChatClosed},
		{"blank content", domain.MatchStatusMatched, &SendMessageRequest{Content: "   "}, domain.ErrEmptyMessage},
		{"bad type", domain.MatchStatusMatched, &SendMessageRequest{Content: "hi", ContentType: "sticker"}, domain.ErrInvalidContentType},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectMatch(tc.status)

			_, err := f.uc.SendMessage(context.Background(), 1, 10, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMarkAsRead_OwnMessageIsNoop(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	f.messages.EXPECT().GetByID(gomock.Any(), 5).Return(&domain.Message{ID: 5, MatchID: 10, SenderID: 1}, nil)

	require.NoError(t, f.uc.MarkAsRead(context.Background(), 1, 10, 5))
}

func TestMarkAsRead(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	f.messages.EXPECT().GetByID(gomock.Any(), 5).Return(&domain.Message{ID: 5, MatchID: 10, SenderID: 2}, nil)
	f.messages.EXPECT().MarkRead(gomock.Any(), 10, 1, []int{5}, fixedNow).Return([]int{5}, nil)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev *domain.Event) error {
		assert.Equal(t, domain.EventMessageRead, ev.Type)
		assert.JSONEq(t, `{"message_ids":[5],"read_at":"2024-07-01T09:30:00Z"}`, string(ev.Payload))
		return nil
	})

	require.NoError(t, f.uc.MarkAsRead(context.Background(), 1, 10, 5))
}

func TestMarkAsRead_ForeignMatchMessage(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	f.messages.EXPECT().GetByID(gomock.Any(), 5).Return(&domain.Message{ID: 5, MatchID: 11, SenderID: 2}, nil)

	err := f.uc.MarkAsRead(context.Background(), 1, 10, 5)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestMarkManyAsRead_NothingChanged(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	f.messages.EXPECT().MarkRead(gomock.Any(), 10, 1, []int{1, 2}, fixedNow).Return(nil, nil)

	require.NoError(t, f.uc.MarkManyAsRead(context.Background(), 1, 10, []int{1, 2}))
}

func TestSetTyping(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)
	f.presence.EXPECT().SetTyping(gomock.Any(), 10, 2, true).Return(nil)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.uc.SetTyping(context.Background(), 2, 10, true))
}

func TestRooms(t *testing.T) {
	f := newFixture(t)
	older := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	f.matches.EXPECT().GetUserMatches(gomock.Any(), 1).Return([]*domain.Match{
		{ID: 10, User1ID: 1, User2ID: 2, Status: domain.MatchStatusMatched, UpdatedAt: older},
		{ID: 11, User1ID: 1, User2ID: 3, Status: domain.MatchStatusMatched, UpdatedAt: older},
	}, nil)
	f.messages.EXPECT().GetLastMessage(gomock.Any(), 10).Return(nil, nil)
	f.messages.EXPECT().GetLastMessage(gomock.Any(), 11).Return(&domain.Message{ID: 7, Content: "yo", CreatedAt: newer}, nil)
	f.messages.EXPECT().CountUnread(gomock.Any(), 10, 1).Return(0, nil)
	f.messages.EXPECT().CountUnread(gomock.Any(), 11, 1).Return(2, nil)
	f.presence.EXPECT().IsTyping(gomock.Any(), 10, 2).Return(false, nil)
	f.presence.EXPECT().IsTyping(gomock.Any(), 11, 3).Return(true, nil)
	f.presence.EXPECT().Get(gomock.Any(), 2).Return(&domain.Presence{UserID: 2, Status: domain.PresenceOffline}, nil)
	f.presence.EXPECT().Get(gomock.Any(), 3).Return(&domain.Presence{UserID: 3, Status: domain.PresenceOnline}, nil)
	f.users.EXPECT().GetByIDs(gomock.Any(), []int{2, 3}).Return([]*domain.User{
		{ID: 2, Username: "bea"}, {ID: 3, Username: "cal"},
	}, nil)

	rooms, err := f.uc.Rooms(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, 11, rooms[0].MatchID)
	assert.Equal(t, 2, rooms[0].UnreadCount)
	assert.True(t, rooms[0].IsTyping)
	assert.Equal(t, "cal", rooms[0].Participant.Username)
	assert.Equal(t, domain.PresenceOnline, rooms[0].Presence.Status)

	assert.Equal(t, 10, rooms[1].MatchID)
	assert.Nil(t, rooms[1].LastMessage)
}

func TestPresignAttachment(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)

	up, err := f.uc.PresignAttachment(context.Background(), 1, 10, &AttachmentRequest{
		FileName: "../My Photo.jpg", ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	wantKey := "chat/10/1719826200000-My_Photo.jpg"
	assert.Equal(t, wantKey, up.Key)
	assert.Equal(t, wantKey, f.storage.path)
	assert.Equal(t, 5*time.Minute, f.storage.expiry)
	assert.Equal(t, "https://cdn.test/"+wantKey, up.FileURL)
	assert.Equal(t, fixedNow.Add(5*time.Minute), up.ExpiresAt)
}

func TestPresignAttachment_RejectsDocuments(t *testing.T) {
	f := newFixture(t)
	f.expectMatch(domain.MatchStatusMatched)

	_, err := f.uc.PresignAttachment(context.Background(), 1, 10, &AttachmentRequest{
		FileName: "cv.pdf", ContentType: "application/pdf",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidContentType)
}
