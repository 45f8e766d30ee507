package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/spark-backend/internal/domain"
)

const me = 1

func signedInChat(t *testing.T, mux *http.ServeMux) *ChatStore {
	t.Helper()
	mux.HandleFunc("POST /api/v1/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "tok", "user": map[string]interface{}{"id": me, "username": "me"},
		})
	})
	mux.HandleFunc("GET /api/v1/chats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"match_id": 3, "status": "matched", "unread_count": 1, "last_activity": "2024-07-01T09:00:00Z"},
			{"match_id": 4, "status": "matched", "last_activity": "2024-07-01T08:00:00Z"},
		})
	})
	mux.HandleFunc("GET /api/v1/chats/3/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": 10, "match_id": 3, "sender_id": 2, "content": "hi", "status": "delivered"},
			{"id": 11, "match_id": 3, "sender_id": me, "content": "hey", "status": "sent"},
		})
	})

	c := newTestClient(t, mux)
	auth := NewAuthStore(c)
	_, err := auth.SignIn(context.Background(), "me@example.com", "secret1")
	require.NoError(t, err)

	store := NewChatStore(c, auth)
	_, err = store.LoadRooms(context.Background())
	require.NoError(t, err)
	_, err = store.LoadMessages(context.Background(), 3)
	require.NoError(t, err)
	return store
}

func TestChatStore_SendOptimisticThenStored(t *testing.T) {
	mux := http.NewServeMux()
	release := make(chan struct{})
	mux.HandleFunc("POST /api/v1/chats/3/messages", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id": 12, "match_id": 3, "sender_id": me, "content": "ok", "content_type": "text",
			"status": "sent", "created_at": time.Now().UTC(),
		})
	})
	store := signedInChat(t, mux)

	done := make(chan *Message, 1)
	go func() {
		msg, err := store.Send(context.Background(), 3, "ok", "", Metadata{})
		assert.NoError(t, err)
		done <- msg
	}()

	require.Eventually(t, func() bool {
		msgs := store.Messages(3)
		return len(msgs) == 3 && msgs[2].Status == domain.MessageSending
	}, time.Second, 5*time.Millisecond)
	assert.Less(t, store.Messages(3)[2].ID, 0)

	close(release)
	stored := <-done

	msgs := store.Messages(3)
	require.Len(t, msgs, 3)
	assert.Equal(t, 12, msgs[2].ID)
	assert.Equal(t, domain.MessageSent, msgs[2].Status)
	assert.Equal(t, stored, msgs[2])

	rooms := store.Rooms()
	assert.Equal(t, 3, rooms[0].MatchID)
	assert.Equal(t, 12, rooms[0].LastMessage.ID)
}

func TestChatStore_SendFailureMarksFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chats/4/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusPreconditionFailed, map[string]string{"error": "This chat is closed", "code": "failed-precondition"})
	})
	store := signedInChat(t, mux)

	msg, err := store.Send(context.Background(), 4, "hello", domain.ContentText, Metadata{})
	require.Error(t, err)
	assert.True(t, IsCode(err, domain.CodeFailedPrecondition))
	assert.Equal(t, domain.MessageFailed, msg.Status)

	msgs := store.Messages(4)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MessageFailed, msgs[0].Status)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestChatStore_MarkAsRead(t *testing.T) {
	mux := http.NewServeMux()
	calls := 0
	mux.HandleFunc("POST /api/v1/chats/3/messages/10/read", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	store := signedInChat(t, mux)
	ctx := context.Background()

	require.NoError(t, store.MarkAsRead(ctx, 3, 10))
	msgs := store.Messages(3)
	assert.True(t, msgs[0].Read)
	assert.Equal(t, domain.MessageRead, msgs[0].Status)
	assert.NotNil(t, msgs[0].ReadAt)
	assert.Equal(t, 0, store.Rooms()[0].UnreadCount)

	// own and already read messages do not hit the server
	require.NoError(t, store.MarkAsRead(ctx, 3, 11))
	require.NoError(t, store.MarkAsRead(ctx, 3, 10))
	assert.Equal(t, 1, calls)
	assert.False(t, store.Messages(3)[1].Read)
}

func TestChatStore_MarkAsReadRollsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chats/3/messages/10/read", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "You do not have access to this chat", "code": "permission-denied"})
	})
	store := signedInChat(t, mux)

	require.Error(t, store.MarkAsRead(context.Background(), 3, 10))
	msg := store.Messages(3)[0]
	assert.False(t, msg.Read)
	assert.Equal(t, domain.MessageDelivered, msg.Status)
	assert.Equal(t, 1, store.Rooms()[0].UnreadCount)
}

func TestChatStore_MarkAllAsRead(t *testing.T) {
	mux := http.NewServeMux()
	var got struct {
		MessageIDs []int `json:"message_ids"`
	}
	mux.HandleFunc("POST /api/v1/chats/3/read", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	store := signedInChat(t, mux)

	require.NoError(t, store.MarkAllAsRead(context.Background(), 3))
	assert.Equal(t, []int{10}, got.MessageIDs)
	assert.True(t, store.Messages(3)[0].Read)
}

func TestChatStore_Subscribe(t *testing.T) {
	mux := http.NewServeMux()
	closed := make(chan struct{})
	upgrader := websocket.Upgrader{}
	mux.HandleFunc("GET /ws/matches/3", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		created, _ := domain.NewEvent(domain.EventMessageCreated, 3, 2, &domain.Message{
			ID: 20, MatchID: 3, SenderID: 2, Content: "new", Status: domain.MessageSent,
			CreatedAt: time.Date(2024, 7, 1, 9, 45, 0, 0, time.UTC),
		})
		read, _ := domain.NewEvent(domain.EventMessageRead, 3, 2, &domain.ReadPayload{
			MessageIDs: []int{11}, ReadAt: time.Date(2024, 7, 1, 9, 46, 0, 0, time.UTC),
		})
		typing, _ := domain.NewEvent(domain.EventTyping, 3, 2, &domain.TypingPayload{Typing: true})
		for _, ev := range []*domain.Event{created, read, typing} {
			require.NoError(t, conn.WriteJSON(ev))
		}

		// block until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	})
	store := signedInChat(t, mux)

	events := make(chan *Event, 8)
	unsubscribe, err := store.Subscribe(context.Background(), 3, func(ev *Event) { events <- ev })
	require.NoError(t, err)

	var types []domain.EventType
	for len(types) < 3 {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	assert.Equal(t, []domain.EventType{domain.EventMessageCreated, domain.EventMessageRead, domain.EventTyping}, types)

	msgs := store.Messages(3)
	require.Len(t, msgs, 3)
	assert.Equal(t, 20, msgs[2].ID)
	assert.True(t, msgs[1].Read)

	room := store.Rooms()[0]
	assert.Equal(t, 3, room.MatchID)
	assert.Equal(t, 2, room.UnreadCount)
	assert.True(t, room.IsTyping)
	assert.Equal(t, 20, room.LastMessage.ID)

	unsubscribe()
	unsubscribe()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not see the socket close")
	}
}

func TestChatStore_SubscribeRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/matches/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "You do not have access to this chat", "code": "permission-denied"})
	})
	store := signedInChat(t, mux)

	_, err := store.Subscribe(context.Background(), 9, nil)
	require.Error(t, err)
	assert.True(t, IsCode(err, domain.CodePermissionDenied))
}
