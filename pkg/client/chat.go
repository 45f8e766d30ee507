package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/usecase/chat"
)

type AttachmentUpload = chat.AttachmentUpload

// EventHandler receives every frame of a match subscription after the store has applied it.
type EventHandler func(ev *Event)

// ChatStore caches rooms and per-match history. Sends and read receipts are applied
// locally before the server confirms them.
type ChatStore struct {
	client *Client
	auth   *AuthStore

	mu       sync.RWMutex
	rooms    []*ChatRoom
	messages map[int][]*Message
	localSeq int
}

func NewChatStore(c *Client, auth *AuthStore) *ChatStore {
	return &ChatStore{
		client:   c,
		auth:     auth,
		messages: make(map[int][]*Message),
	}
}

func (s *ChatStore) me() int {
	if u := s.auth.User(); u != nil {
		return u.ID
	}
	return 0
}

// Rooms returns the cached room list
func (s *ChatStore) Rooms() []*ChatRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ChatRoom, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Messages returns cached history of matchID, oldest first
func (s *ChatStore) Messages(matchID int) []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Message, len(s.messages[matchID]))
	copy(out, s.messages[matchID])
	return out
}

func (s *ChatStore) LoadRooms(ctx context.Context) ([]*ChatRoom, error) {
	var rooms []*ChatRoom
	if err := s.client.doJSON(ctx, http.MethodGet, "/chats", nil, nil, &rooms); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.rooms = rooms
	s.mu.Unlock()
	return s.Rooms(), nil
}

func (s *ChatStore) LoadMessages(ctx context.Context, matchID int) ([]*Message, error) {
	var messages []*Message
	if err := s.client.doJSON(ctx, http.MethodGet, fmt.Sprintf("/chats/%d/messages", matchID), nil, nil, &messages); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.messages[matchID] = messages
	s.mu.Unlock()
	return s.Messages(matchID), nil
}

// Send shows the message as sending right away, then swaps in the stored message.
// On error the local copy stays with status failed.
func (s *ChatStore) Send(ctx context.Context, matchID int, content string, contentType ContentType, metadata Metadata) (*Message, error) {
	if contentType == "" {
		contentType = domain.ContentText
	}

	s.mu.Lock()
	s.localSeq--
	pending := &Message{
		ID:          s.localSeq,
		MatchID:     matchID,
		SenderID:    s.me(),
		Content:     content,
		ContentType: contentType,
		Metadata:    metadata,
		Status:      domain.MessageSending,
		CreatedAt:   time.Now().UTC(),
	}
	s.messages[matchID] = append(s.messages[matchID], pending)
	s.touchRoom(matchID, pending)
	s.mu.Unlock()

	var stored Message
	req := chat.SendMessageRequest{Content: content, ContentType: contentType, Metadata: metadata}
	err := s.client.doJSON(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/messages", matchID), nil, req, &stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		failed := *pending
		failed.Status = domain.MessageFailed
		s.replace(matchID, pending.ID, &failed)
		s.touchRoom(matchID, &failed)
		return &failed, err
	}

	if s.indexOf(matchID, stored.ID) >= 0 {
		// the realtime event won the race
		s.drop(matchID, pending.ID)
	} else {
		s.replace(matchID, pending.ID, &stored)
	}
	s.touchRoom(matchID, &stored)
	return &stored, nil
}

// MarkAsRead flags messageID read locally and tells the server. Own messages are left alone.
// The local change is rolled back if the server refuses it.
func (s *ChatStore) MarkAsRead(ctx context.Context, matchID, messageID int) error {
	s.mu.Lock()
	i := s.indexOf(matchID, messageID)
	var prev *Message
	if i >= 0 {
		msg := s.messages[matchID][i]
		if msg.SenderID == s.me() || msg.Read {
			s.mu.Unlock()
			return nil
		}
		prev = msg
		s.messages[matchID][i] = markedRead(msg, time.Now().UTC())
		s.adjustUnread(matchID, -1)
	}
	s.mu.Unlock()

	err := s.client.doJSON(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/messages/%d/read", matchID, messageID), nil, nil, nil)
	if err != nil && prev != nil {
		s.mu.Lock()
		if j := s.indexOf(matchID, messageID); j >= 0 {
			s.messages[matchID][j] = prev
			s.adjustUnread(matchID, 1)
		}
		s.mu.Unlock()
	}
	return err
}

// MarkAllAsRead acknowledges every cached message from the other participant
func (s *ChatStore) MarkAllAsRead(ctx context.Context, matchID int) error {
	me := s.me()
	now := time.Now().UTC()

	s.mu.Lock()
	var ids []int
	for i, msg := range s.messages[matchID] {
		if msg.SenderID != me && !msg.Read && msg.ID > 0 {
			ids = append(ids, msg.ID)
			s.messages[matchID][i] = markedRead(msg, now)
		}
	}
	if len(ids) > 0 {
		s.setUnread(matchID, 0)
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	req := chat.MarkManyRequest{MessageIDs: ids}
	return s.client.doJSON(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/read", matchID), nil, req, nil)
}

func (s *ChatStore) SetTyping(ctx context.Context, matchID int, typing bool) error {
	req := chat.TypingRequest{Typing: typing}
	return s.client.doJSON(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/typing", matchID), nil, req, nil)
}

// PresignAttachment returns a URL to PUT the attachment to; send FileURL as the message content afterwards
func (s *ChatStore) PresignAttachment(ctx context.Context, matchID int, fileName, contentType string) (*AttachmentUpload, error) {
	var upload AttachmentUpload
	req := chat.AttachmentRequest{FileName: fileName, ContentType: contentType}
	if err := s.client.doJSON(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/attachments", matchID), nil, req, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// Subscribe streams match events into the store and then to fn. The returned func closes the
// socket and waits for the reader to stop; calling it more than once is safe.
func (s *ChatStore) Subscribe(ctx context.Context, matchID int, fn EventHandler) (func(), error) {
	u := *s.client.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += fmt.Sprintf("/ws/matches/%d", matchID)

	header := http.Header{}
	if token := s.client.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := s.client.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			apiErr := &APIError{Status: resp.StatusCode}
			if json.NewDecoder(resp.Body).Decode(apiErr) == nil && apiErr.Message != "" {
				return nil, apiErr
			}
		}
		return nil, fmt.Errorf("failed to subscribe to match %d: %w", matchID, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				continue
			}
			s.apply(&ev)
			if fn != nil {
				fn(&ev)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
			<-done
		})
	}, nil
}

func (s *ChatStore) apply(ev *Event) {
	switch ev.Type {
	case domain.EventMessageCreated:
		var msg Message
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			return
		}
		s.mu.Lock()
		if s.indexOf(ev.MatchID, msg.ID) < 0 {
			s.messages[ev.MatchID] = append(s.messages[ev.MatchID], &msg)
			if msg.SenderID != s.me() {
				s.adjustUnread(ev.MatchID, 1)
			}
		}
		s.touchRoom(ev.MatchID, &msg)
		s.mu.Unlock()
	case domain.EventMessageRead:
		var payload domain.ReadPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		s.mu.Lock()
		for _, id := range payload.MessageIDs {
			if i := s.indexOf(ev.MatchID, id); i >= 0 {
				s.messages[ev.MatchID][i] = markedRead(s.messages[ev.MatchID][i], payload.ReadAt)
			}
		}
		s.mu.Unlock()
	case domain.EventTyping:
		var payload domain.TypingPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		if ev.UserID == s.me() {
			return
		}
		s.mu.Lock()
		if room := s.room(ev.MatchID); room != nil {
			updated := *room
			updated.IsTyping = payload.Typing
			s.putRoom(&updated)
		}
		s.mu.Unlock()
	case domain.EventMatchDeleted:
		s.mu.Lock()
		delete(s.messages, ev.MatchID)
		kept := s.rooms[:0]
		for _, r := range s.rooms {
			if r.MatchID != ev.MatchID {
				kept = append(kept, r)
			}
		}
		s.rooms = kept
		s.mu.Unlock()
	}
}

func markedRead(msg *Message, at time.Time) *Message {
	read := *msg
	read.Read = true
	read.ReadAt = &at
	read.Status = domain.MessageRead
	return &read
}

// helpers below expect s.mu held

func (s *ChatStore) indexOf(matchID, messageID int) int {
	for i, m := range s.messages[matchID] {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

func (s *ChatStore) replace(matchID, messageID int, msg *Message) {
	if i := s.indexOf(matchID, messageID); i >= 0 {
		s.messages[matchID][i] = msg
	}
}

func (s *ChatStore) drop(matchID, messageID int) {
	if i := s.indexOf(matchID, messageID); i >= 0 {
		list := s.messages[matchID]
		s.messages[matchID] = append(list[:i], list[i+1:]...)
	}
}

func (s *ChatStore) room(matchID int) *ChatRoom {
	for _, r := range s.rooms {
		if r.MatchID == matchID {
			return r
		}
	}
	return nil
}

// putRoom swaps in a room copy and keeps the list newest activity first
func (s *ChatStore) putRoom(room *ChatRoom) {
	for i, r := range s.rooms {
		if r.MatchID == room.MatchID {
			s.rooms[i] = room
		}
	}
	sort.SliceStable(s.rooms, func(i, j int) bool {
		return s.rooms[i].LastActivity.After(s.rooms[j].LastActivity)
	})
}

func (s *ChatStore) touchRoom(matchID int, msg *Message) {
	room := s.room(matchID)
	if room == nil {
		return
	}
	updated := *room
	updated.LastMessage = msg
	if msg.CreatedAt.After(updated.LastActivity) {
		updated.LastActivity = msg.CreatedAt
	}
	s.putRoom(&updated)
}

func (s *ChatStore) adjustUnread(matchID, delta int) {
	if room := s.room(matchID); room != nil {
		s.setUnread(matchID, room.UnreadCount+delta)
	}
}

func (s *ChatStore) setUnread(matchID, n int) {
	room := s.room(matchID)
	if room == nil {
		return
	}
	if n < 0 {
		n = 0
	}
	updated := *room
	updated.UnreadCount = n
	s.putRoom(&updated)
}
