package domain

import (
	"encoding/json"
	"time"
)

// TypingTTL is how long a typing flag lives without a refresh.
const TypingTTL = 5 * time.Second

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

type Presence struct {
	UserID   int            `json:"user_id"`
	Status   PresenceStatus `json:"status"`
	LastSeen *time.Time     `json:"last_seen"`
}

// ChatRoom summarizes one match for the conversation list.
type ChatRoom struct {
	MatchID      int            `json:"match_id"`
	Status       MatchStatus    `json:"status"`
	Participant  *PublicProfile `json:"participant"`
	LastMessage  *Message       `json:"last_message"`
	UnreadCount  int            `json:"unread_count"`
	IsTyping     bool           `json:"is_typing"`
	Presence     *Presence      `json:"presence"`
	LastActivity time.Time      `json:"last_activity"`
}

type EventType string

const (
	EventMessageCreated EventType = "message.created"
	EventMessageRead    EventType = "message.read"
	EventTyping         EventType = "typing"
	EventMatchUpdated   EventType = "match.updated"
	EventMatchDeleted   EventType = "match.deleted"
)

// Event is pushed to every subscriber of a match channel.
type Event struct {
	Type    EventType       `json:"type"`
	MatchID int             `json:"match_id"`
	UserID  int             `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

type TypingPayload struct {
	Typing bool `json:"typing"`
}

type ReadPayload struct {
	MessageIDs []int     `json:"message_ids"`
	ReadAt     time.Time `json:"read_at"`
}

// NewEvent marshals payload into an Event.
func NewEvent(t EventType, matchID, userID int, payload interface{}) (*Event, error) {
	ev := &Event{Type: t, MatchID: matchID, UserID: userID, SentAt: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		ev.Payload = raw
	}
	return ev, nil
}
