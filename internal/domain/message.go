package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MessagePageSize caps a chat history read.
const MessagePageSize = 100

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
	ContentEmoji ContentType = "emoji"
	ContentGIF   ContentType = "gif"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo, ContentAudio, ContentEmoji, ContentGIF:
		return true
	}
	return false
}

// IsMedia reports whether the content points at an uploaded blob.
func (t ContentType) IsMedia() bool {
	return t == ContentImage || t == ContentVideo || t == ContentAudio
}

type MessageStatus string

const (
	MessageSending   MessageStatus = "sending"
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
	MessageFailed    MessageStatus = "failed"
)

type MessageMetadata struct {
	Duration  *float64 `json:"duration,omitempty"`
	Thumbnail *string  `json:"thumbnail,omitempty"`
	MimeType  *string  `json:"mime_type,omitempty"`
	FileName  *string  `json:"file_name,omitempty"`
	FileSize  *int64   `json:"file_size,omitempty"`
}

func (m MessageMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MessageMetadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = MessageMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}

type Message struct {
	ID          int             `json:"id" db:"id"`
	MatchID     int             `json:"match_id" db:"match_id"`
	SenderID    int             `json:"sender_id" db:"sender_id"`
	Content     string          `json:"content" db:"content"`
	ContentType ContentType     `json:"content_type" db:"content_type"`
	Metadata    MessageMetadata `json:"metadata" db:"metadata"`
	Status      MessageStatus   `json:"status" db:"status"`
	Read        bool            `json:"read" db:"read"`
	ReadAt      *time.Time      `json:"read_at" db:"read_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
