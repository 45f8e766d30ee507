package domain

import "time"

type Block struct {
	BlockerID int       `json:"blocker_id" db:"blocker_id"`
	BlockedID int       `json:"blocked_id" db:"blocked_id"`
	BlockedAt time.Time `json:"blocked_at" db:"blocked_at"`
}
