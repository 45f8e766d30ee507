package domain

import (
	"time"

	"github.com/lib/pq"
)

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusMatched  MatchStatus = "matched"
	MatchStatusRejected MatchStatus = "rejected"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusMatched, MatchStatusRejected:
		return true
	}
	return false
}

type Match struct {
	ID          int            `json:"id" db:"id"`
	User1ID     int            `json:"user1_id" db:"user1_id"`
	User2ID     int            `json:"user2_id" db:"user2_id"`
	Status      MatchStatus    `json:"status" db:"status"`
	CreatedBy   int            `json:"created_by" db:"created_by"`
	Icebreakers pq.StringArray `json:"icebreakers" db:"icebreakers"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// OrderPair returns the two ids with the smaller one first, the form stored in matches.
func OrderPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func (m *Match) HasUser(userID int) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) GetOtherUserID(userID int) (int, bool) {
	if m.User1ID == userID {
		return m.User2ID, true
	}
	if m.User2ID == userID {
		return m.User1ID, true
	}
	return 0, false
}
