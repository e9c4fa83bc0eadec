package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the outcome of a login attempt
type AttemptStatus string

const (
	AttemptStatusSuccess AttemptStatus = "success"
	AttemptStatusFailed  AttemptStatus = "failed"
)

// NoUsernameEntered is stored when a failed attempt carries no username
const NoUsernameEntered = "(no username entered)"

// Valid reports whether s is one of the known statuses
func (s AttemptStatus) Valid() bool {
	return s == AttemptStatusSuccess || s == AttemptStatusFailed
}

// LoginAttempt represents a single recorded login attempt
type LoginAttempt struct {
	ID        int64         `db:"id" json:"id"`
	EventID   uuid.UUID     `db:"event_id" json:"event_id"`
	Username  string        `db:"username" json:"username"`
	Status    AttemptStatus `db:"status" json:"status"`
	IPAddress string        `db:"ip_address" json:"ip_address"`
	UserAgent string        `db:"user_agent" json:"user_agent"`
	Time      time.Time     `db:"time" json:"time"`
}

// AttemptEvent is an attempt as reported by the authentication collaborator,
// before sanitization and timestamping
type AttemptEvent struct {
	EventID   uuid.UUID // uuid.Nil lets the recorder generate one
	Username  string
	Status    AttemptStatus
	IPAddress string
	UserAgent string
}
