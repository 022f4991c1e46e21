// Package state keeps per-user conversation sessions for the bot runtime.
// Absence of a session means the user is idle.
package state

import "time"

// State names a conversation step.
type State string

// StateIdle is reported for users without a stored session.
const StateIdle State = "idle"

// Session is the stored conversation state of one user.
type Session struct {
	State             State
	LastInteractionAt time.Time
}

// Store holds at most one session per user id.
type Store interface {
	Get(userID int64) (Session, bool)
	Put(userID int64, s Session)
	Delete(userID int64)
	Len() int
}
