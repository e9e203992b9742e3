package usersessionsrepo

import "time"

// Session statuses. A session is swept once it is revoked or expired; while
// the sweeper holds it the status is StatusSweeping.
const (
	StatusActive   = "active"
	StatusRevoked  = "revoked"
	StatusSweeping = "sweeping"
)

// UserSession is one signed-in device of a user.
type UserSession struct {
	SessionID string     `db:"session_id" json:"session_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Status    string     `db:"status" json:"status"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// GetID lets a session be checked out as a worker task.
func (s UserSession) GetID() string {
	return s.SessionID
}

// Valid reports whether the session may still authenticate requests at now.
func (s UserSession) Valid(now time.Time) bool {
	return s.Status == StatusActive && now.Before(s.ExpiresAt)
}
