package authcasebridge

import (
	"encoding/json"
	"time"

	"github.com/jrazmi/taskdeck/core/usecases/authcase"
)

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Session is the body returned by every route that yields a session.
type Session struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

func (s Session) Encode() ([]byte, string, error) {
	data, err := json.Marshal(s)
	return data, "application/json", err
}

func MarshalToBridge(s authcase.Session) Session {
	return Session{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
		User: User{
			UserID: s.User.UserID,
			Email:  s.User.Email,
			Name:   s.User.Name,
		},
	}
}
