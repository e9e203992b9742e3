package taskclient

import (
	"context"
	"net/http"
	"time"
)

// User is the public view of an account.
type User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Session is an authenticated session. Token is sent as a bearer token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignIn exchanges credentials for a session. Failures are *AuthError.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/sign-in", "", signInRequest{Email: email, Password: password}, &s); err != nil {
		return Session{}, newAuthError(err)
	}
	return s, nil
}

// SignUp creates an account and signs it in. Failures are *AuthError.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/sign-up", "", signUpRequest{Email: email, Password: password, Name: name}, &s); err != nil {
		return Session{}, newAuthError(err)
	}
	return s, nil
}

// SignOut revokes the session behind token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/sign-out", token, nil, nil)
}

// Session resolves token to its session.
func (c *Client) Session(ctx context.Context, token string) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/auth/session", token, nil, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}
