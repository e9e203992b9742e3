// Package authcase signs users up and in, and turns bearer tokens back into
// the user and session they were issued for.
package authcase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo"
	"github.com/jrazmi/taskdeck/core/repositories/usersrepo"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/validation"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateAccount   = errors.New("an account with this email already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// UserRepository is the user storage the use case needs.
type UserRepository interface {
	Create(ctx context.Context, input usersrepo.CreateUser) (usersrepo.User, error)
	GetByID(ctx context.Context, userID string) (usersrepo.User, error)
	GetByEmail(ctx context.Context, email string) (usersrepo.User, error)
}

// SessionRepository is the session storage the use case needs.
type SessionRepository interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (usersessionsrepo.UserSession, error)
	Get(ctx context.Context, sessionID string) (usersessionsrepo.UserSession, error)
	Revoke(ctx context.Context, sessionID string) error
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// Session is a signed-in user and the bearer token for the session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      usersrepo.User
}

// Usecase implements sign-up, sign-in, sign-out and token authentication.
type Usecase struct {
	log      *logger.Logger
	users    UserRepository
	sessions SessionRepository
	opts     *options
}

// New constructs the use case. A secret of at least 16 bytes is required.
func New(log *logger.Logger, users UserRepository, sessions SessionRepository, opts ...Option) (*Usecase, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	return &Usecase{
		log:      log,
		users:    users,
		sessions: sessions,
		opts:     o,
	}, nil
}

// NewFromEnv reads Config from the environment and constructs the use case.
func NewFromEnv(prefix string, log *logger.Logger, users UserRepository, sessions SessionRepository, opts ...Option) (*Usecase, error) {
	cfg, err := LoadConfig(prefix)
	if err != nil {
		return nil, err
	}
	return New(log, users, sessions, append(cfg.Options(), opts...)...)
}

// ValidateCredentials checks the shape of an email and the password length.
func ValidateCredentials(email, password string) error {
	if !validation.IsEmail(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// SignUp creates an account and signs it in. A blank name falls back to the
// local part of the email.
func (u *Usecase) SignUp(ctx context.Context, email, password, name string) (Session, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return Session{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = validation.EmailLocalPart(strings.TrimSpace(email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.opts.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, usersrepo.CreateUser{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, usersrepo.ErrEmailTaken) {
			return Session{}, ErrDuplicateAccount
		}
		return Session{}, fmt.Errorf("sign up: %w", err)
	}

	return u.openSession(ctx, user)
}

// SignIn checks the password of an existing account and opens a session.
func (u *Usecase) SignIn(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, usersrepo.ErrUserNotFound) {
			return Session{}, ErrAccountNotFound
		}
		return Session{}, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		u.log.InfoContext(ctx, "sign in rejected", "user_id", user.UserID)
		return Session{}, ErrInvalidCredentials
	}

	return u.openSession(ctx, user)
}

func (u *Usecase) openSession(ctx context.Context, user usersrepo.User) (Session, error) {
	session, err := u.sessions.Create(ctx, user.UserID, u.opts.sessionTTL)
	if err != nil {
		return Session{}, fmt.Errorf("open session: %w", err)
	}

	token, err := u.signToken(user.UserID, session.SessionID, session.ExpiresAt)
	if err != nil {
		return Session{}, err
	}

	u.log.InfoContext(ctx, "session opened", "user_id", user.UserID, "session_id", session.SessionID)
	return Session{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Authenticate resolves a bearer token. Any token that is malformed, expired
// or backed by a revoked session yields ErrUnauthenticated.
func (u *Usecase) Authenticate(ctx context.Context, token string) (Principal, error) {
	c, err := u.parseToken(token)
	if err != nil {
		u.log.DebugContext(ctx, "token rejected", "error", err)
		return Principal{}, ErrUnauthenticated
	}

	session, err := u.sessions.Get(ctx, c.SessionID)
	if err != nil {
		if errors.Is(err, usersessionsrepo.ErrSessionNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("authenticate: %w", err)
	}
	if session.UserID != c.Subject || !session.Valid(u.opts.now()) {
		return Principal{}, ErrUnauthenticated
	}

	return Principal{
		UserID:    session.UserID,
		SessionID: session.SessionID,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Session returns the session view of an authenticated principal.
func (u *Usecase) Session(ctx context.Context, p Principal) (Session, error) {
	user, err := u.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, usersrepo.ErrUserNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("session: %w", err)
	}
	return Session{Token: p.Token, ExpiresAt: p.ExpiresAt, User: user}, nil
}

// SignOut revokes the principal's session. Its token stops working at once.
func (u *Usecase) SignOut(ctx context.Context, p Principal) error {
	if err := u.sessions.Revoke(ctx, p.SessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
