package usersessionsrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrazmi/taskdeck/core/repositories"
	"github.com/jrazmi/taskdeck/sdk/cryptids"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

var ErrSessionNotFound = errors.New("session not found")

// Storer is the persistence the session repository needs.
type Storer interface {
	Create(ctx context.Context, session UserSession) (UserSession, error)
	Get(ctx context.Context, sessionID string) (UserSession, error)
	Revoke(ctx context.Context, sessionID string, at time.Time) error
	// CheckoutSweepable marks one revoked or expired session as sweeping and
	// returns it. Concurrent callers never receive the same session.
	CheckoutSweepable(ctx context.Context, now time.Time) (UserSession, error)
	// Release puts a session that failed to sweep back as revoked.
	Release(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

// Repository provides access to session storage.
type Repository struct {
	log    *logger.Logger
	storer Storer
	now    func() time.Time
}

func NewRepository(log *logger.Logger, storer Storer) *Repository {
	return &Repository{
		log:    log,
		storer: storer,
		now:    time.Now,
	}
}

// Create opens a session for userID that expires after ttl.
func (r *Repository) Create(ctx context.Context, userID string, ttl time.Duration) (UserSession, error) {
	sessionID, err := cryptids.GenerateSessionID()
	if err != nil {
		return UserSession{}, fmt.Errorf("generate session id: %w", err)
	}

	now := r.now().UTC()
	session, err := r.storer.Create(ctx, UserSession{
		SessionID: sessionID,
		UserID:    userID,
		Status:    StatusActive,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return UserSession{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (r *Repository) Get(ctx context.Context, sessionID string) (UserSession, error) {
	session, err := r.storer.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return UserSession{}, ErrSessionNotFound
		}
		return UserSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// Revoke ends a session. Revoking a missing session is not an error.
func (r *Repository) Revoke(ctx context.Context, sessionID string) error {
	if err := r.storer.Revoke(ctx, sessionID, r.now().UTC()); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	r.log.InfoContext(ctx, "revoked session", "session_id", sessionID)
	return nil
}

// CheckoutSweepable claims one session that can be deleted. It returns
// ErrSessionNotFound when there is none.
func (r *Repository) CheckoutSweepable(ctx context.Context) (UserSession, error) {
	session, err := r.storer.CheckoutSweepable(ctx, r.now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return UserSession{}, ErrSessionNotFound
		}
		return UserSession{}, fmt.Errorf("checkout session: %w", err)
	}
	return session, nil
}

func (r *Repository) Release(ctx context.Context, sessionID string) error {
	if err := r.storer.Release(ctx, sessionID); err != nil {
		return fmt.Errorf("release session: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.storer.Delete(ctx, sessionID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
