package authcase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo"
	"github.com/jrazmi/taskdeck/infrastructure/workers"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

// SweepRepository is the session storage the sweeper needs.
type SweepRepository interface {
	CheckoutSweepable(ctx context.Context) (usersessionsrepo.UserSession, error)
	Release(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionSweeper deletes revoked and expired sessions. It is a
// workers.Processor.
type SessionSweeper struct {
	log      *logger.Logger
	sessions SweepRepository
}

func NewSessionSweeper(log *logger.Logger, sessions SweepRepository) *SessionSweeper {
	return &SessionSweeper{log: log, sessions: sessions}
}

var _ workers.Processor[usersessionsrepo.UserSession] = (*SessionSweeper)(nil)

func (s *SessionSweeper) Checkout(ctx context.Context, workerID string) (usersessionsrepo.UserSession, error) {
	session, err := s.sessions.CheckoutSweepable(ctx)
	if err != nil {
		if errors.Is(err, usersessionsrepo.ErrSessionNotFound) {
			return usersessionsrepo.UserSession{}, workers.ErrNoWorkAvailable
		}
		return usersessionsrepo.UserSession{}, err
	}
	return session, nil
}

func (s *SessionSweeper) Process(ctx context.Context, session usersessionsrepo.UserSession) (usersessionsrepo.UserSession, error) {
	if err := s.sessions.Delete(ctx, session.SessionID); err != nil {
		return session, fmt.Errorf("delete session: %w", err)
	}
	return session, nil
}

func (s *SessionSweeper) Complete(ctx context.Context, session usersessionsrepo.UserSession, took time.Duration) error {
	s.log.DebugContext(ctx, "session swept", "session_id", session.SessionID, "user_id", session.UserID, "took", took)
	return nil
}

// Fail hands the session back so a later round retries it.
func (s *SessionSweeper) Fail(ctx context.Context, session usersessionsrepo.UserSession, err error) error {
	s.log.WarnContext(ctx, "session sweep failed", "session_id", session.SessionID, "error", err)
	return s.sessions.Release(ctx, session.SessionID)
}
