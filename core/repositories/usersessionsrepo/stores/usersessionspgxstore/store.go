package usersessionspgxstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jrazmi/taskdeck/core/repositories"
	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo"
	"github.com/jrazmi/taskdeck/infrastructure/postgresdb"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

const columns = `session_id, user_id, status, expires_at, created_at, revoked_at`

type Store struct {
	log  *logger.Logger
	pool *postgresdb.Pool
}

func NewStore(log *logger.Logger, pool *postgresdb.Pool) *Store {
	return &Store{
		log:  log,
		pool: pool,
	}
}

func (s *Store) Create(ctx context.Context, session usersessionsrepo.UserSession) (usersessionsrepo.UserSession, error) {
	query := `INSERT INTO user_sessions (session_id, user_id, status, expires_at, created_at)
		VALUES (@session_id, @user_id, @status, @expires_at, @created_at)
		RETURNING ` + columns

	return s.one(ctx, query, pgx.NamedArgs{
		"session_id": session.SessionID,
		"user_id":    session.UserID,
		"status":     session.Status,
		"expires_at": session.ExpiresAt,
		"created_at": session.CreatedAt,
	})
}

func (s *Store) Get(ctx context.Context, sessionID string) (usersessionsrepo.UserSession, error) {
	query := `SELECT ` + columns + ` FROM user_sessions WHERE session_id = @session_id`
	return s.one(ctx, query, pgx.NamedArgs{"session_id": sessionID})
}

func (s *Store) Revoke(ctx context.Context, sessionID string, at time.Time) error {
	query := `UPDATE user_sessions
		SET status = @revoked, revoked_at = @revoked_at
		WHERE session_id = @session_id AND status = @active`

	return s.exec(ctx, query, pgx.NamedArgs{
		"session_id": sessionID,
		"revoked":    usersessionsrepo.StatusRevoked,
		"active":     usersessionsrepo.StatusActive,
		"revoked_at": at,
	})
}

// CheckoutSweepable claims the oldest expired or revoked session. SKIP LOCKED
// keeps concurrent sweepers from waiting on each other's rows.
func (s *Store) CheckoutSweepable(ctx context.Context, now time.Time) (usersessionsrepo.UserSession, error) {
	query := `UPDATE user_sessions
		SET status = @sweeping
		WHERE session_id = (
			SELECT session_id FROM user_sessions
			WHERE status = @revoked OR (status = @active AND expires_at <= @now)
			ORDER BY expires_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + columns

	return s.one(ctx, query, pgx.NamedArgs{
		"sweeping": usersessionsrepo.StatusSweeping,
		"revoked":  usersessionsrepo.StatusRevoked,
		"active":   usersessionsrepo.StatusActive,
		"now":      now,
	})
}

func (s *Store) Release(ctx context.Context, sessionID string) error {
	query := `UPDATE user_sessions SET status = @revoked
		WHERE session_id = @session_id AND status = @sweeping`

	return s.exec(ctx, query, pgx.NamedArgs{
		"session_id": sessionID,
		"revoked":    usersessionsrepo.StatusRevoked,
		"sweeping":   usersessionsrepo.StatusSweeping,
	})
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.exec(ctx, `DELETE FROM user_sessions WHERE session_id = @session_id`, pgx.NamedArgs{"session_id": sessionID})
}

func (s *Store) one(ctx context.Context, query string, args pgx.NamedArgs) (usersessionsrepo.UserSession, error) {
	rows, err := s.pool.Query(ctx, query, args)
	if err != nil {
		return usersessionsrepo.UserSession{}, storeError(err)
	}
	defer rows.Close()

	session, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[usersessionsrepo.UserSession])
	if err != nil {
		return usersessionsrepo.UserSession{}, storeError(err)
	}
	return session, nil
}

func (s *Store) exec(ctx context.Context, query string, args pgx.NamedArgs) error {
	tag, err := s.pool.Exec(ctx, query, args)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func storeError(err error) error {
	err = postgresdb.HandlePgError(err)
	if errors.Is(err, postgresdb.ErrDBNotFound) {
		return repositories.ErrNotFound
	}
	return err
}
