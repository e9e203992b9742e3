package userspgxstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jrazmi/taskdeck/core/repositories"
	"github.com/jrazmi/taskdeck/core/repositories/usersrepo"
	"github.com/jrazmi/taskdeck/infrastructure/postgresdb"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

const columns = `user_id, email, name, password_hash, status, created_at, updated_at`

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

func (s *Store) Create(ctx context.Context, user usersrepo.User) (usersrepo.User, error) {
	query := `INSERT INTO users (` + columns + `)
		VALUES (@user_id, @email, @name, @password_hash, @status, @created_at, @updated_at)
		RETURNING ` + columns

	args := pgx.NamedArgs{
		"user_id":       user.UserID,
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"status":        user.Status,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}

	return s.one(ctx, query, args)
}

func (s *Store) GetByID(ctx context.Context, userID string) (usersrepo.User, error) {
	query := `SELECT ` + columns + `
		FROM users
		WHERE user_id = @user_id AND status = @status`

	return s.one(ctx, query, pgx.NamedArgs{"user_id": userID, "status": postgresdb.StatusActive})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (usersrepo.User, error) {
	query := `SELECT ` + columns + `
		FROM users
		WHERE lower(email) = lower(@email) AND status = @status`

	return s.one(ctx, query, pgx.NamedArgs{"email": email, "status": postgresdb.StatusActive})
}

func (s *Store) one(ctx context.Context, query string, args pgx.NamedArgs) (usersrepo.User, error) {
	rows, err := s.pool.Query(ctx, query, args)
	if err != nil {
		return usersrepo.User{}, storeError(err)
	}
	defer rows.Close()

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[usersrepo.User])
	if err != nil {
		return usersrepo.User{}, storeError(err)
	}
	return user, nil
}

func storeError(err error) error {
	err = postgresdb.HandlePgError(err)
	switch {
	case errors.Is(err, postgresdb.ErrDBNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, postgresdb.ErrDBDuplicatedEntry):
		return repositories.ErrAlreadyExists
	}
	return err
}
