package usersrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jrazmi/taskdeck/core/repositories"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/validation"
)

const StatusActive = "active"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Storer is the persistence the user repository needs.
type Storer interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

// Repository provides access to user storage.
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

// Create stores a new active user with a fresh id and a normalized email.
func (r *Repository) Create(ctx context.Context, input CreateUser) (User, error) {
	now := r.now().UTC()
	user := User{
		UserID:       uuid.NewString(),
		Email:        validation.NormalizeEmail(input.Email),
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := r.storer.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	r.log.InfoContext(ctx, "created user", "user_id", created.UserID)
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, userID string) (User, error) {
	user, err := r.storer.GetByID(ctx, userID)
	if err != nil {
		return User{}, mapNotFound(err, "get user")
	}
	return user, nil
}

// GetByEmail looks a user up by email, ignoring case and surrounding space.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	user, err := r.storer.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return User{}, mapNotFound(err, "get user by email")
	}
	return user, nil
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
