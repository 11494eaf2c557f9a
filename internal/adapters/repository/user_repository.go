package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

const userColumns = `id, username, email, password_hash, is_active, created_at, updated_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	q sqlx.ExtContext
}

// NewUserRepository creates a new user repository
func NewUserRepository(q sqlx.ExtContext) ports.UserRepository {
	return &UserRepositoryImpl{q: q}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	_, err := execQuery(ctx, r.q, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", userWriteError(err))
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.getBy(ctx, "username", username)
}

// getBy loads a single user by a unique column
func (r *UserRepositoryImpl) getBy(ctx context.Context, column string, value interface{}) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	var user entities.User
	err := getOne(ctx, r.q, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, is_active = ?, updated_at = ?
		WHERE id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrUserNotFound, query,
		user.Username, user.Email, user.PasswordHash, user.IsActive, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("update user: %w", userWriteError(err))
	}

	return nil
}

func (r *UserRepositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error {
	query := `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrUserNotFound, query, active, updatedAt, id)
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		return fmt.Errorf("set user active: %w", err)
	}
	return err
}

// Delete removes the user. Categories, tags and tasks go with it.
func (r *UserRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrUserNotFound, query, id)
	if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
		return fmt.Errorf("delete user: %w", err)
	}
	return err
}

func (r *UserRepositoryImpl) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users`

	var count int64
	err := getOne(ctx, r.q, &count, query)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// userWriteError names the unique column a write collided with
func userWriteError(err error) error {
	switch {
	case uniqueViolationOn(err, "email"):
		return entities.ErrEmailTaken
	case uniqueViolationOn(err, "username"):
		return entities.ErrUsernameTaken
	}
	return mapError(err)
}
