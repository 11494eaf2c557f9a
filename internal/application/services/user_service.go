package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// UserService handles account operations for an existing user
type UserService struct {
	store  ports.Store
	logger *logger.Logger
	opts   options
}

// NewUserService creates a new user service
func NewUserService(store ports.Store, logger *logger.Logger, opts ...Option) *UserService {
	return &UserService{
		store:  store,
		logger: logger.Component("users"),
		opts:   newOptions(opts),
	}
}

// GetProfile returns the user
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// GetActiveUser resolves the user behind a verified token. A user that no
// longer exists invalidates the token; a deactivated one is forbidden.
func (s *UserService) GetActiveUser(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.ErrInvalidToken
		}
		return nil, fmt.Errorf("get active user: %w", err)
	}

	if !user.IsActive {
		return nil, entities.ErrInactiveUser
	}

	return user, nil
}

// UpdateProfile changes the username, email or password of the user
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req ports.UpdateUserRequest) (*entities.User, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	var passwordHash string
	if req.Password != nil {
		hash, err := s.opts.hashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = hash
	}

	var user *entities.User
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if req.Username != nil && *req.Username != user.Username {
			if err := ensureUsernameFree(ctx, tx, *req.Username, user.ID); err != nil {
				return err
			}
			user.Username = *req.Username
		}
		if req.Email != nil && *req.Email != user.Email {
			if err := ensureEmailFree(ctx, tx, *req.Email, user.ID); err != nil {
				return err
			}
			user.Email = *req.Email
		}
		if passwordHash != "" {
			user.PasswordHash = passwordHash
		}

		user.UpdatedAt = s.opts.timestamp()
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.LogUserAction(userID.String(), "profile_updated", map[string]interface{}{
		"password_changed": passwordHash != "",
	})

	return user, nil
}

// Deactivate disables the account. Existing tokens stop working on the
// next request.
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		return tx.Users().SetActive(ctx, userID, false, s.opts.timestamp())
	})
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	s.logger.Infow("User deactivated", "user_id", userID)
	return nil
}

// Delete removes the account together with its categories, tags and tasks
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.LogUserAction(userID.String(), "account_deleted", nil)
	return nil
}
