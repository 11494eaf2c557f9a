package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// CategoryService handles category operations scoped to the calling user
type CategoryService struct {
	store  ports.Store
	logger *logger.Logger
	opts   options
}

// NewCategoryService creates a new category service
func NewCategoryService(store ports.Store, logger *logger.Logger, opts ...Option) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: logger.Component("categories"),
		opts:   newOptions(opts),
	}
}

// CreateCategory creates a category. Names are unique per user.
func (s *CategoryService) CreateCategory(ctx context.Context, userID uuid.UUID, req ports.CreateCategoryRequest) (*entities.Category, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.opts.timestamp()
	category := &entities.Category{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if category.Color == "" {
		category.Color = entities.DefaultCategoryColor
	}

	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := ensureCategoryNameFree(ctx, tx, userID, category.Name, 0); err != nil {
			return err
		}
		return tx.Categories().Create(ctx, category)
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Infow("Category created", "user_id", userID, "category_id", category.ID)

	return category, nil
}

// GetCategory returns one of the user's categories
func (s *CategoryService) GetCategory(ctx context.Context, userID uuid.UUID, id int64) (*entities.Category, error) {
	category, err := s.store.Categories().GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// UpdateCategory applies the supplied fields
func (s *CategoryService) UpdateCategory(ctx context.Context, userID uuid.UUID, id int64, req ports.UpdateCategoryRequest) (*entities.Category, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	var category *entities.Category
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		var err error
		category, err = tx.Categories().GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name != category.Name {
				if err := ensureCategoryNameFree(ctx, tx, userID, name, category.ID); err != nil {
					return err
				}
				category.Name = name
			}
		}
		if req.ClearDescription {
			category.Description = nil
		} else if req.Description != nil {
			category.Description = req.Description
		}
		if req.Color != nil {
			category.Color = *req.Color
		}

		category.UpdatedAt = s.opts.timestamp()
		return tx.Categories().Update(ctx, category)
	})
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

// DeleteCategory removes a category. Its tasks are kept without a category.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID uuid.UUID, id int64) error {
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		return tx.Categories().Delete(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.Infow("Category deleted", "user_id", userID, "category_id", id)
	return nil
}

// ListCategories returns all of the user's categories ordered by name
func (s *CategoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*entities.Category, error) {
	categories, err := s.store.Categories().List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func ensureCategoryNameFree(ctx context.Context, store ports.Store, userID uuid.UUID, name string, self int64) error {
	existing, err := store.Categories().GetByName(ctx, userID, name)
	switch {
	case errors.Is(err, entities.ErrCategoryNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return entities.ErrCategoryNameTaken
	}
	return nil
}
