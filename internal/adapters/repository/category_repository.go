package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

const categoryColumns = `id, user_id, name, description, color, created_at, updated_at`

// CategoryRepositoryImpl implements the CategoryRepository interface
type CategoryRepositoryImpl struct {
	q sqlx.ExtContext
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(q sqlx.ExtContext) ports.CategoryRepository {
	return &CategoryRepositoryImpl{q: q}
}

func (r *CategoryRepositoryImpl) Create(ctx context.Context, category *entities.Category) error {
	query := `
		INSERT INTO categories (user_id, name, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`

	id, err := insertReturningID(ctx, r.q, query,
		category.UserID, category.Name, category.Description, category.Color,
		category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create category: %w", categoryWriteError(err))
	}

	category.ID = id
	return nil
}

func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ? AND user_id = ?`

	var category entities.Category
	err := getOne(ctx, r.q, &category, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepositoryImpl) GetByName(ctx context.Context, userID uuid.UUID, name string) (*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? AND name = ?`

	var category entities.Category
	err := getOne(ctx, r.q, &category, query, userID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by name: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepositoryImpl) Update(ctx context.Context, category *entities.Category) error {
	query := `
		UPDATE categories
		SET name = ?, description = ?, color = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrCategoryNotFound, query,
		category.Name, category.Description, category.Color, category.UpdatedAt,
		category.ID, category.UserID,
	)
	if err != nil {
		if errors.Is(err, entities.ErrCategoryNotFound) {
			return err
		}
		return fmt.Errorf("update category: %w", categoryWriteError(err))
	}

	return nil
}

// Delete removes the category. Its tasks stay, uncategorised.
func (r *CategoryRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	query := `DELETE FROM categories WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrCategoryNotFound, query, id, userID)
	if err != nil && !errors.Is(err, entities.ErrCategoryNotFound) {
		return fmt.Errorf("delete category: %w", err)
	}
	return err
}

func (r *CategoryRepositoryImpl) List(ctx context.Context, userID uuid.UUID) ([]*entities.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? ORDER BY name, id`

	categories := []*entities.Category{}
	err := selectAll(ctx, r.q, &categories, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}

func categoryWriteError(err error) error {
	if isUniqueViolation(err) {
		return entities.ErrCategoryNameTaken
	}
	return mapError(err)
}
