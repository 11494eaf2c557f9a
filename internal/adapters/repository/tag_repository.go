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

const tagColumns = `id, user_id, name, color, created_at`

// TagRepositoryImpl implements the TagRepository interface
type TagRepositoryImpl struct {
	q sqlx.ExtContext
}

// NewTagRepository creates a new tag repository
func NewTagRepository(q sqlx.ExtContext) ports.TagRepository {
	return &TagRepositoryImpl{q: q}
}

func (r *TagRepositoryImpl) Create(ctx context.Context, tag *entities.Tag) error {
	query := `
		INSERT INTO tags (user_id, name, color, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`

	id, err := insertReturningID(ctx, r.q, query, tag.UserID, tag.Name, tag.Color, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tag: %w", tagWriteError(err))
	}

	tag.ID = id
	return nil
}

func (r *TagRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE id = ? AND user_id = ?`

	var tag entities.Tag
	err := getOne(ctx, r.q, &tag, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag by id: %w", err)
	}

	return &tag, nil
}

func (r *TagRepositoryImpl) GetByName(ctx context.Context, userID uuid.UUID, name string) (*entities.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE user_id = ? AND name = ?`

	var tag entities.Tag
	err := getOne(ctx, r.q, &tag, query, userID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag by name: %w", err)
	}

	return &tag, nil
}

func (r *TagRepositoryImpl) Update(ctx context.Context, tag *entities.Tag) error {
	query := `UPDATE tags SET name = ?, color = ? WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrTagNotFound, query, tag.Name, tag.Color, tag.ID, tag.UserID)
	if err != nil {
		if errors.Is(err, entities.ErrTagNotFound) {
			return err
		}
		return fmt.Errorf("update tag: %w", tagWriteError(err))
	}

	return nil
}

// Delete removes the tag and detaches it from every task
func (r *TagRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	query := `DELETE FROM tags WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrTagNotFound, query, id, userID)
	if err != nil && !errors.Is(err, entities.ErrTagNotFound) {
		return fmt.Errorf("delete tag: %w", err)
	}
	return err
}

func (r *TagRepositoryImpl) List(ctx context.Context, userID uuid.UUID) ([]*entities.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE user_id = ? ORDER BY name, id`

	tags := []*entities.Tag{}
	err := selectAll(ctx, r.q, &tags, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}

func (r *TagRepositoryImpl) CountOwned(ctx context.Context, userID uuid.UUID, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := inQuery(r.q, `SELECT COUNT(*) FROM tags WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("build count tags query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count owned tags: %w", err)
	}

	return count, nil
}

func tagWriteError(err error) error {
	if isUniqueViolation(err) {
		return entities.ErrTagNameTaken
	}
	return mapError(err)
}
