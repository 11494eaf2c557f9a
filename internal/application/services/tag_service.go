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

// TagService handles tag operations scoped to the calling user
type TagService struct {
	store  ports.Store
	logger *logger.Logger
	opts   options
}

// NewTagService creates a new tag service
func NewTagService(store ports.Store, logger *logger.Logger, opts ...Option) *TagService {
	return &TagService{
		store:  store,
		logger: logger.Component("tags"),
		opts:   newOptions(opts),
	}
}

func (s *TagService) CreateTag(ctx context.Context, userID uuid.UUID, req ports.CreateTagRequest) (*entities.Tag, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	tag := &entities.Tag{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Color:     req.Color,
		CreatedAt: s.opts.timestamp(),
	}
	if tag.Color == "" {
		tag.Color = entities.DefaultTagColor
	}

	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := ensureTagNameFree(ctx, tx, userID, tag.Name, 0); err != nil {
			return err
		}
		return tx.Tags().Create(ctx, tag)
	})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}

	s.logger.Infow("Tag created", "user_id", userID, "tag_id", tag.ID)

	return tag, nil
}

func (s *TagService) GetTag(ctx context.Context, userID uuid.UUID, id int64) (*entities.Tag, error) {
	tag, err := s.store.Tags().GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) UpdateTag(ctx context.Context, userID uuid.UUID, id int64, req ports.UpdateTagRequest) (*entities.Tag, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	var tag *entities.Tag
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		var err error
		tag, err = tx.Tags().GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name != tag.Name {
				if err := ensureTagNameFree(ctx, tx, userID, name, tag.ID); err != nil {
					return err
				}
				tag.Name = name
			}
		}
		if req.Color != nil {
			tag.Color = *req.Color
		}

		return tx.Tags().Update(ctx, tag)
	})
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}

	return tag, nil
}

// DeleteTag removes a tag and detaches it from the user's tasks
func (s *TagService) DeleteTag(ctx context.Context, userID uuid.UUID, id int64) error {
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		return tx.Tags().Delete(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	s.logger.Infow("Tag deleted", "user_id", userID, "tag_id", id)
	return nil
}

func (s *TagService) ListTags(ctx context.Context, userID uuid.UUID) ([]*entities.Tag, error) {
	tags, err := s.store.Tags().List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func ensureTagNameFree(ctx context.Context, store ports.Store, userID uuid.UUID, name string, self int64) error {
	existing, err := store.Tags().GetByName(ctx, userID, name)
	switch {
	case errors.Is(err, entities.ErrTagNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return entities.ErrTagNameTaken
	}
	return nil
}
