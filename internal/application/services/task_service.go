package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	store  ports.Store
	logger *logger.Logger
	opts   options
}

// NewTaskService creates a new task service
func NewTaskService(store ports.Store, logger *logger.Logger, opts ...Option) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger.Component("tasks"),
		opts:   newOptions(opts),
	}
}

// CreateTask creates a new task owned by userID. The category and tags must
// belong to the same user.
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.opts.timestamp()
	task := &entities.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     normalizeDueDate(req.DueDate),
		CategoryID:  req.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = entities.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = entities.PriorityMedium
	}
	tagIDs := uniqueIDs(req.TagIDs)

	var created *entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := checkCategoryOwned(ctx, tx, userID, task.CategoryID); err != nil {
			return err
		}
		if err := checkTagsOwned(ctx, tx, userID, tagIDs); err != nil {
			return err
		}

		if err := tx.Tasks().Create(ctx, task); err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			if err := tx.Tasks().SetTags(ctx, task.ID, tagIDs); err != nil {
				return err
			}
		}

		var err error
		created, err = tx.Tasks().GetByID(ctx, userID, task.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.opts.metrics.TaskCreated()
	s.logger.Infow("Task created", "user_id", userID, "task_id", created.ID, "priority", created.Priority, "tag_ids", created.TagIDs())

	return created, nil
}

// GetTask retrieves one of the user's tasks
func (s *TaskService) GetTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	task, err := s.store.Tasks().GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update in a single transaction
func (s *TaskService) UpdateTask(ctx context.Context, userID uuid.UUID, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := checkClearFlags(req); err != nil {
		return nil, err
	}

	var tagIDs []int64
	if req.TagIDs != nil {
		tagIDs = uniqueIDs(*req.TagIDs)
	}

	var updated *entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		task, err := tx.Tasks().GetByID(ctx, userID, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			task.Title = strings.TrimSpace(*req.Title)
		}
		switch {
		case req.ClearDescription:
			task.Description = nil
		case req.Description != nil:
			task.Description = req.Description
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		switch {
		case req.ClearDueDate:
			task.DueDate = nil
		case req.DueDate != nil:
			task.DueDate = normalizeDueDate(req.DueDate)
		}
		switch {
		case req.ClearCategory:
			task.CategoryID = nil
		case req.CategoryID != nil:
			if err := checkCategoryOwned(ctx, tx, userID, req.CategoryID); err != nil {
				return err
			}
			task.CategoryID = req.CategoryID
		}

		task.UpdatedAt = s.opts.timestamp()
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}

		if req.TagIDs != nil {
			if err := checkTagsOwned(ctx, tx, userID, tagIDs); err != nil {
				return err
			}
			if err := tx.Tasks().SetTags(ctx, task.ID, tagIDs); err != nil {
				return err
			}
		}

		updated, err = tx.Tasks().GetByID(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.logger.Infow("Task updated", "user_id", userID, "task_id", id)

	return updated, nil
}

// SetStatus moves the task to status. Any status may follow any other;
// setting the current status again changes nothing.
func (s *TaskService) SetStatus(ctx context.Context, userID uuid.UUID, id int64, status entities.TaskStatus) (*entities.Task, error) {
	if err := entities.ValidateStruct(ports.SetStatusRequest{Status: status}); err != nil {
		return nil, err
	}

	var (
		task    *entities.Task
		changed bool
	)
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		var err error
		task, err = tx.Tasks().GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if task.Status == status {
			return nil
		}

		now := s.opts.timestamp()
		if err := tx.Tasks().UpdateStatus(ctx, userID, id, status, now); err != nil {
			return err
		}
		task.Status = status
		task.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set task status: %w", err)
	}

	if changed {
		s.opts.metrics.TaskStatusChanged(string(status))
		s.logger.Infow("Task status changed", "user_id", userID, "task_id", id, "status", status)
	}

	return task, nil
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, userID uuid.UUID, id int64) error {
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		return tx.Tasks().Delete(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.logger.Infow("Task deleted", "user_id", userID, "task_id", id)
	return nil
}

// ListTasks retrieves one page of the user's tasks, newest first
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, query ports.TaskListQuery) (*ports.Page[*entities.Task], error) {
	if err := entities.ValidateStruct(query); err != nil {
		return nil, err
	}
	if query.DueFrom != nil && query.DueTo != nil && query.DueFrom.After(*query.DueTo) {
		return nil, entities.NewValidationError("due_from", "must not be after due_to")
	}

	filter := ports.TaskFilter{
		DueFrom: query.DueFrom,
		DueTo:   query.DueTo,
		Limit:   query.PageSize,
		Offset:  (query.Page - 1) * query.PageSize,
	}
	if query.Status != "" {
		filter.Status = &query.Status
	}
	if query.Priority != "" {
		filter.Priority = &query.Priority
	}
	if query.CategoryID > 0 {
		filter.CategoryID = &query.CategoryID
	}
	if query.TagID > 0 {
		filter.TagID = &query.TagID
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		filter.Search = &search
	}

	tasks, total, err := s.store.Tasks().List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return ports.NewPage(tasks, total, query.Page, query.PageSize), nil
}

// Statistics summarises the user's tasks by status and priority
func (s *TaskService) Statistics(ctx context.Context, userID uuid.UUID) (*entities.TaskStatistics, error) {
	byStatus, err := s.store.Tasks().CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("task statistics: %w", err)
	}

	byPriority, err := s.store.Tasks().CountByPriority(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("task statistics: %w", err)
	}

	return entities.NewTaskStatistics(byStatus, byPriority), nil
}

func checkCategoryOwned(ctx context.Context, store ports.Store, userID uuid.UUID, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}

	_, err := store.Categories().GetByID(ctx, userID, *categoryID)
	if errors.Is(err, entities.ErrCategoryNotFound) {
		return entities.NewValidationError("category_id", "category %d not found", *categoryID)
	}
	return err
}

func checkTagsOwned(ctx context.Context, store ports.Store, userID uuid.UUID, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	owned, err := store.Tags().CountOwned(ctx, userID, tagIDs)
	if err != nil {
		return err
	}
	if owned != len(tagIDs) {
		return entities.NewValidationError("tag_ids", "one or more tags not found")
	}
	return nil
}

func checkClearFlags(req ports.UpdateTaskRequest) error {
	switch {
	case req.ClearDescription && req.Description != nil:
		return entities.NewValidationError("clear_description", "cannot be combined with description")
	case req.ClearDueDate && req.DueDate != nil:
		return entities.NewValidationError("clear_due_date", "cannot be combined with due_date")
	case req.ClearCategory && req.CategoryID != nil:
		return entities.NewValidationError("clear_category", "cannot be combined with category_id")
	}
	return nil
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	normalized := due.UTC().Truncate(time.Microsecond)
	return &normalized
}

// uniqueIDs drops repeated ids, keeping first-seen order
func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
