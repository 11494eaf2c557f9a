package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/ports"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, category_id, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	q sqlx.ExtContext
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(q sqlx.ExtContext) ports.TaskRepository {
	return &TaskRepositoryImpl{q: q}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, status, priority, due_date, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	id, err := insertReturningID(ctx, r.q, query,
		task.UserID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.CategoryID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", mapError(err))
	}

	task.ID = id
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`

	var task entities.Task
	err := getOne(ctx, r.q, &task, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	if err := r.loadRelations(ctx, []*entities.Task{&task}); err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?,
			category_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrTaskNotFound, query,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.CategoryID, task.UpdatedAt, task.ID, task.UserID,
	)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("update task: %w", mapError(err))
	}

	return nil
}

func (r *TaskRepositoryImpl) UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status entities.TaskStatus, updatedAt time.Time) error {
	query := `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrTaskNotFound, query, status, updatedAt, id, userID)
	if err != nil && !errors.Is(err, entities.ErrTaskNotFound) {
		return fmt.Errorf("update task status: %w", mapError(err))
	}
	return err
}

// Delete removes the task and its tag links
func (r *TaskRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	query := `DELETE FROM tasks WHERE id = ? AND user_id = ?`

	err := execAffectingOne(ctx, r.q, entities.ErrTaskNotFound, query, id, userID)
	if err != nil && !errors.Is(err, entities.ErrTaskNotFound) {
		return fmt.Errorf("delete task: %w", err)
	}
	return err
}

// List returns one page of the user's tasks matching filter, newest first,
// together with the total number of matching tasks.
func (r *TaskRepositoryImpl) List(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, int64, error) {
	where, args := buildTaskWhere(r.q.DriverName(), userID, filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM tasks WHERE ` + where
	if err := getOne(ctx, r.q, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	tasks := []*entities.Task{}
	if total == 0 {
		return tasks, 0, nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where +
		` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	if err := selectAll(ctx, r.q, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	if err := r.loadRelations(ctx, tasks); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func buildTaskWhere(driverName string, userID uuid.UUID, filter ports.TaskFilter) (string, []interface{}) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.TagID != nil {
		conditions = append(conditions, "id IN (SELECT task_id FROM task_tags WHERE tag_id = ?)")
		args = append(args, *filter.TagID)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, "due_date >= ?")
		args = append(args, filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		conditions = append(conditions, "due_date <= ?")
		args = append(args, filter.DueTo.UTC())
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, database.LowerFunc(driverName)+`(title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(*filter.Search))+"%")
	}

	return strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SetTags replaces the task's tag links with tagIDs
func (r *TaskRepositoryImpl) SetTags(ctx context.Context, taskID int64, tagIDs []int64) error {
	if _, err := execQuery(ctx, r.q, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear task tags: %w", err)
	}

	seen := make(map[int64]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true

		_, err := execQuery(ctx, r.q, `INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID)
		if err != nil {
			return fmt.Errorf("attach tag %d: %w", tagID, mapError(err))
		}
	}

	return nil
}

func (r *TaskRepositoryImpl) CountByStatus(ctx context.Context, userID uuid.UUID) (map[entities.TaskStatus]int64, error) {
	var rows []struct {
		Status entities.TaskStatus `db:"status"`
		Count  int64               `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM tasks WHERE user_id = ? GROUP BY status`
	if err := selectAll(ctx, r.q, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}

	counts := make(map[entities.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *TaskRepositoryImpl) CountByPriority(ctx context.Context, userID uuid.UUID) (map[entities.Priority]int64, error) {
	var rows []struct {
		Priority entities.Priority `db:"priority"`
		Count    int64             `db:"count"`
	}

	query := `SELECT priority, COUNT(*) AS count FROM tasks WHERE user_id = ? GROUP BY priority`
	if err := selectAll(ctx, r.q, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("count tasks by priority: %w", err)
	}

	counts := make(map[entities.Priority]int64, len(rows))
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}

// loadRelations fills in the category brief and tags of every task with one
// query per relation.
func (r *TaskRepositoryImpl) loadRelations(ctx context.Context, tasks []*entities.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	taskIDs := make([]int64, 0, len(tasks))
	categoryIDs := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		task.Tags = []entities.TagBrief{}
		taskIDs = append(taskIDs, task.ID)
		if task.CategoryID != nil {
			categoryIDs = append(categoryIDs, *task.CategoryID)
		}
	}

	if len(categoryIDs) > 0 {
		query, args, err := inQuery(r.q, `SELECT id, name, color FROM categories WHERE id IN (?)`, categoryIDs)
		if err != nil {
			return fmt.Errorf("build category query: %w", err)
		}

		var categories []entities.CategoryBrief
		if err := sqlx.SelectContext(ctx, r.q, &categories, query, args...); err != nil {
			return fmt.Errorf("load task categories: %w", err)
		}

		byID := make(map[int64]entities.CategoryBrief, len(categories))
		for _, c := range categories {
			byID[c.ID] = c
		}
		for _, task := range tasks {
			if task.CategoryID == nil {
				continue
			}
			if c, ok := byID[*task.CategoryID]; ok {
				brief := c
				task.Category = &brief
			}
		}
	}

	query, args, err := inQuery(r.q, `
		SELECT tt.task_id, t.id, t.name, t.color
		FROM task_tags tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.task_id IN (?)
		ORDER BY t.name, t.id`, taskIDs)
	if err != nil {
		return fmt.Errorf("build tag query: %w", err)
	}

	var links []struct {
		TaskID int64 `db:"task_id"`
		entities.TagBrief
	}
	if err := sqlx.SelectContext(ctx, r.q, &links, query, args...); err != nil {
		return fmt.Errorf("load task tags: %w", err)
	}

	byTask := make(map[int64]*entities.Task, len(tasks))
	for _, task := range tasks {
		byTask[task.ID] = task
	}
	for _, link := range links {
		if task, ok := byTask[link.TaskID]; ok {
			task.Tags = append(task.Tags, link.TagBrief)
		}
	}

	return nil
}
