package entities

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Error kinds. Every error returned by the services matches exactly one of
// these under errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Common errors
var (
	ErrUserNotFound     = newKindError(ErrNotFound, "user not found")
	ErrTaskNotFound     = newKindError(ErrNotFound, "task not found")
	ErrCategoryNotFound = newKindError(ErrNotFound, "category not found")
	ErrTagNotFound      = newKindError(ErrNotFound, "tag not found")

	ErrEmailTaken        = newKindError(ErrConflict, "email already registered")
	ErrUsernameTaken     = newKindError(ErrConflict, "username already taken")
	ErrCategoryNameTaken = newKindError(ErrConflict, "category with this name already exists")
	ErrTagNameTaken      = newKindError(ErrConflict, "tag with this name already exists")

	ErrInvalidCredentials = newKindError(ErrUnauthorized, "incorrect email or password")
	ErrInvalidToken       = newKindError(ErrUnauthorized, "could not validate credentials")
	ErrAccountDisabled    = newKindError(ErrUnauthorized, "account is disabled")
	ErrInactiveUser       = newKindError(ErrForbidden, "inactive user")
)

// kindError carries its own message while still matching its kind.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// PublicMessage returns the client-facing message of the domain error in
// err's chain, or "" when the chain carries none.
func PublicMessage(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return ""
}

// Field limits
const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	EmailMaxLength    = 100
	PasswordMinLength = 6
	PasswordMaxLength = 100

	TaskTitleMaxLength       = 200
	TaskDescriptionMaxLength = 2000

	CategoryNameMaxLength        = 50
	CategoryDescriptionMaxLength = 200
	TagNameMaxLength             = 30

	DefaultCategoryColor = "#3B82F6"
	DefaultTagColor      = "#10B981"
)

// TaskStatus is the lifecycle state of a task.
//
// Transitions are deliberately unrestricted: an owner may move a task from
// any status to any other status at any time, including back from completed
// or archived. Only membership in the set below is enforced.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusArchived   TaskStatus = "archived"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusArchived,
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

func (p Priority) IsValid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// User represents an account in the system
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Category groups a user's tasks
type Category struct {
	ID          int64     `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	Color       string    `json:"color" db:"color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tag is a free-form label attached to any number of a user's tasks
type Tag struct {
	ID        int64     `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CategoryBrief is the category summary embedded in a task
type CategoryBrief struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// TagBrief is the tag summary embedded in a task
type TagBrief struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// Task represents a task owned by a single user
type Task struct {
	ID          int64          `json:"id" db:"id"`
	UserID      uuid.UUID      `json:"user_id" db:"user_id"`
	Title       string         `json:"title" db:"title"`
	Description *string        `json:"description" db:"description"`
	Status      TaskStatus     `json:"status" db:"status"`
	Priority    Priority       `json:"priority" db:"priority"`
	DueDate     *time.Time     `json:"due_date" db:"due_date"`
	CategoryID  *int64         `json:"category_id" db:"category_id"`
	Category    *CategoryBrief `json:"category" db:"-"`
	Tags        []TagBrief     `json:"tags" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// TagIDs returns the ids of the tags attached to the task.
func (t *Task) TagIDs() []int64 {
	ids := make([]int64, 0, len(t.Tags))
	for _, tag := range t.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

// TaskStatistics summarises a user's tasks
type TaskStatistics struct {
	Total           int64                `json:"total"`
	ByStatus        map[TaskStatus]int64 `json:"by_status"`
	ByPriority      map[Priority]int64   `json:"by_priority"`
	CompletionRatio float64              `json:"completion_ratio"`
	CompletionRate  float64              `json:"completion_rate"`
}

// NewTaskStatistics builds statistics from raw grouped counts. Every status
// and priority is present in the result, zero when absent from the input.
func NewTaskStatistics(byStatus map[TaskStatus]int64, byPriority map[Priority]int64) *TaskStatistics {
	stats := &TaskStatistics{
		ByStatus:   make(map[TaskStatus]int64, len(TaskStatuses)),
		ByPriority: make(map[Priority]int64, len(Priorities)),
	}

	for _, status := range TaskStatuses {
		stats.ByStatus[status] = byStatus[status]
		stats.Total += byStatus[status]
	}
	for _, priority := range Priorities {
		stats.ByPriority[priority] = byPriority[priority]
	}

	if stats.Total > 0 {
		stats.CompletionRatio = float64(stats.ByStatus[TaskStatusCompleted]) / float64(stats.Total)
		stats.CompletionRate = math.Round(stats.CompletionRatio*10000) / 100
	}

	return stats
}
