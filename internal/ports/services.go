package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/tracker/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*entities.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	VerifyToken(token string) (uuid.UUID, error)
}

// UserService interface for account operations
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entities.User, error)
	GetActiveUser(ctx context.Context, userID uuid.UUID) (*entities.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*entities.User, error)
	Deactivate(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// CategoryService interface for owner-scoped category operations
type CategoryService interface {
	CreateCategory(ctx context.Context, userID uuid.UUID, req CreateCategoryRequest) (*entities.Category, error)
	GetCategory(ctx context.Context, userID uuid.UUID, id int64) (*entities.Category, error)
	UpdateCategory(ctx context.Context, userID uuid.UUID, id int64, req UpdateCategoryRequest) (*entities.Category, error)
	DeleteCategory(ctx context.Context, userID uuid.UUID, id int64) error
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*entities.Category, error)
}

// TagService interface for owner-scoped tag operations
type TagService interface {
	CreateTag(ctx context.Context, userID uuid.UUID, req CreateTagRequest) (*entities.Tag, error)
	GetTag(ctx context.Context, userID uuid.UUID, id int64) (*entities.Tag, error)
	UpdateTag(ctx context.Context, userID uuid.UUID, id int64, req UpdateTagRequest) (*entities.Tag, error)
	DeleteTag(ctx context.Context, userID uuid.UUID, id int64) error
	ListTags(ctx context.Context, userID uuid.UUID) ([]*entities.Tag, error)
}

// TaskService interface for task lifecycle operations
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error)
	UpdateTask(ctx context.Context, userID uuid.UUID, id int64, req UpdateTaskRequest) (*entities.Task, error)
	SetStatus(ctx context.Context, userID uuid.UUID, id int64, status entities.TaskStatus) (*entities.Task, error)
	DeleteTask(ctx context.Context, userID uuid.UUID, id int64) error
	ListTasks(ctx context.Context, userID uuid.UUID, query TaskListQuery) (*Page[*entities.Task], error)
	Statistics(ctx context.Context, userID uuid.UUID) (*entities.TaskStatistics, error)
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginRequest accepts JSON {email, password} or an OAuth2 password form
// where the email travels in the username field.
type LoginRequest struct {
	Email    string `json:"email" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// User related types
type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	Password *string `json:"password" validate:"omitempty,min=6,max=100"`
}

// Category related types
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"notblank,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	Color       string  `json:"color" validate:"omitempty,color"`
}

type UpdateCategoryRequest struct {
	Name             *string `json:"name" validate:"omitempty,notblank,max=50"`
	Description      *string `json:"description" validate:"omitempty,max=200"`
	ClearDescription bool    `json:"clear_description"`
	Color            *string `json:"color" validate:"omitempty,color"`
}

// Tag related types
type CreateTagRequest struct {
	Name  string `json:"name" validate:"notblank,max=30"`
	Color string `json:"color" validate:"omitempty,color"`
}

type UpdateTagRequest struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=30"`
	Color *string `json:"color" validate:"omitempty,color"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"notblank,max=200"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	Status      entities.TaskStatus `json:"status" validate:"omitempty,taskstatus"`
	Priority    entities.Priority   `json:"priority" validate:"omitempty,priority"`
	DueDate     *time.Time          `json:"due_date"`
	CategoryID  *int64              `json:"category_id" validate:"omitempty,gt=0"`
	TagIDs      []int64             `json:"tag_ids" validate:"omitempty,dive,gt=0"`
}

// UpdateTaskRequest carries a partial update. Nil fields are left unchanged;
// the Clear flags null the matching optional field. A non-nil TagIDs
// replaces the task's tag set, an empty list removes every tag.
type UpdateTaskRequest struct {
	Title            *string              `json:"title" validate:"omitempty,notblank,max=200"`
	Description      *string              `json:"description" validate:"omitempty,max=2000"`
	ClearDescription bool                 `json:"clear_description"`
	Status           *entities.TaskStatus `json:"status" validate:"omitempty,taskstatus"`
	Priority         *entities.Priority   `json:"priority" validate:"omitempty,priority"`
	DueDate          *time.Time           `json:"due_date"`
	ClearDueDate     bool                 `json:"clear_due_date"`
	CategoryID       *int64               `json:"category_id" validate:"omitempty,gt=0"`
	ClearCategory    bool                 `json:"clear_category"`
	TagIDs           *[]int64             `json:"tag_ids" validate:"omitempty,dive,gt=0"`
}

type SetStatusRequest struct {
	Status entities.TaskStatus `json:"status" validate:"required,taskstatus"`
}

// TaskListQuery is a filtered, paginated task listing request. Zero filter
// values mean "no filter". Start from NewTaskListQuery for the paging defaults.
type TaskListQuery struct {
	Status     entities.TaskStatus `query:"status" validate:"omitempty,taskstatus"`
	Priority   entities.Priority   `query:"priority" validate:"omitempty,priority"`
	CategoryID int64               `query:"category_id" validate:"gte=0"`
	TagID      int64               `query:"tag_id" validate:"gte=0"`
	DueFrom    *time.Time          `query:"due_from"`
	DueTo      *time.Time          `query:"due_to"`
	Search     string              `query:"search" validate:"max=200"`
	Page       int                 `query:"page" validate:"min=1,max=1000000"`
	PageSize   int                 `query:"page_size" validate:"min=1,max=100"`
}

// NewTaskListQuery returns an unfiltered query for the first page.
func NewTaskListQuery() TaskListQuery {
	return TaskListQuery{Page: 1, PageSize: DefaultPageSize}
}

// Pagination bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 1000000
)

// Page is one page of a listing
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a page, computing TotalPages as ceil(total/pageSize).
func NewPage[T any](items []T, total int64, page, pageSize int) *Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
