package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/tracker/internal/domain/entities"
)

// Store is a persistence handle bound either to the connection pool or to a
// single transaction. Every repository obtained from a transactional Store
// runs its statements inside that transaction.
type Store interface {
	Users() UserRepository
	Categories() CategoryRepository
	Tags() TagRepository
	Tasks() TaskRepository

	// WithinTx runs fn against a Store bound to a new transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	SetActive(ctx context.Context, id uuid.UUID, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// CategoryRepository defines owner-scoped category operations. Lookups for a
// row owned by another user report entities.ErrCategoryNotFound.
type CategoryRepository interface {
	Create(ctx context.Context, category *entities.Category) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Category, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*entities.Category, error)
	Update(ctx context.Context, category *entities.Category) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	List(ctx context.Context, userID uuid.UUID) ([]*entities.Category, error)
}

// TagRepository defines owner-scoped tag operations
type TagRepository interface {
	Create(ctx context.Context, tag *entities.Tag) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Tag, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*entities.Tag, error)
	Update(ctx context.Context, tag *entities.Tag) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	List(ctx context.Context, userID uuid.UUID) ([]*entities.Tag, error)
	// CountOwned counts how many of ids exist and belong to userID.
	CountOwned(ctx context.Context, userID uuid.UUID, ids []int64) (int, error)
}

// TaskRepository defines owner-scoped task operations. Tasks returned by
// GetByID and List carry their category brief and tags.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status entities.TaskStatus, updatedAt time.Time) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*entities.Task, int64, error)
	SetTags(ctx context.Context, taskID int64, tagIDs []int64) error
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[entities.TaskStatus]int64, error)
	CountByPriority(ctx context.Context, userID uuid.UUID) (map[entities.Priority]int64, error)
}

// TaskFilter narrows a task listing. Nil fields do not filter.
type TaskFilter struct {
	Status     *entities.TaskStatus
	Priority   *entities.Priority
	CategoryID *int64
	TagID      *int64
	DueFrom    *time.Time
	DueTo      *time.Time
	Search     *string
	Limit      int
	Offset     int
}
