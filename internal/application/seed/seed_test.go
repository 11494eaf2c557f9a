package seed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/application/services"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

func newServices(t *testing.T) Services {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "seed.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateUp(context.Background()))

	store := repository.NewStore(db)
	log := logger.NewNop()
	jwt := config.JWTConfig{Secret: "seed-secret", ExpiresIn: time.Minute}
	opt := services.WithBcryptCost(bcrypt.MinCost)

	return Services{
		Store:      store,
		Auth:       services.NewAuthService(store, jwt, log, opt),
		Categories: services.NewCategoryService(store, log, opt),
		Tags:       services.NewTagService(store, log, opt),
		Tasks:      services.NewTaskService(store, log, opt),
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	result, err := Run(ctx, svc, now)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 4, result.Categories)
	assert.Equal(t, 5, result.Tags)
	assert.Equal(t, 8, result.Tasks)

	_, err = svc.Auth.Login(ctx, ports.LoginRequest{Email: DemoEmail, Password: DemoPassword})
	require.NoError(t, err)

	stats, err := svc.Tasks.Statistics(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[entities.TaskStatusCompleted])
	assert.Equal(t, int64(3), stats.ByStatus[entities.TaskStatusInProgress])
	assert.Equal(t, int64(1), stats.ByPriority[entities.PriorityUrgent])

	query := ports.NewTaskListQuery()
	query.Search = "login"
	page, err := svc.Tasks.ListTasks(ctx, result.User.ID, query)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	task := page.Items[0]
	require.NotNil(t, task.Category)
	assert.Equal(t, "Work", task.Category.Name)
	require.Len(t, task.Tags, 2)
	assert.Equal(t, "important", task.Tags[0].Name)
	assert.Equal(t, "urgent", task.Tags[1].Name)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(now.Add(4*time.Hour)))
}

func TestRunSkipsPopulatedDatabase(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)

	_, err := svc.Auth.Register(ctx, ports.RegisterRequest{
		Username: "someone",
		Email:    "someone@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	result, err := Run(ctx, svc, time.Now())
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	count, err := svc.Store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.Store.Users().GetByEmail(ctx, DemoEmail)
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}
