package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
	"github.com/taskmaster/tracker/internal/ports"
)

// fakeClock advances one millisecond per reading
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testEnv struct {
	store      ports.Store
	clock      *fakeClock
	metrics    *metrics.Metrics
	auth       *AuthService
	users      *UserService
	categories *CategoryService
	tags       *TagService
	tasks      *TaskService
}

var testJWT = config.JWTConfig{
	Secret:    "test-secret",
	ExpiresIn: 30 * time.Minute,
	Issuer:    "tracker-test",
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "services.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateUp(context.Background()))

	store := repository.NewStore(db)
	clock := &fakeClock{now: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
	m := metrics.New("test")
	log := logger.NewNop()
	opts := []Option{WithClock(clock.Now), WithBcryptCost(bcrypt.MinCost), WithMetrics(m)}

	return &testEnv{
		store:      store,
		clock:      clock,
		metrics:    m,
		auth:       NewAuthService(store, testJWT, log, opts...),
		users:      NewUserService(store, log, opts...),
		categories: NewCategoryService(store, log, opts...),
		tags:       NewTagService(store, log, opts...),
		tasks:      NewTaskService(store, log, opts...),
	}
}

func (e *testEnv) register(t *testing.T, username string) *entities.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), ports.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createTask(t *testing.T, userID uuid.UUID, title string) *entities.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), userID, ports.CreateTaskRequest{Title: title})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T {
	return &v
}
