package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/ports"
)

func newTestStore(t *testing.T) ports.Store {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "repo.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.MigrateUp(context.Background()))
	return NewStore(db)
}

var clock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func tick() time.Time {
	clock = clock.Add(time.Second)
	return clock
}

func createUser(t *testing.T, store ports.Store, username string) *entities.User {
	t.Helper()
	now := tick()
	user := &entities.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func createCategory(t *testing.T, store ports.Store, userID uuid.UUID, name string) *entities.Category {
	t.Helper()
	now := tick()
	category := &entities.Category{UserID: userID, Name: name, Color: entities.DefaultCategoryColor, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Categories().Create(context.Background(), category))
	return category
}

func createTag(t *testing.T, store ports.Store, userID uuid.UUID, name string) *entities.Tag {
	t.Helper()
	tag := &entities.Tag{UserID: userID, Name: name, Color: entities.DefaultTagColor, CreatedAt: tick()}
	require.NoError(t, store.Tags().Create(context.Background(), tag))
	return tag
}

func createTask(t *testing.T, store ports.Store, userID uuid.UUID, title string, mutate ...func(*entities.Task)) *entities.Task {
	t.Helper()
	now := tick()
	task := &entities.Task{
		UserID:    userID,
		Title:     title,
		Status:    entities.TaskStatusPending,
		Priority:  entities.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range mutate {
		m(task)
	}
	require.NoError(t, store.Tasks().Create(context.Background(), task))
	return task
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	users := store.Users()

	alice := createUser(t, store, "alice")
	assert.NotEqual(t, uuid.Nil, alice.ID)

	got, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.True(t, got.IsActive)
	assert.True(t, alice.CreatedAt.Equal(got.CreatedAt))

	got, err = users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, users.SetActive(ctx, alice.ID, false, tick()))
	got, err = users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got.Username = "alice2"
	got.UpdatedAt = tick()
	require.NoError(t, users.Update(ctx, got))
	got, err = users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)

	require.NoError(t, users.Delete(ctx, alice.ID))
	assert.ErrorIs(t, users.Delete(ctx, alice.ID), entities.ErrUserNotFound)
}

func TestUserRepositoryUniqueViolations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	createUser(t, store, "alice")

	now := tick()
	dupEmail := &entities.User{Username: "other", Email: "alice@example.com", PasswordHash: "x", IsActive: true, CreatedAt: now, UpdatedAt: now}
	err := store.Users().Create(ctx, dupEmail)
	assert.ErrorIs(t, err, entities.ErrEmailTaken)
	assert.ErrorIs(t, err, entities.ErrConflict)

	dupName := &entities.User{Username: "alice", Email: "fresh@example.com", PasswordHash: "x", IsActive: true, CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, store.Users().Create(ctx, dupName), entities.ErrUsernameTaken)
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	categories := store.Categories()

	work := createCategory(t, store, alice.ID, "Work")
	createCategory(t, store, alice.ID, "Home")
	assert.Positive(t, work.ID)

	// Same name under another owner is fine, under the same owner it is not.
	createCategory(t, store, bob.ID, "Work")
	now := tick()
	err := categories.Create(ctx, &entities.Category{UserID: alice.ID, Name: "Work", Color: "#000000", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, entities.ErrCategoryNameTaken)

	list, err := categories.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Home", list[0].Name)
	assert.Equal(t, "Work", list[1].Name)

	_, err = categories.GetByID(ctx, bob.ID, work.ID)
	assert.ErrorIs(t, err, entities.ErrCategoryNotFound)

	got, err := categories.GetByName(ctx, alice.ID, "Work")
	require.NoError(t, err)
	assert.Equal(t, work.ID, got.ID)
	assert.Nil(t, got.Description)

	desc := "day job"
	got.Description = &desc
	got.Color = "#112233"
	got.UpdatedAt = tick()
	require.NoError(t, categories.Update(ctx, got))
	got, err = categories.GetByID(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, "day job", *got.Description)
	assert.Equal(t, "#112233", got.Color)

	got.Name = "Home"
	assert.ErrorIs(t, categories.Update(ctx, got), entities.ErrCategoryNameTaken)

	assert.ErrorIs(t, categories.Delete(ctx, bob.ID, work.ID), entities.ErrCategoryNotFound)
	require.NoError(t, categories.Delete(ctx, alice.ID, work.ID))
}

func TestTagRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	tags := store.Tags()

	urgent := createTag(t, store, alice.ID, "urgent")
	easy := createTag(t, store, alice.ID, "easy")
	foreign := createTag(t, store, bob.ID, "urgent")

	err := tags.Create(ctx, &entities.Tag{UserID: alice.ID, Name: "easy", Color: "#000000", CreatedAt: tick()})
	assert.ErrorIs(t, err, entities.ErrTagNameTaken)

	list, err := tags.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "easy", list[0].Name)

	count, err := tags.CountOwned(ctx, alice.ID, []int64{urgent.ID, easy.ID, foreign.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = tags.CountOwned(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	urgent.Color = "#EF4444"
	require.NoError(t, tags.Update(ctx, urgent))
	got, err := tags.GetByName(ctx, alice.ID, "urgent")
	require.NoError(t, err)
	assert.Equal(t, "#EF4444", got.Color)

	_, err = tags.GetByID(ctx, alice.ID, foreign.ID)
	assert.ErrorIs(t, err, entities.ErrTagNotFound)

	require.NoError(t, tags.Delete(ctx, alice.ID, easy.ID))
	assert.ErrorIs(t, tags.Delete(ctx, alice.ID, easy.ID), entities.ErrTagNotFound)
}

func TestTaskRepositoryRelations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	work := createCategory(t, store, alice.ID, "Work")
	urgent := createTag(t, store, alice.ID, "urgent")
	review := createTag(t, store, alice.ID, "review")

	due := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	task := createTask(t, store, alice.ID, "Write report", func(task *entities.Task) {
		task.CategoryID = &work.ID
		task.DueDate = &due
	})
	require.NoError(t, store.Tasks().SetTags(ctx, task.ID, []int64{urgent.ID, review.ID, urgent.ID}))

	got, err := store.Tasks().GetByID(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Work", got.Category.Name)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "review", got.Tags[0].Name)
	assert.Equal(t, "urgent", got.Tags[1].Name)

	// Deleting the category keeps the task, uncategorised.
	require.NoError(t, store.Categories().Delete(ctx, alice.ID, work.ID))
	// Deleting a tag detaches it.
	require.NoError(t, store.Tags().Delete(ctx, alice.ID, urgent.ID))

	got, err = store.Tasks().GetByID(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, review.ID, got.Tags[0].ID)

	require.NoError(t, store.Tasks().SetTags(ctx, task.ID, nil))
	got, err = store.Tasks().GetByID(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestTaskRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	task := createTask(t, store, alice.ID, "Private")

	_, err := store.Tasks().GetByID(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	assert.ErrorIs(t, store.Tasks().UpdateStatus(ctx, bob.ID, task.ID, entities.TaskStatusCompleted, tick()), entities.ErrTaskNotFound)
	assert.ErrorIs(t, store.Tasks().Delete(ctx, bob.ID, task.ID), entities.ErrTaskNotFound)

	task.UserID = bob.ID
	task.Title = "Stolen"
	assert.ErrorIs(t, store.Tasks().Update(ctx, task), entities.ErrTaskNotFound)

	got, err := store.Tasks().GetByID(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)
	assert.Equal(t, entities.TaskStatusPending, got.Status)
}

func TestTaskRepositoryList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	work := createCategory(t, store, alice.ID, "Work")
	urgent := createTag(t, store, alice.ID, "urgent")

	early := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	first := createTask(t, store, alice.ID, "Buy milk", func(task *entities.Task) {
		task.Priority = entities.PriorityLow
		task.DueDate = &early
	})
	second := createTask(t, store, alice.ID, "Quarterly REPORT", func(task *entities.Task) {
		task.CategoryID = &work.ID
		task.Priority = entities.PriorityHigh
		task.DueDate = &late
	})
	third := createTask(t, store, alice.ID, "100% done_ish", func(task *entities.Task) {
		task.Status = entities.TaskStatusCompleted
	})
	createTask(t, store, bob.ID, "Bob's report")
	require.NoError(t, store.Tasks().SetTags(ctx, second.ID, []int64{urgent.ID}))

	status := entities.TaskStatusCompleted
	priority := entities.PriorityHigh
	search := "report"
	percent := "100%"
	underscore := "y_m"
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter ports.TaskFilter
		want   []int64
	}{
		{name: "all newest first", filter: ports.TaskFilter{}, want: []int64{third.ID, second.ID, first.ID}},
		{name: "status", filter: ports.TaskFilter{Status: &status}, want: []int64{third.ID}},
		{name: "priority", filter: ports.TaskFilter{Priority: &priority}, want: []int64{second.ID}},
		{name: "category", filter: ports.TaskFilter{CategoryID: &work.ID}, want: []int64{second.ID}},
		{name: "tag", filter: ports.TaskFilter{TagID: &urgent.ID}, want: []int64{second.ID}},
		{name: "due from", filter: ports.TaskFilter{DueFrom: &from}, want: []int64{second.ID}},
		{name: "due to", filter: ports.TaskFilter{DueTo: &to}, want: []int64{first.ID}},
		{name: "search is case insensitive", filter: ports.TaskFilter{Search: &search}, want: []int64{second.ID}},
		{name: "search percent is literal", filter: ports.TaskFilter{Search: &percent}, want: []int64{third.ID}},
		{name: "search underscore is literal", filter: ports.TaskFilter{Search: &underscore}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, total, err := store.Tasks().List(ctx, alice.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			ids := []int64{}
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	tasks, total, err := store.Tasks().List(ctx, alice.ID, ports.TaskFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, first.ID, tasks[0].ID)

	tasks, total, err = store.Tasks().List(ctx, alice.ID, ports.TaskFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, tasks, 2)
	require.Len(t, tasks[1].Tags, 1)
	assert.Equal(t, "urgent", tasks[1].Tags[0].Name)
	require.NotNil(t, tasks[1].Category)
	assert.Equal(t, work.ID, tasks[1].Category.ID)
}

func TestTaskRepositoryCounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")

	createTask(t, store, alice.ID, "a")
	createTask(t, store, alice.ID, "b", func(task *entities.Task) { task.Status = entities.TaskStatusCompleted })
	createTask(t, store, alice.ID, "c", func(task *entities.Task) {
		task.Status = entities.TaskStatusCompleted
		task.Priority = entities.PriorityUrgent
	})

	byStatus, err := store.Tasks().CountByStatus(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, map[entities.TaskStatus]int64{
		entities.TaskStatusPending:   1,
		entities.TaskStatusCompleted: 2,
	}, byStatus)

	byPriority, err := store.Tasks().CountByPriority(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, map[entities.Priority]int64{
		entities.PriorityMedium: 2,
		entities.PriorityUrgent: 1,
	}, byPriority)
}

func TestDeletingUserCascades(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	work := createCategory(t, store, alice.ID, "Work")
	tag := createTag(t, store, alice.ID, "urgent")
	task := createTask(t, store, alice.ID, "x", func(task *entities.Task) { task.CategoryID = &work.ID })
	require.NoError(t, store.Tasks().SetTags(ctx, task.ID, []int64{tag.ID}))

	require.NoError(t, store.Users().Delete(ctx, alice.ID))

	_, err := store.Tasks().GetByID(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	_, err = store.Categories().GetByID(ctx, alice.ID, work.ID)
	assert.ErrorIs(t, err, entities.ErrCategoryNotFound)
	_, err = store.Tags().GetByID(ctx, alice.ID, tag.ID)
	assert.ErrorIs(t, err, entities.ErrTagNotFound)
}

func TestSetTagsRejectsUnknownTag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")
	task := createTask(t, store, alice.ID, "x")

	err := store.Tasks().SetTags(ctx, task.ID, []int64{4242})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := createUser(t, store, "alice")

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx ports.Store) error {
		createCategory(t, tx, alice.ID, "Temp")
		// Nested calls join the outer transaction.
		return tx.WithinTx(ctx, func(inner ports.Store) error {
			createTag(t, inner, alice.ID, "temp")
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	categories, err := store.Categories().List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, categories)
	tags, err := store.Tags().List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	err = store.WithinTx(ctx, func(tx ports.Store) error {
		createCategory(t, tx, alice.ID, "Kept")
		return nil
	})
	require.NoError(t, err)
	categories, err = store.Categories().List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_sale \\o/`, escapeLike(`50% off_sale \o/`))
}
