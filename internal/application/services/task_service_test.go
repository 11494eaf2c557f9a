package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

func TestAliceScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	task, err := env.tasks.CreateTask(ctx, alice.ID, ports.CreateTaskRequest{
		Title:    "Write report",
		Priority: entities.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusPending, task.Status)
	assert.Equal(t, entities.PriorityHigh, task.Priority)

	_, err = env.tasks.SetStatus(ctx, alice.ID, task.ID, entities.TaskStatusCompleted)
	require.NoError(t, err)

	got, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, got.Status)

	stats, err := env.tasks.Statistics(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ByStatus[entities.TaskStatusCompleted])
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, 1.0, stats.CompletionRatio)
	assert.Equal(t, 100.0, stats.CompletionRate)
}

func TestCreateTaskDefaultsAndRelations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	work, err := env.categories.CreateCategory(ctx, alice.ID, ports.CreateCategoryRequest{Name: "Work"})
	require.NoError(t, err)
	urgent, err := env.tags.CreateTag(ctx, alice.ID, ports.CreateTagRequest{Name: "urgent"})
	require.NoError(t, err)

	due := time.Date(2026, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	task, err := env.tasks.CreateTask(ctx, alice.ID, ports.CreateTaskRequest{
		Title:      "  Plan sprint  ",
		DueDate:    &due,
		CategoryID: &work.ID,
		TagIDs:     []int64{urgent.ID, urgent.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Plan sprint", task.Title)
	assert.Equal(t, entities.TaskStatusPending, task.Status)
	assert.Equal(t, entities.PriorityMedium, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.True(t, due.Equal(*task.DueDate))
	require.NotNil(t, task.Category)
	assert.Equal(t, "Work", task.Category.Name)
	assert.Equal(t, entities.DefaultCategoryColor, task.Category.Color)
	require.Len(t, task.Tags, 1)
	assert.Equal(t, urgent.ID, task.Tags[0].ID)

	expected := `
# HELP test_tasks_created_total Total number of tasks created
# TYPE test_tasks_created_total counter
test_tasks_created_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(env.metrics.Registry(), strings.NewReader(expected), "test_tasks_created_total"))
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	tests := []struct {
		name string
		req  ports.CreateTaskRequest
	}{
		{name: "blank title", req: ports.CreateTaskRequest{Title: "   "}},
		{name: "long title", req: ports.CreateTaskRequest{Title: strings.Repeat("x", 201)}},
		{name: "bad priority", req: ports.CreateTaskRequest{Title: "t", Priority: "critical"}},
		{name: "bad status", req: ports.CreateTaskRequest{Title: "t", Status: "done"}},
		{name: "unknown category", req: ports.CreateTaskRequest{Title: "t", CategoryID: ptr(int64(999))}},
		{name: "unknown tag", req: ports.CreateTaskRequest{Title: "t", TagIDs: []int64{999}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tasks.CreateTask(ctx, alice.ID, tt.req)
			assert.ErrorIs(t, err, entities.ErrValidation)
		})
	}

	page, err := env.tasks.ListTasks(ctx, alice.ID, ports.NewTaskListQuery())
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestTaskReferencingOtherUsersRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	bobsCategory, err := env.categories.CreateCategory(ctx, bob.ID, ports.CreateCategoryRequest{Name: "Bob's"})
	require.NoError(t, err)
	bobsTag, err := env.tags.CreateTag(ctx, bob.ID, ports.CreateTagRequest{Name: "bob"})
	require.NoError(t, err)

	_, err = env.tasks.CreateTask(ctx, alice.ID, ports.CreateTaskRequest{Title: "x", CategoryID: &bobsCategory.ID})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category_id", verr.Field)

	_, err = env.tasks.CreateTask(ctx, alice.ID, ports.CreateTaskRequest{Title: "x", TagIDs: []int64{bobsTag.ID}})
	assert.ErrorIs(t, err, entities.ErrValidation)

	task := env.createTask(t, alice.ID, "mine")
	_, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, ports.UpdateTaskRequest{CategoryID: &bobsCategory.ID})
	assert.ErrorIs(t, err, entities.ErrValidation)
	_, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, ports.UpdateTaskRequest{TagIDs: &[]int64{bobsTag.ID}})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestOtherUserSeesNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	task := env.createTask(t, alice.ID, "private")

	_, err := env.tasks.GetTask(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = env.tasks.UpdateTask(ctx, bob.ID, task.ID, ports.UpdateTaskRequest{Title: ptr("hijacked")})
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = env.tasks.SetStatus(ctx, bob.ID, task.ID, entities.TaskStatusArchived)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	err = env.tasks.DeleteTask(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	// Same error as for a task that does not exist at all.
	_, missing := env.tasks.GetTask(ctx, bob.ID, 424242)
	_, foreign := env.tasks.GetTask(ctx, bob.ID, task.ID)
	assert.Equal(t, missing.Error(), foreign.Error())

	got, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
	assert.Equal(t, entities.TaskStatusPending, got.Status)
}

func TestSetStatusIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	task := env.createTask(t, alice.ID, "x")

	first, err := env.tasks.SetStatus(ctx, alice.ID, task.ID, entities.TaskStatusInProgress)
	require.NoError(t, err)
	second, err := env.tasks.SetStatus(ctx, alice.ID, task.ID, entities.TaskStatusInProgress)
	require.NoError(t, err)

	assert.Equal(t, entities.TaskStatusInProgress, second.Status)
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt))
	assert.True(t, first.UpdatedAt.After(task.UpdatedAt))

	_, err = env.tasks.SetStatus(ctx, alice.ID, task.ID, "finished")
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestAnyStatusTransitionIsAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	task := env.createTask(t, alice.ID, "x")

	sequence := []entities.TaskStatus{
		entities.TaskStatusArchived,
		entities.TaskStatusPending,
		entities.TaskStatusCompleted,
		entities.TaskStatusInProgress,
		entities.TaskStatusArchived,
		entities.TaskStatusCompleted,
	}
	for _, status := range sequence {
		got, err := env.tasks.SetStatus(ctx, alice.ID, task.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}
}

func TestUpdateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	work, err := env.categories.CreateCategory(ctx, alice.ID, ports.CreateCategoryRequest{Name: "Work"})
	require.NoError(t, err)
	a, err := env.tags.CreateTag(ctx, alice.ID, ports.CreateTagRequest{Name: "a"})
	require.NoError(t, err)
	b, err := env.tags.CreateTag(ctx, alice.ID, ports.CreateTagRequest{Name: "b"})
	require.NoError(t, err)

	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	task, err := env.tasks.CreateTask(ctx, alice.ID, ports.CreateTaskRequest{
		Title:       "draft",
		Description: ptr("first pass"),
		DueDate:     &due,
		CategoryID:  &work.ID,
		TagIDs:      []int64{a.ID},
	})
	require.NoError(t, err)

	updated, err := env.tasks.UpdateTask(ctx, alice.ID, task.ID, ports.UpdateTaskRequest{
		Title:    ptr("final"),
		Priority: ptr(entities.PriorityUrgent),
		TagIDs:   &[]int64{b.ID, a.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, entities.PriorityUrgent, updated.Priority)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "first pass", *updated.Description)
	assert.Equal(t, []int64{a.ID, b.ID}, updated.TagIDs())
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))

	cleared, err := env.tasks.UpdateTask(ctx, alice.ID, task.ID, ports.UpdateTaskRequest{
		ClearDescription: true,
		ClearDueDate:     true,
		ClearCategory:    true,
		TagIDs:           &[]int64{},
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Nil(t, cleared.DueDate)
	assert.Nil(t, cleared.CategoryID)
	assert.Nil(t, cleared.Category)
	assert.Empty(t, cleared.Tags)
	assert.Equal(t, "final", cleared.Title)

	_, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, ports.UpdateTaskRequest{ClearCategory: true, CategoryID: &work.ID})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestUpdateTaskIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	task := env.createTask(t, alice.ID, "original")

	_, err := env.tasks.UpdateTask(ctx, alice.ID, task.ID, ports.UpdateTaskRequest{
		Title:  ptr("changed"),
		TagIDs: &[]int64{31337},
	})
	assert.ErrorIs(t, err, entities.ErrValidation)

	got, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
	assert.True(t, task.UpdatedAt.Equal(got.UpdatedAt))
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	task := env.createTask(t, alice.ID, "x")

	require.NoError(t, env.tasks.DeleteTask(ctx, alice.ID, task.ID))
	_, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, alice.ID, task.ID), entities.ErrTaskNotFound)
}

func TestListTasksPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	for i := 0; i < 5; i++ {
		env.createTask(t, alice.ID, "task")
	}

	query := ports.NewTaskListQuery()
	query.PageSize = 2
	query.Page = 3
	page, err := env.tasks.ListTasks(ctx, alice.ID, query)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 1)

	query.Page = 4
	page, err = env.tasks.ListTasks(ctx, alice.ID, query)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)

	query.Page = ports.MaxPage
	query.PageSize = ports.MaxPageSize
	page, err = env.tasks.ListTasks(ctx, alice.ID, query)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(5), page.Total)

	invalid := []ports.TaskListQuery{
		{Page: 0, PageSize: 20},
		{Page: ports.MaxPage + 1, PageSize: 20},
		{Page: 1 << 62, PageSize: ports.MaxPageSize},
		{Page: 1, PageSize: 0},
		{Page: 1, PageSize: 101},
		{Page: 1, PageSize: 20, Status: "done"},
		{Page: 1, PageSize: 20, CategoryID: -1},
	}
	for _, q := range invalid {
		_, err := env.tasks.ListTasks(ctx, alice.ID, q)
		assert.ErrorIs(t, err, entities.ErrValidation, "%+v", q)
	}

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	query = ports.NewTaskListQuery()
	query.DueFrom, query.DueTo = &from, &to
	_, err = env.tasks.ListTasks(ctx, alice.ID, query)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestListTasksFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	home, err := env.categories.CreateCategory(ctx, alice.ID, ports.CreateCategoryRequest{Name: "Home"})
	require.NoError(t, err)
	tag, err := env.tags.CreateTag(ctx, alice.ID, ports.CreateTagRequest{Name: "easy"})
	require.NoError(t, err)

	groceries, err := env.tasks.CreateTask(ctx, alice.ID, ports.CreateTaskRequest{
		Title: "Buy Groceries", CategoryID: &home.ID, TagIDs: []int64{tag.ID},
	})
	require.NoError(t, err)
	env.createTask(t, alice.ID, "Call plumber")
	env.createTask(t, bob.ID, "Buy groceries too")

	query := ports.NewTaskListQuery()
	query.Search = "groceries"
	page, err := env.tasks.ListTasks(ctx, alice.ID, query)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, groceries.ID, page.Items[0].ID)

	query = ports.NewTaskListQuery()
	query.CategoryID = home.ID
	query.TagID = tag.ID
	page, err = env.tasks.ListTasks(ctx, alice.ID, query)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = env.tasks.ListTasks(ctx, alice.ID, ports.NewTaskListQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "Call plumber", page.Items[0].Title)

	meeting := env.createTask(t, alice.ID, "Équipe meeting")
	for _, search := range []string{"Équipe", "équipe", "ÉQUIPE MEET"} {
		query = ports.NewTaskListQuery()
		query.Search = search
		page, err = env.tasks.ListTasks(ctx, alice.ID, query)
		require.NoError(t, err)
		require.Len(t, page.Items, 1, search)
		assert.Equal(t, meeting.ID, page.Items[0].ID)
	}
}

func TestStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")

	stats, err := env.tasks.Statistics(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionRatio)
	assert.Len(t, stats.ByStatus, 4)
	assert.Len(t, stats.ByPriority, 4)
	for _, n := range stats.ByStatus {
		assert.Zero(t, n)
	}

	env.createTask(t, alice.ID, "a")
	env.createTask(t, alice.ID, "b")
	done := env.createTask(t, alice.ID, "c")
	_, err = env.tasks.SetStatus(ctx, alice.ID, done.ID, entities.TaskStatusCompleted)
	require.NoError(t, err)

	stats, err = env.tasks.Statistics(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.InDelta(t, 1.0/3.0, stats.CompletionRatio, 1e-9)
	assert.Equal(t, 33.33, stats.CompletionRate)
	assert.Equal(t, int64(2), stats.ByStatus[entities.TaskStatusPending])
	assert.Equal(t, int64(3), stats.ByPriority[entities.PriorityMedium])
	assert.Zero(t, stats.ByPriority[entities.PriorityUrgent])
}

func TestUniqueIDs(t *testing.T) {
	assert.Nil(t, uniqueIDs(nil))
	assert.Equal(t, []int64{3, 1, 2}, uniqueIDs([]int64{3, 1, 3, 2, 1}))
}
