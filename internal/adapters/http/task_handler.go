package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// TaskPage is a page of tasks
type TaskPage = ports.Page[*entities.Task]

// ListTasks godoc
// @Summary List tasks
// @Description Filtered, paginated listing of the caller's tasks, newest first
// @Tags tasks
// @Produce json
// @Param status query string false "pending, in_progress, completed or archived"
// @Param priority query string false "low, medium, high or urgent"
// @Param category_id query int false "Category id"
// @Param tag_id query int false "Tag id"
// @Param due_from query string false "RFC 3339 timestamp or YYYY-MM-DD"
// @Param due_to query string false "RFC 3339 timestamp or YYYY-MM-DD"
// @Param search query string false "Case-insensitive title substring"
// @Param page query int false "Page number" default(1) maximum(1000000)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} TaskPage
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	query := ports.NewTaskListQuery()

	err := echo.QueryParamsBinder(c).
		String("status", (*string)(&query.Status)).
		String("priority", (*string)(&query.Priority)).
		Int64("category_id", &query.CategoryID).
		Int64("tag_id", &query.TagID).
		String("search", &query.Search).
		Int("page", &query.Page).
		Int("page_size", &query.PageSize).
		BindError()
	if err != nil {
		return bindError(err)
	}

	if query.DueFrom, err = parseDateParam(c, "due_from", false); err != nil {
		return err
	}
	if query.DueTo, err = parseDateParam(c, "due_to", true); err != nil {
		return err
	}

	page, err := h.taskService.ListTasks(c.Request().Context(), getUserIDFromContext(c), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// GetStatistics godoc
// @Summary Task statistics
// @Description Counts by status and priority plus the completion ratio
// @Tags tasks
// @Produce json
// @Success 200 {object} entities.TaskStatistics
// @Security BearerAuth
// @Router /tasks/statistics [get]
func (h *TaskHandler) GetStatistics(c echo.Context) error {
	stats, err := h.taskService.Statistics(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Param id path int true "Task id"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Partial update. clear_* flags null the matching field; tag_ids replaces the tag set.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task id"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// SetStatus godoc
// @Summary Change a task's status
// @Description Any status may follow any other. Repeating the current status is a no-op.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task id"
// @Param request body ports.SetStatusRequest true "New status"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) SetStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ports.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.SetStatus(c.Request().Context(), getUserIDFromContext(c), id, req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Param id path int true "Task id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// parseDateParam reads an optional RFC 3339 timestamp or a plain date. A
// plain date used as an upper bound covers the whole day.
func parseDateParam(c echo.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, entities.NewValidationError(name, "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}
