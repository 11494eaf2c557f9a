package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// TagHandler handles tag-related requests
type TagHandler struct {
	tagService ports.TagService
	logger     *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService ports.TagService, logger *logger.Logger) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		logger:     logger,
	}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} entities.Tag
// @Security BearerAuth
// @Router /tags [get]
func (h *TagHandler) ListTags(c echo.Context) error {
	tags, err := h.tagService.ListTags(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tags)
}

// CreateTag godoc
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param request body ports.CreateTagRequest true "Tag data"
// @Success 201 {object} entities.Tag
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /tags [post]
func (h *TagHandler) CreateTag(c echo.Context) error {
	var req ports.CreateTagRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	tag, err := h.tagService.CreateTag(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, tag)
}

// GetTag godoc
// @Summary Get a tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag id"
// @Success 200 {object} entities.Tag
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tags/{id} [get]
func (h *TagHandler) GetTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	tag, err := h.tagService.GetTag(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tag)
}

// UpdateTag godoc
// @Summary Update a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "Tag id"
// @Param request body ports.UpdateTagRequest true "Fields to change"
// @Success 200 {object} entities.Tag
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /tags/{id} [put]
func (h *TagHandler) UpdateTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTagRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	tag, err := h.tagService.UpdateTag(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag godoc
// @Summary Delete a tag
// @Description The tag is detached from every task that carried it.
// @Tags tags
// @Param id path int true "Tag id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.tagService.DeleteTag(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
