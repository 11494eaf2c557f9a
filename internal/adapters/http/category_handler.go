package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService ports.CategoryService
	logger          *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService ports.CategoryService, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} entities.Category
// @Security BearerAuth
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, categories)
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body ports.CreateCategoryRequest true "Category data"
// @Success 201 {object} entities.Category
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req ports.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, category)
}

// GetCategory godoc
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path int true "Category id"
// @Success 200 {object} entities.Category
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	category, err := h.categoryService.GetCategory(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, category)
}

// UpdateCategory godoc
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path int true "Category id"
// @Param request body ports.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} entities.Category
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), getUserIDFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Tasks in the category are kept and lose their category.
// @Tags categories
// @Param id path int true "Category id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
