package health

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// TestFunc checks one item.
type TestFunc func(ctx context.Context) error

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
	tests  map[HealthCategory]map[string]TestFunc
}

// NewHandlers creates health handlers.
func NewHandlers(health *Service) *Handlers {
	return &Handlers{
		health: health,
		tests:  make(map[HealthCategory]map[string]TestFunc),
	}
}

// SetTest makes the item testable through the API.
func (h *Handlers) SetTest(category HealthCategory, id string, fn TestFunc) {
	if h.tests[category] == nil {
		h.tests[category] = make(map[string]TestFunc)
	}
	h.tests[category][id] = fn
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/summary", h.GetSummary)
	g.GET("/:category", h.GetByCategory)
	g.POST("/:category/:id/test", h.TestItem)
}

// GetAll returns all health items grouped by category.
// GET /api/v1/system/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetAll())
}

// GetSummary returns summary counts.
// GET /api/v1/system/health/summary
func (h *Handlers) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.health.GetSummary())
}

// GetByCategory returns health items for a specific category.
// GET /api/v1/system/health/:category
func (h *Handlers) GetByCategory(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	if !IsValidCategory(category) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health category")
	}
	return c.JSON(http.StatusOK, h.health.GetAll()[category])
}

// TestItem runs the check for one item and returns its new state.
// POST /api/v1/system/health/:category/:id/test
func (h *Handlers) TestItem(c echo.Context) error {
	category := HealthCategory(c.Param("category"))
	id := c.Param("id")

	if h.health.GetItem(category, id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "health item not found")
	}
	test, ok := h.tests[category][id]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "item cannot be tested")
	}

	err := h.health.Check(c.Request().Context(), category, id, test)
	result := map[string]any{
		"id":      id,
		"success": err == nil,
		"message": "Connection verified",
	}
	if err != nil {
		result["message"] = err.Error()
	}
	return c.JSON(http.StatusOK, result)
}
