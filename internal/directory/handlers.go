package directory

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Handlers exposes the directory over HTTP, one request per page.
type Handlers struct {
	provider    Provider
	initialPage int
	pageSize    int
}

// NewHandlers creates directory handlers.
func NewHandlers(provider Provider, initialPage, pageSize int) *Handlers {
	return &Handlers{
		provider:    provider,
		initialPage: initialPage,
		pageSize:    pageSize,
	}
}

// RegisterRoutes registers the movie routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
	g.GET("/status", h.GetStatus)
	g.GET("/:id", h.GetByID)
}

// SearchResponse is one page of results with its paging state.
type SearchResponse struct {
	Query          string         `json:"query"`
	Page           int            `json:"page"`
	Results        []SearchResult `json:"results"`
	TotalResults   *int           `json:"totalResults,omitempty"`
	HasMoreContent bool           `json:"hasMoreContent"`
}

// StatusResponse describes the configured provider.
type StatusResponse struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Search returns a single page of matching titles.
// GET /api/v1/movies/search?query=...&page=...
func (h *Handlers) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("query"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}

	page := h.initialPage
	if raw := c.QueryParam("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < h.initialPage {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	result, err := h.provider.Search(c.Request().Context(), query, page)
	if err != nil {
		return httpError(err)
	}

	results := result.Results
	if results == nil {
		results = []SearchResult{}
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Query:          query,
		Page:           page,
		Results:        results,
		TotalResults:   result.TotalResults,
		HasMoreContent: HasMoreContent(page, h.pageSize, len(results), result.TotalResults),
	})
}

// GetByID returns the full record for an IMDb identifier.
// GET /api/v1/movies/:id
func (h *Handlers) GetByID(c echo.Context) error {
	id := c.Param("id")
	if !strings.HasPrefix(id, "tt") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	record, err := h.provider.FetchByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetStatus reports which provider is active.
// GET /api/v1/movies/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Name:       h.provider.Name(),
		Configured: h.provider.IsConfigured(),
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "movie directory is not configured")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "title not found")
	}
	if _, ok := KindOf(err); ok {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
