package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/fyrsmithlabs/entityd/internal/search"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SearchRequest is the body for POST /api/search. Webhook callers are loose
// with their payloads, so types accepts an array or a comma-separated string,
// limit accepts a number or a numeric string, and filters accepts an object
// or a JSON-encoded string.
type SearchRequest struct {
	Query      string          `json:"query"`
	Types      json.RawMessage `json:"types"`
	Filters    json.RawMessage `json:"filters"`
	Limit      json.RawMessage `json:"limit"`
	SearchType string          `json:"search_type"`
}

// handleSearch runs a unified search across the requested kinds.
func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
	}

	filters, err := parseFilters(req.Filters)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid filters"})
	}

	resp, err := s.aggregator.Search(c.Request().Context(), search.Request{
		Query:   req.Query,
		Kinds:   parseTypes(req.Types),
		Filters: filters,
		Limit:   parseLimit(req.Limit),
		Mode:    req.SearchType,
	})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "query is required"})
		}
		s.logger.Error("search failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Search failed"})
	}

	return c.JSON(http.StatusOK, resp)
}

// handleSearchQuery is the read-only query-string form of unified search for
// trivial callers: no filters, default ranking mode.
func (s *Server) handleSearchQuery(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "q (query) parameter is required"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	resp, err := s.aggregator.Search(c.Request().Context(), search.Request{
		Query: q,
		Kinds: splitTypes(c.QueryParam("types")),
		Limit: limit,
	})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "q (query) parameter is required"})
		}
		s.logger.Error("search failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Search failed"})
	}

	return c.JSON(http.StatusOK, resp)
}

// KindStats is one kind's namespace statistics.
type KindStats struct {
	Total   int  `json:"total"`
	HasData bool `json:"has_data"`
}

// StatsResponse is the body for GET /api/stats.
type StatsResponse struct {
	Kinds map[string]KindStats `json:"kinds"`
	Total int                  `json:"total"`
}

// handleStats reports per-kind namespace sizes. Best-effort: a kind whose
// namespace has never been written reports zeros.
func (s *Server) handleStats(c echo.Context) error {
	resp := StatsResponse{Kinds: make(map[string]KindStats)}

	for _, kind := range entity.SearchKinds() {
		stats, err := s.store.Stats(c.Request().Context(), kind)
		if err != nil {
			s.logger.Warn("stats failed", zap.String("kind", kind.String()), zap.Error(err))
			resp.Kinds[kind.String()] = KindStats{}
			continue
		}
		resp.Kinds[kind.String()] = KindStats{Total: stats.Total, HasData: stats.HasData}
		resp.Total += stats.Total
	}

	return c.JSON(http.StatusOK, resp)
}

// parseTypes accepts a JSON array of strings or a comma-separated string.
func parseTypes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return splitTypes(s)
	}

	return nil
}

// splitTypes splits a comma-separated kind list, trimming whitespace.
func splitTypes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseLimit accepts a JSON number or a numeric string. Anything else means
// "use the default".
func parseLimit(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.Atoi(s); err == nil {
			return parsed
		}
	}

	return 0
}

// parseFilters accepts a JSON object or a JSON-encoded object string.
func parseFilters(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var filters map[string]any
	if err := json.Unmarshal(raw, &filters); err == nil {
		return filters, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &filters); err != nil {
		return nil, err
	}
	return filters, nil
}
