package http

import (
	"net/http"
	"strconv"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/fyrsmithlabs/entityd/internal/store"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// entityRouter implements the generic CRUD surface for one entity kind. Every
// kind gets the same list/get/create/update/patch/delete semantics from this
// one implementation, parameterized by the kind and its optional
// required-field validator.
type entityRouter struct {
	kind     entity.Kind
	validate entity.ValidateFunc
	store    store.Store
	logger   *zap.Logger
}

// ListResponse is the envelope for GET /api/<kind>s.
type ListResponse struct {
	Results []entity.Record `json:"results"`
	Total   int             `json:"total"`
}

// handleList searches the kind's namespace. The q and limit parameters are
// reserved; every other non-empty query parameter becomes an equality filter.
func (r *entityRouter) handleList(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	filters := make(map[string]any)
	for key, values := range c.QueryParams() {
		if key == "q" || key == "limit" {
			continue
		}
		if len(values) == 0 || values[0] == "" {
			continue
		}
		filters[key] = values[0]
	}

	result, err := r.store.Search(c.Request().Context(), r.kind, store.SearchOptions{
		Query:   c.QueryParam("q"),
		Filters: filters,
		Limit:   limit,
	})
	if err != nil {
		r.logger.Error("list failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list " + r.kind.Plural()})
	}

	return c.JSON(http.StatusOK, ListResponse{Results: result.Results, Total: result.Total})
}

// handleGet fetches a single entity by ID.
func (r *entityRouter) handleGet(c echo.Context) error {
	rec, err := r.store.Get(c.Request().Context(), r.kind, c.Param("id"))
	if err != nil {
		r.logger.Error("get failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get " + r.kind.String()})
	}
	if rec == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: r.kind.String() + " not found"})
	}
	return c.JSON(http.StatusOK, rec)
}

// handleCreate validates and persists a new entity, generating an ID when the
// caller omitted one.
func (r *entityRouter) handleCreate(c echo.Context) error {
	rec := entity.Record{}
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if rec.Title() == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title is required"})
	}
	if r.validate != nil {
		if err := r.validate(rec); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
	}

	if rec.ID() == "" {
		rec.SetID(entity.NewID(r.kind))
	}

	created, err := r.store.Upsert(c.Request().Context(), r.kind, rec)
	if err != nil {
		r.logger.Error("create failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create " + r.kind.String()})
	}

	return c.JSON(http.StatusCreated, created)
}

// handleUpdate replaces an existing entity. PUT is a true replace: fields
// absent from the body are cleared. The identity fields survive regardless of
// body content: id is forced back to the path parameter and created_at is
// carried over from the existing record.
func (r *entityRouter) handleUpdate(c echo.Context) error {
	id := c.Param("id")

	existing, err := r.store.Get(c.Request().Context(), r.kind, id)
	if err != nil {
		r.logger.Error("update failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update " + r.kind.String()})
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: r.kind.String() + " not found"})
	}

	replacement := entity.Record{}
	if err := c.Bind(&replacement); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if replacement.Title() == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title is required"})
	}
	if r.validate != nil {
		if err := r.validate(replacement); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
	}

	replacement.SetID(id)
	if created, ok := existing[entity.FieldCreatedAt]; ok {
		replacement[entity.FieldCreatedAt] = created
	}

	result, err := r.store.Upsert(c.Request().Context(), r.kind, replacement)
	if err != nil {
		r.logger.Error("update failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update " + r.kind.String()})
	}

	return c.JSON(http.StatusOK, result)
}

// handlePatch merges a partial update onto an existing entity. Fields absent
// from the body are retained; id is forced back to the path parameter.
func (r *entityRouter) handlePatch(c echo.Context) error {
	id := c.Param("id")

	existing, err := r.store.Get(c.Request().Context(), r.kind, id)
	if err != nil {
		r.logger.Error("patch failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update " + r.kind.String()})
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: r.kind.String() + " not found"})
	}

	patch := entity.Record{}
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	updated := existing.Overlay(patch)
	updated.SetID(id)

	result, err := r.store.Upsert(c.Request().Context(), r.kind, updated)
	if err != nil {
		r.logger.Error("patch failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update " + r.kind.String()})
	}

	return c.JSON(http.StatusOK, result)
}

// handleDelete removes an entity. Deleting an absent ID succeeds; the store
// treats it as a no-op, so the caller always sees 204.
func (r *entityRouter) handleDelete(c echo.Context) error {
	if err := r.store.Delete(c.Request().Context(), r.kind, []string{c.Param("id")}); err != nil {
		r.logger.Error("delete failed", zap.String("kind", r.kind.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete " + r.kind.String()})
	}
	return c.NoContent(http.StatusNoContent)
}
