package http

import (
	"net/http"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// The unified entity routes operate on opaque IDs: the kind is resolved from
// the ID prefix, so callers never have to name it.

const invalidIDFormat = "Invalid ID format"

// DeleteResponse is the body for DELETE /api/entities/:id.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Deleted string `json:"deleted"`
	Type    string `json:"type"`
}

// BatchDeleteRequest is the body for POST /api/entities/delete. Either a
// single id or a list may be supplied.
type BatchDeleteRequest struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

// BatchError reports one failed ID in a batch operation.
type BatchError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchDeleteResponse partitions a batch delete into successes and failures.
// Success is true only when every ID was removed.
type BatchDeleteResponse struct {
	Success bool         `json:"success"`
	Deleted []string     `json:"deleted"`
	Errors  []BatchError `json:"errors"`
}

// BatchGetRequest is the body for POST /api/entities/get.
type BatchGetRequest struct {
	IDs []string `json:"ids"`
}

// BatchGetResponse carries the found entities plus per-ID failures.
type BatchGetResponse struct {
	Entities []entity.Record `json:"entities"`
	Errors   []BatchError    `json:"errors"`
}

// handleEntityGet resolves an ID's kind from its prefix and fetches the
// entity. An unresolvable prefix is a client error, distinct from a
// resolvable prefix with an absent record.
func (s *Server) handleEntityGet(c echo.Context) error {
	id := c.Param("id")

	kind, ok := entity.KindFromID(id)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:         invalidIDFormat + ". Expected format: prefix_id (e.g., tsk_abc123)",
			ValidPrefixes: entity.ValidPrefixes(),
		})
	}

	rec, err := s.store.Get(c.Request().Context(), kind, id)
	if err != nil {
		s.logger.Error("entity get failed", zap.String("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get entity"})
	}
	if rec == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "entity not found"})
	}

	return c.JSON(http.StatusOK, rec)
}

// handleEntityDelete resolves an ID's kind and deletes the entity.
func (s *Server) handleEntityDelete(c echo.Context) error {
	id := c.Param("id")

	kind, ok := entity.KindFromID(id)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:         invalidIDFormat + ". Expected format: prefix_id (e.g., tsk_abc123)",
			ValidPrefixes: entity.ValidPrefixes(),
		})
	}

	if err := s.store.Delete(c.Request().Context(), kind, []string{id}); err != nil {
		s.logger.Error("entity delete failed", zap.String("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete entity"})
	}

	return c.JSON(http.StatusOK, DeleteResponse{Success: true, Deleted: id, Type: kind.String()})
}

// handleEntityBatchDelete deletes a set of IDs, each resolved independently.
// A single bad ID never aborts the rest; the response partitions the input
// into deleted IDs and per-ID errors.
func (s *Server) handleEntityBatchDelete(c echo.Context) error {
	var req BatchDeleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	ids := req.IDs
	if len(ids) == 0 && req.ID != "" {
		ids = []string{req.ID}
	}
	if len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id or ids is required"})
	}

	result := BatchDeleteResponse{
		Deleted: []string{},
		Errors:  []BatchError{},
	}

	for _, id := range ids {
		kind, ok := entity.KindFromID(id)
		if !ok {
			result.Errors = append(result.Errors, BatchError{ID: id, Error: invalidIDFormat})
			continue
		}

		if err := s.store.Delete(c.Request().Context(), kind, []string{id}); err != nil {
			s.logger.Error("batch delete failed", zap.String("id", id), zap.Error(err))
			result.Errors = append(result.Errors, BatchError{ID: id, Error: "Delete failed"})
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}

	result.Success = len(result.Errors) == 0
	return c.JSON(http.StatusOK, result)
}

// handleEntityBatchGet fetches a set of IDs, grouped by resolved kind so each
// kind costs one batched store call.
func (s *Server) handleEntityBatchGet(c echo.Context) error {
	var req BatchGetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if len(req.IDs) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "ids is required"})
	}

	result := BatchGetResponse{
		Entities: []entity.Record{},
		Errors:   []BatchError{},
	}

	byKind := make(map[entity.Kind][]string)
	for _, id := range req.IDs {
		kind, ok := entity.KindFromID(id)
		if !ok {
			result.Errors = append(result.Errors, BatchError{ID: id, Error: invalidIDFormat})
			continue
		}
		byKind[kind] = append(byKind[kind], id)
	}

	for kind, ids := range byKind {
		recs, err := s.store.GetMany(c.Request().Context(), kind, ids)
		if err != nil {
			s.logger.Error("batch get failed", zap.String("kind", kind.String()), zap.Error(err))
			for _, id := range ids {
				result.Errors = append(result.Errors, BatchError{ID: id, Error: "Lookup failed"})
			}
			continue
		}
		result.Entities = append(result.Entities, recs...)
	}

	return c.JSON(http.StatusOK, result)
}
