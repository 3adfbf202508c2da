package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	t.Run("generates an id when the caller omits one", func(t *testing.T) {
		fs := newFakeStore()
		srv := newTestServer(t, fs)

		rec := doRequest(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "buy milk"})
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody[entity.Record](t, rec)
		assert.True(t, strings.HasPrefix(body.ID(), "tsk_"), "got id %q", body.ID())
		assert.Equal(t, "buy milk", body.Title())
	})

	t.Run("keeps a caller-supplied id", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		rec := doRequest(t, srv, http.MethodPost, "/api/tasks", map[string]any{
			"id":    "tsk_custom",
			"title": "buy milk",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "tsk_custom", decodeBody[entity.Record](t, rec).ID())
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		rec := doRequest(t, srv, http.MethodPost, "/api/tasks", map[string]any{"description": "no title"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "title is required", decodeBody[ErrorResponse](t, rec).Error)
	})

	t.Run("enforces per-kind required fields", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		rec := doRequest(t, srv, http.MethodPost, "/api/events", map[string]any{"title": "dentist"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "start_time is required for events", decodeBody[ErrorResponse](t, rec).Error)

		rec = doRequest(t, srv, http.MethodPost, "/api/reminders", map[string]any{"title": "call mom"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "remind_at is required for reminders", decodeBody[ErrorResponse](t, rec).Error)
	})

	t.Run("every creatable kind has a route", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		for _, kind := range entity.Kinds() {
			body := map[string]any{"title": "x", "start_time": "soon", "remind_at": "soon"}
			rec := doRequest(t, srv, http.MethodPost, "/api/"+kind.Plural(), body)
			assert.Equal(t, http.StatusCreated, rec.Code, "kind %s", kind)
		}
	})
}

func TestGetByID(t *testing.T) {
	fs := newFakeStore()
	fs.seed(entity.KindTask, entity.Record{"id": "tsk_1", "title": "buy milk"})
	srv := newTestServer(t, fs)

	t.Run("returns the record", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/tasks/tsk_1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "buy milk", decodeBody[entity.Record](t, rec).Title())
	})

	t.Run("absent id is a 404, not an error", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/tasks/tsk_missing", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "task not found", decodeBody[ErrorResponse](t, rec).Error)
	})
}

func TestList(t *testing.T) {
	fs := newFakeStore()
	fs.searchResults[entity.KindTask] = []entity.Record{
		{"id": "tsk_1", "title": "buy milk"},
		{"id": "tsk_2", "title": "walk dog"},
	}
	srv := newTestServer(t, fs)

	rec := doRequest(t, srv, http.MethodGet, "/api/tasks?q=milk&status=pending&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[ListResponse](t, rec)
	assert.Len(t, body.Results, 2)
	assert.Equal(t, 2, body.Total)

	assert.Equal(t, "milk", fs.lastSearch.Query)
	assert.Equal(t, 5, fs.lastSearch.Limit)
	assert.Equal(t, map[string]any{"status": "pending"}, fs.lastSearch.Filters,
		"q and limit are reserved, the rest become filters")
}

func TestUpdate(t *testing.T) {
	t.Run("replaces the record wholesale", func(t *testing.T) {
		fs := newFakeStore()
		fs.seed(entity.KindTask, entity.Record{
			"id":          "tsk_1",
			"title":       "buy milk",
			"description": "whole",
			"created_at":  "2024-01-01T00:00:00Z",
		})
		srv := newTestServer(t, fs)

		rec := doRequest(t, srv, http.MethodPut, "/api/tasks/tsk_1", map[string]any{
			"id":    "tsk_forged",
			"title": "buy oat milk",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[entity.Record](t, rec)
		assert.Equal(t, "tsk_1", body.ID(), "the path id wins over the body id")
		assert.Equal(t, "buy oat milk", body.Title())
		assert.Equal(t, "2024-01-01T00:00:00Z", body["created_at"], "creation time survives a replace")
		assert.NotContains(t, body, "description", "fields absent from the body are cleared")
	})

	t.Run("absent id is a 404", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		rec := doRequest(t, srv, http.MethodPut, "/api/tasks/tsk_missing", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("replacement must validate like a create", func(t *testing.T) {
		fs := newFakeStore()
		fs.seed(entity.KindEvent, entity.Record{"id": "evt_1", "title": "dentist", "start_time": "soon"})
		srv := newTestServer(t, fs)

		rec := doRequest(t, srv, http.MethodPut, "/api/events/evt_1", map[string]any{"title": "dentist"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "start_time is required for events", decodeBody[ErrorResponse](t, rec).Error)
	})
}

func TestPatch(t *testing.T) {
	t.Run("merges onto the existing record", func(t *testing.T) {
		fs := newFakeStore()
		fs.seed(entity.KindTask, entity.Record{
			"id":     "tsk_1",
			"title":  "buy milk",
			"status": "pending",
		})
		srv := newTestServer(t, fs)

		rec := doRequest(t, srv, http.MethodPatch, "/api/tasks/tsk_1", map[string]any{"status": "completed"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[entity.Record](t, rec)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "buy milk", body.Title(), "fields absent from the patch are retained")
	})

	t.Run("absent id is a 404", func(t *testing.T) {
		srv := newTestServer(t, newFakeStore())

		rec := doRequest(t, srv, http.MethodPatch, "/api/tasks/tsk_missing", map[string]any{"status": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteByID(t *testing.T) {
	fs := newFakeStore()
	fs.seed(entity.KindTask, entity.Record{"id": "tsk_1", "title": "buy milk"})
	srv := newTestServer(t, fs)

	rec := doRequest(t, srv, http.MethodDelete, "/api/tasks/tsk_1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, fs.deleted, "tsk_1")

	t.Run("deleting an absent id still succeeds", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/tasks/tsk_missing", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
