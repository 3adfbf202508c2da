package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"github.com/fyrsmithlabs/entityd/internal/search"
	"github.com/fyrsmithlabs/entityd/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory store.Store for handler tests. Search serves
// canned per-kind results; everything else works off the records map.
type fakeStore struct {
	mu            sync.Mutex
	records       map[entity.Kind]map[string]entity.Record
	searchResults map[entity.Kind][]entity.Record
	searchErr     map[entity.Kind]error
	deleteErr     map[string]error
	stats         map[entity.Kind]store.Stats
	lastSearch    store.SearchOptions
	deleted       []string
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:       make(map[entity.Kind]map[string]entity.Record),
		searchResults: make(map[entity.Kind][]entity.Record),
		searchErr:     make(map[entity.Kind]error),
		deleteErr:     make(map[string]error),
		stats:         make(map[entity.Kind]store.Stats),
	}
}

func (f *fakeStore) seed(kind entity.Kind, rec entity.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records[kind] == nil {
		f.records[kind] = make(map[string]entity.Record)
	}
	f.records[kind][rec.ID()] = rec.Clone()
}

func (f *fakeStore) Upsert(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	f.seed(kind, rec)
	return rec, nil
}

func (f *fakeStore) Get(ctx context.Context, kind entity.Kind, id string) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[kind][id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (f *fakeStore) GetMany(ctx context.Context, kind entity.Kind, ids []string) ([]entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Record
	for _, id := range ids {
		if rec, ok := f.records[kind][id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, kind entity.Kind, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if err := f.deleteErr[id]; err != nil {
			return err
		}
	}
	for _, id := range ids {
		delete(f.records[kind], id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

func (f *fakeStore) Search(ctx context.Context, kind entity.Kind, opts store.SearchOptions) (*store.SearchResult, error) {
	f.mu.Lock()
	f.lastSearch = opts
	f.mu.Unlock()

	if err := f.searchErr[kind]; err != nil {
		return nil, err
	}
	results := f.searchResults[kind]
	return &store.SearchResult{Results: results, Total: len(results)}, nil
}

func (f *fakeStore) Stats(ctx context.Context, kind entity.Kind) (*store.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stats[kind]
	return &store.Stats{Total: s.Total, HasData: s.HasData}, nil
}

func newTestServer(t *testing.T, fs *fakeStore) *Server {
	t.Helper()

	agg, err := search.NewAggregator(fs, zap.NewNop())
	require.NoError(t, err)

	srv, err := NewServer(fs, agg, zap.NewNop(), nil)
	require.NoError(t, err)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	fs := newFakeStore()
	agg, err := search.NewAggregator(fs, zap.NewNop())
	require.NoError(t, err)

	t.Run("requires collaborators", func(t *testing.T) {
		_, err := NewServer(nil, agg, zap.NewNop(), nil)
		assert.Error(t, err)

		_, err = NewServer(fs, nil, zap.NewNop(), nil)
		assert.Error(t, err)

		_, err = NewServer(fs, agg, nil, nil)
		assert.Error(t, err)
	})

	t.Run("defaults the listen config", func(t *testing.T) {
		srv, err := NewServer(fs, agg, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", srv.config.Host)
		assert.Equal(t, 8080, srv.config.Port)
	})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "ok", body.Status)
}
