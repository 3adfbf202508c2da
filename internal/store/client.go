package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fyrsmithlabs/entityd/internal/entity"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 10
	defaultSearchMode  = "hybrid"
)

// Config holds configuration for the store client.
type Config struct {
	// BaseURL is the base URL of the vector store API.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// IndexPrefix namespaces every collection, e.g. "assistant_" turns the
	// tasks namespace into "assistant_tasks".
	IndexPrefix string

	// Timeout bounds each request to the store.
	Timeout time.Duration
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// Client talks to the external vector store over HTTP. It is stateless apart
// from its immutable configuration and safe for concurrent use.
type Client struct {
	config  Config
	client  *http.Client
	metrics *Metrics
}

var _ Store = (*Client)(nil)

// NewClient creates a store client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: NewMetrics(zap.NewNop()),
	}, nil
}

// Index returns the store namespace for a kind: the configured prefix plus
// the kind's canonical plural noun.
func (c *Client) Index(kind entity.Kind) string {
	return c.config.IndexPrefix + kind.Plural()
}

// deleteRequest is the body for DELETE /product.
type deleteRequest struct {
	Index string   `json:"index"`
	IDs   []string `json:"ids"`
}

// searchRequest is the body for POST /search.
type searchRequest struct {
	Index   string         `json:"index"`
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters,omitempty"`
	Limit   int            `json:"limit"`
	Type    string         `json:"type"`
}

// searchResponse is the body of a successful POST /search.
type searchResponse struct {
	Results []entity.Record `json:"results"`
	Total   int             `json:"total"`
}

// statsResponse is the body of a successful GET /stats/:index.
type statsResponse struct {
	TotalProducts int  `json:"total_products"`
	HasData       bool `json:"has_data"`
}

// Upsert writes rec under kind's namespace. It stamps updated_at with the
// current time and created_at on first persistence; subsequent writes carry
// the original created_at through unchanged.
func (c *Client) Upsert(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	start := time.Now()
	var opErr error
	defer func() {
		c.metrics.RecordRequest(ctx, "upsert", kind, time.Since(start), opErr)
	}()

	now := time.Now().UTC().Format(time.RFC3339)

	persisted := rec.Clone()
	persisted[entity.FieldUpdatedAt] = now
	if s, _ := persisted[entity.FieldCreatedAt].(string); s == "" {
		persisted[entity.FieldCreatedAt] = now
	}
	persisted[entity.FieldEntityType] = kind.String()

	payload := persisted.Clone()
	payload["index"] = c.Index(kind)

	body, err := json.Marshal(payload)
	if err != nil {
		opErr = fmt.Errorf("marshaling entity: %w", err)
		return nil, opErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/product", bytes.NewReader(body))
	if err != nil {
		opErr = fmt.Errorf("creating request: %w", err)
		return nil, opErr
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrWriteFailed, err)
		return nil, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("%w: status %d: %s", ErrWriteFailed, resp.StatusCode, string(respBody))
		return nil, opErr
	}

	return persisted, nil
}

// Get fetches one record by ID within kind's namespace. A not-found response
// from the store maps to (nil, nil).
func (c *Client) Get(ctx context.Context, kind entity.Kind, id string) (entity.Record, error) {
	recs, err := c.fetch(ctx, kind, id)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

// GetMany fetches a batch of records by ID. Empty input yields an empty
// slice without a network call.
func (c *Client) GetMany(ctx context.Context, kind entity.Kind, ids []string) ([]entity.Record, error) {
	if len(ids) == 0 {
		return []entity.Record{}, nil
	}
	return c.fetch(ctx, kind, strings.Join(ids, ","))
}

// fetch issues GET /product and normalizes the response to a slice: the
// store returns a single object for one ID and an array for several.
func (c *Client) fetch(ctx context.Context, kind entity.Kind, idParam string) ([]entity.Record, error) {
	start := time.Now()
	var opErr error
	defer func() {
		c.metrics.RecordRequest(ctx, "get", kind, time.Since(start), opErr)
	}()

	params := url.Values{}
	params.Set("index", c.Index(kind))
	params.Set("id", idParam)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/product?"+params.Encode(), nil)
	if err != nil {
		opErr = fmt.Errorf("creating request: %w", err)
		return nil, opErr
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrReadFailed, err)
		return nil, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("%w: status %d: %s", ErrReadFailed, resp.StatusCode, string(respBody))
		return nil, opErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		opErr = fmt.Errorf("reading response: %w", err)
		return nil, opErr
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var recs []entity.Record
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			opErr = fmt.Errorf("decoding response: %w", err)
			return nil, opErr
		}
		return recs, nil
	}

	var rec entity.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		opErr = fmt.Errorf("decoding response: %w", err)
		return nil, opErr
	}
	return []entity.Record{rec}, nil
}

// Delete removes records by ID from kind's namespace. The store treats
// deleting an absent ID as success, so the operation is idempotent from the
// caller's perspective.
func (c *Client) Delete(ctx context.Context, kind entity.Kind, ids []string) error {
	start := time.Now()
	var opErr error
	defer func() {
		c.metrics.RecordRequest(ctx, "delete", kind, time.Since(start), opErr)
	}()

	body, err := json.Marshal(deleteRequest{Index: c.Index(kind), IDs: ids})
	if err != nil {
		opErr = fmt.Errorf("marshaling request: %w", err)
		return opErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.config.BaseURL+"/product", bytes.NewReader(body))
	if err != nil {
		opErr = fmt.Errorf("creating request: %w", err)
		return opErr
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrDeleteFailed, err)
		return opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("%w: status %d: %s", ErrDeleteFailed, resp.StatusCode, string(respBody))
		return opErr
	}

	return nil
}

// Search issues one ranked query scoped to kind's namespace. The query text
// is lower-cased here, and only here, before transmission. An entity_type
// equality filter is always merged in as a second line of isolation beyond
// the namespace itself.
func (c *Client) Search(ctx context.Context, kind entity.Kind, opts SearchOptions) (*SearchResult, error) {
	start := time.Now()
	var opErr error
	defer func() {
		c.metrics.RecordRequest(ctx, "search", kind, time.Since(start), opErr)
	}()

	filters := make(map[string]any, len(opts.Filters)+1)
	for k, v := range opts.Filters {
		filters[k] = v
	}
	filters[entity.FieldEntityType] = kind.String()

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	mode := opts.Mode
	if mode == "" {
		mode = defaultSearchMode
	}

	body, err := json.Marshal(searchRequest{
		Index:   c.Index(kind),
		Query:   strings.ToLower(opts.Query),
		Filters: filters,
		Limit:   limit,
		Type:    mode,
	})
	if err != nil {
		opErr = fmt.Errorf("marshaling request: %w", err)
		return nil, opErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		opErr = fmt.Errorf("creating request: %w", err)
		return nil, opErr
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrSearchFailed, err)
		return nil, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		opErr = fmt.Errorf("%w: status %d: %s", ErrSearchFailed, resp.StatusCode, string(respBody))
		return nil, opErr
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		opErr = fmt.Errorf("decoding response: %w", err)
		return nil, opErr
	}

	total := data.Total
	if total == 0 {
		total = len(data.Results)
	}
	return &SearchResult{Results: data.Results, Total: total}, nil
}

// Stats reports the size of kind's namespace. Any non-2xx response is
// treated as "namespace does not exist yet" and reports zeros.
func (c *Client) Stats(ctx context.Context, kind entity.Kind) (*Stats, error) {
	start := time.Now()
	var opErr error
	defer func() {
		c.metrics.RecordRequest(ctx, "stats", kind, time.Since(start), opErr)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/stats/"+url.PathEscape(c.Index(kind)), nil)
	if err != nil {
		opErr = fmt.Errorf("creating request: %w", err)
		return nil, opErr
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		opErr = fmt.Errorf("%w: %v", ErrReadFailed, err)
		return nil, opErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Stats{}, nil
	}

	var data statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		opErr = fmt.Errorf("decoding response: %w", err)
		return nil, opErr
	}

	return &Stats{Total: data.TotalProducts, HasData: data.HasData}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}
