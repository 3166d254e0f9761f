// Package index provides the vector index client, a stateless translator to
// the Qdrant HTTP API. It owns no data, only the wire contract, which keeps
// the orchestrator independent of the similarity metric and storage engine
// behind the service.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newsrag/newsrag/internal/log"
)

var (
	// ErrWrite indicates the index service rejected a write (schema or
	// dimensionality mismatch, network failure, timeout).
	ErrWrite = errors.New("index write failed")

	// ErrQuery indicates a similarity search failed.
	ErrQuery = errors.New("index query failed")
)

// DefaultTimeout is the fixed client-side timeout for index calls.
const DefaultTimeout = 10 * time.Second

// Client talks to one collection of a Qdrant instance.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	logger     log.Logger
}

// New creates a Client for the given base URL and collection name.
// A non-positive timeout falls back to DefaultTimeout.
func New(baseURL, collection string, timeout time.Duration, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Collection returns the collection name this client writes to.
func (c *Client) Collection() string {
	return c.collection
}

// EnsureCollection creates the collection with the given vector
// dimensionality if it does not exist yet. Existing collections are left
// untouched, so the call is safe to repeat before every ingestion.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	var status struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodGet, c.collectionPath(""), nil, &status)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return fmt.Errorf("%w: checking collection %q: %w", ErrWrite, c.collection, err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := c.do(ctx, http.MethodPut, c.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("%w: creating collection %q: %w", ErrWrite, c.collection, err)
	}
	c.logger.Info("created collection", "collection", c.collection, "dimension", dim)
	return nil
}

// Upsert writes the whole batch of points in one call, waiting for the
// service to acknowledge it. There are no partial-success semantics: on
// error the caller must not assume any subset was written.
func (c *Client) Upsert(ctx context.Context, points []Point) (*UpsertResult, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty point batch", ErrWrite)
	}

	var resp struct {
		Result UpsertResult `json:"result"`
	}
	body := map[string]any{"points": points}
	if err := c.do(ctx, http.MethodPut, c.collectionPath("/points?wait=true"), body, &resp); err != nil {
		return nil, fmt.Errorf("%w: upserting %d points: %w", ErrWrite, len(points), err)
	}

	c.logger.Debug("upserted points", "collection", c.collection, "count", len(points), "status", resp.Result.Status)
	return &resp.Result, nil
}

// Search returns the limit nearest points to vector, similarity-descending,
// with payloads included so each hit carries its original document.
func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrQuery, limit)
	}

	var resp struct {
		Result []ScoredPoint `json:"result"`
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if err := c.do(ctx, http.MethodPost, c.collectionPath("/points/search"), body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return resp.Result, nil
}

// errNotFound marks a 404 from the service, used by EnsureCollection.
var errNotFound = errors.New("not found")

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(c.collection) + suffix
}

// do executes one JSON request against the index service and decodes the
// response into result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The service explains rejections in the body; keep it for the log.
		c.logger.Warn("index service error", "method", method, "path", path,
			"status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("index service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}
