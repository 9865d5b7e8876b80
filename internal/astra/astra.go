// Package astra is a minimal client for the Astra DB Data API (JSON over
// HTTP). It covers the document commands the integration packages need:
// collection management, insert, find with vector sort, and delete.
// Reference: https://docs.datastax.com/en/astra-db-serverless/api-reference/
package astra

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/internal/httputil"
)

const (
	// EndpointEnv holds the database API endpoint, e.g.
	// https://<id>-<region>.apps.astra.datastax.com
	EndpointEnv = "ASTRA_DB_API_ENDPOINT"

	// TokenEnv holds the application token (AstraCS:...).
	TokenEnv = "ASTRA_DB_APPLICATION_TOKEN"

	// KeyspaceEnv optionally overrides the keyspace.
	KeyspaceEnv = "ASTRA_DB_KEYSPACE"

	// DefaultKeyspace is Astra's standard keyspace for new databases.
	DefaultKeyspace = "default_keyspace"

	apiPathPrefix = "/api/json/v1"
)

// Document is a Data API document.
type Document = map[string]any

// APIError is a single error entry from a Data API response.
type APIError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
}

func (e APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
	}
	return e.Message
}

// Response is the Data API command envelope.
type Response struct {
	Status map[string]any `json:"status,omitempty"`
	Data   *ResponseData  `json:"data,omitempty"`
	Errors []APIError     `json:"errors,omitempty"`
}

// ResponseData carries documents returned by find commands.
type ResponseData struct {
	Document      Document   `json:"document,omitempty"`
	Documents     []Document `json:"documents,omitempty"`
	NextPageState string     `json:"nextPageState,omitempty"`
}

// Err returns the first API error in the response, or nil.
func (r *Response) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Client talks to one Astra DB database.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	keyspace   string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithKeyspace selects a keyspace other than default_keyspace.
func WithKeyspace(keyspace string) Option {
	return func(c *Client) { c.keyspace = keyspace }
}

// WithTimeout sets the HTTP timeout on the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// NewClient creates a Data API client. Empty endpoint or token fall back
// to ASTRA_DB_API_ENDPOINT and ASTRA_DB_APPLICATION_TOKEN.
func NewClient(endpoint, token string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		token:      token,
		keyspace:   DefaultKeyspace,
	}
	if ks := os.Getenv(KeyspaceEnv); ks != "" {
		c.keyspace = ks
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint == "" {
		c.endpoint = strings.TrimSuffix(os.Getenv(EndpointEnv), "/")
	}
	if c.token == "" {
		c.token = os.Getenv(TokenEnv)
	}
	if c.endpoint == "" {
		return nil, fmt.Errorf("astra: missing API endpoint, set %s", EndpointEnv)
	}
	if c.token == "" {
		return nil, fmt.Errorf("astra: missing application token, set %s", TokenEnv)
	}
	return c, nil
}

// Keyspace returns the keyspace this client operates on.
func (c *Client) Keyspace() string {
	return c.keyspace
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Command runs a collection-level command, e.g.
// {"findOne": {"filter": {"_id": "x"}}}.
func (c *Client) Command(ctx context.Context, collection string, command map[string]any) (*Response, error) {
	path := fmt.Sprintf("%s%s/%s/%s", c.endpoint, apiPathPrefix, c.keyspace, collection)
	return c.post(ctx, path, command)
}

// KeyspaceCommand runs a keyspace-level command such as createCollection.
func (c *Client) KeyspaceCommand(ctx context.Context, command map[string]any) (*Response, error) {
	path := fmt.Sprintf("%s%s/%s", c.endpoint, apiPathPrefix, c.keyspace)
	return c.post(ctx, path, command)
}

func (c *Client) post(ctx context.Context, url string, command map[string]any) (*Response, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("astra: marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("astra: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("astra: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp.Body, httputil.MaxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("astra: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("astra: command failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("astra: unmarshal response: %w", err)
	}
	if err := apiResp.Err(); err != nil {
		return nil, fmt.Errorf("astra: %w", err)
	}
	return &apiResp, nil
}

// CollectionOptions configures createCollection. Dimension > 0 enables
// vector search on the collection.
type CollectionOptions struct {
	Dimension int
	Metric    string // cosine, euclidean, or dot_product
}

// CreateCollection creates a collection, optionally vector-enabled. The
// Data API treats creation as idempotent when the options match.
func (c *Client) CreateCollection(ctx context.Context, name string, opts *CollectionOptions) error {
	spec := map[string]any{"name": name}
	if opts != nil && opts.Dimension > 0 {
		metric := opts.Metric
		if metric == "" {
			metric = "cosine"
		}
		spec["options"] = map[string]any{
			"vector": map[string]any{
				"dimension": opts.Dimension,
				"metric":    metric,
			},
		}
	}
	_, err := c.KeyspaceCommand(ctx, map[string]any{"createCollection": spec})
	return err
}

// DeleteCollection drops a collection and all its documents.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.KeyspaceCommand(ctx, map[string]any{"deleteCollection": map[string]any{"name": name}})
	return err
}

// InsertOne inserts a single document.
func (c *Client) InsertOne(ctx context.Context, collection string, doc Document) error {
	_, err := c.Command(ctx, collection, map[string]any{
		"insertOne": map[string]any{"document": doc},
	})
	return err
}

// InsertMany inserts documents in one command. Ordered inserts stop at
// the first failure.
func (c *Client) InsertMany(ctx context.Context, collection string, docs []Document, ordered bool) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := c.Command(ctx, collection, map[string]any{
		"insertMany": map[string]any{
			"documents": docs,
			"options":   map[string]any{"ordered": ordered},
		},
	})
	return err
}

// FindOne returns the first document matching filter, or nil when there
// is no match.
func (c *Client) FindOne(ctx context.Context, collection string, filter, projection map[string]any) (Document, error) {
	cmd := map[string]any{"filter": filter}
	if projection != nil {
		cmd["projection"] = projection
	}
	resp, err := c.Command(ctx, collection, map[string]any{"findOne": cmd})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}
	return resp.Data.Document, nil
}

// FindQuery parameterizes a find command.
type FindQuery struct {
	Filter            map[string]any
	Sort              map[string]any
	Projection        map[string]any
	Limit             int
	PageState         string
	IncludeSimilarity bool
}

// Find returns matching documents plus the next page state ("" when the
// result set is exhausted).
func (c *Client) Find(ctx context.Context, collection string, q FindQuery) ([]Document, string, error) {
	cmd := map[string]any{}
	if q.Filter != nil {
		cmd["filter"] = q.Filter
	}
	if q.Sort != nil {
		cmd["sort"] = q.Sort
	}
	if q.Projection != nil {
		cmd["projection"] = q.Projection
	}

	options := map[string]any{}
	if q.Limit > 0 {
		options["limit"] = q.Limit
	}
	if q.PageState != "" {
		options["pageState"] = q.PageState
	}
	if q.IncludeSimilarity {
		options["includeSimilarity"] = true
	}
	if len(options) > 0 {
		cmd["options"] = options
	}

	resp, err := c.Command(ctx, collection, map[string]any{"find": cmd})
	if err != nil {
		return nil, "", err
	}
	if resp.Data == nil {
		return nil, "", nil
	}
	return resp.Data.Documents, resp.Data.NextPageState, nil
}

// FindOneAndReplace replaces the matching document, inserting it when
// upsert is set and nothing matches.
func (c *Client) FindOneAndReplace(ctx context.Context, collection string, filter map[string]any, replacement Document, upsert bool) error {
	_, err := c.Command(ctx, collection, map[string]any{
		"findOneAndReplace": map[string]any{
			"filter":      filter,
			"replacement": replacement,
			"options":     map[string]any{"upsert": upsert},
		},
	})
	return err
}

// DeleteOne removes the first matching document. Returns the number of
// documents deleted (0 or 1).
func (c *Client) DeleteOne(ctx context.Context, collection string, filter map[string]any) (int, error) {
	resp, err := c.Command(ctx, collection, map[string]any{
		"deleteOne": map[string]any{"filter": filter},
	})
	if err != nil {
		return 0, err
	}
	return deletedCount(resp), nil
}

// DeleteMany removes every matching document. The Data API deletes in
// batches and signals continuation via status.moreData, so loop until
// the flag clears.
func (c *Client) DeleteMany(ctx context.Context, collection string, filter map[string]any) (int, error) {
	total := 0
	for {
		resp, err := c.Command(ctx, collection, map[string]any{
			"deleteMany": map[string]any{"filter": filter},
		})
		if err != nil {
			return total, err
		}
		total += deletedCount(resp)
		if !statusBool(resp, "moreData") {
			return total, nil
		}
	}
}

func deletedCount(resp *Response) int {
	if resp.Status == nil {
		return 0
	}
	if n, ok := resp.Status["deletedCount"].(float64); ok {
		return int(n)
	}
	return 0
}

func statusBool(resp *Response, key string) bool {
	if resp.Status == nil {
		return false
	}
	b, _ := resp.Status[key].(bool)
	return b
}
