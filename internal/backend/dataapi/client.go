// Package dataapi is a client for the PostgREST data API that serves the
// todos collection.
package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"golang.org/x/oauth2"
)

const (
	// DefaultTable is the collection holding tasks.
	DefaultTable = "todos"

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10

	singleObject = "application/vnd.pgrst.object+json"
)

// Client talks to one data API endpoint.
type Client struct {
	baseURL   string
	transport http.RoundTripper
	tokens    oauth2.TokenSource
	table     string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base HTTP client. Only its transport is used;
// timeouts come from WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil && hc.Transport != nil {
			c.transport = hc.Transport
		}
	}
}

// WithTokenSource authenticates requests with bearer tokens from ts.
// Without it requests are sent as a guest.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTable sets the task collection name.
func WithTable(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.table = name
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the data API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid data api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid data api url: %q", baseURL)
	}
	c := &Client{
		baseURL:   u.String(),
		transport: http.DefaultTransport,
		table:     DefaultTable,
		timeout:   APITimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens != nil {
		c.transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, c.tokens),
			Base:   c.transport,
		}
	}
	return c, nil
}

// Authenticated reports whether requests carry a bearer token.
func (c *Client) Authenticated() bool {
	return c.tokens != nil
}

// From starts a query against a collection.
func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, method: http.MethodGet}
}

// Query is a PostgREST request under construction. Calls may come in any
// order; the postgrest-go builder is assembled when the query runs.
type Query struct {
	c         *Client
	table     string
	method    string
	columns   string
	filters   []func(*postgrest.FilterBuilder)
	body      any
	single    bool
	returning bool
}

// Select sets the returned columns. No columns means all. On a write it
// asks for the written rows back.
func (q *Query) Select(cols ...string) *Query {
	q.columns = strings.Join(cols, ",")
	if q.method != http.MethodGet {
		q.returning = true
	}
	return q
}

// Eq filters rows where col equals v.
func (q *Query) Eq(col, v string) *Query {
	q.filters = append(q.filters, func(fb *postgrest.FilterBuilder) { fb.Eq(col, v) })
	return q
}

// In filters rows where col is one of vs.
func (q *Query) In(col string, vs []string) *Query {
	vs = slices.Clone(vs)
	q.filters = append(q.filters, func(fb *postgrest.FilterBuilder) { fb.In(col, vs) })
	return q
}

// Order sorts by col.
func (q *Query) Order(col string, ascending bool) *Query {
	q.filters = append(q.filters, func(fb *postgrest.FilterBuilder) {
		fb.Order(col, &postgrest.OrderOpts{Ascending: ascending})
	})
	return q
}

// Insert makes the query a POST of v.
func (q *Query) Insert(v any) *Query {
	q.method = http.MethodPost
	q.body = v
	return q
}

// Update makes the query a PATCH of v.
func (q *Query) Update(v any) *Query {
	q.method = http.MethodPatch
	q.body = v
	return q
}

// Delete makes the query a DELETE.
func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	return q
}

// Single expects exactly one row, decoded as an object.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) returnMode() string {
	if q.returning {
		return "representation"
	}
	return "minimal"
}

func (q *Query) build(rest *postgrest.Client) (*postgrest.FilterBuilder, error) {
	var body json.RawMessage
	if q.method == http.MethodPost || q.method == http.MethodPatch {
		data, err := json.Marshal(q.body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = data
	}

	qb := rest.From(q.table)
	var fb *postgrest.FilterBuilder
	switch q.method {
	case http.MethodPost:
		fb = qb.Insert(body, false, "", q.returnMode(), "")
	case http.MethodPatch:
		fb = qb.Update(body, q.returnMode(), "")
	case http.MethodDelete:
		fb = qb.Delete(q.returnMode(), "")
	default:
		fb = qb.Select(q.columns, "", false)
	}
	for _, apply := range q.filters {
		apply(fb)
	}
	if q.single {
		fb.Single()
	}
	return fb, nil
}

// Do sends the request and decodes the response into dst when dst is non-nil.
func (q *Query) Do(ctx context.Context, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, q.c.timeout)
	defer cancel()

	rest := postgrest.NewClient(q.c.baseURL, "", nil)
	if rest.ClientError != nil {
		return rest.ClientError
	}
	call := &callTransport{ctx: ctx, base: q.c.transport}
	rest.Transport.Parent = call

	fb, err := q.build(rest)
	if err != nil {
		return err
	}

	start := time.Now()
	data, _, err := fb.Execute()
	q.c.logger.Debug("data api request",
		"method", q.method,
		"table", q.table,
		"status", call.status,
		"duration", time.Since(start))

	if call.apiErr != nil {
		return call.apiErr
	}
	if err != nil {
		return wrapError(err)
	}
	if dst == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// callTransport binds one call's context to the request and keeps the
// status and body of an error response, which postgrest-go reduces to text.
type callTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
	apiErr *APIError
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if slices.Contains(req.Header.Values("Accept"), singleObject) {
		req.Header.Set("Accept", singleObject)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.status = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		t.apiErr = decodeError(resp.StatusCode, data)
		resp.Body = io.NopCloser(bytes.NewReader(data))
	}
	return resp, nil
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
