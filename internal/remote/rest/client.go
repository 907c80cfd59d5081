// Package rest implements remote.Backend against a hosted PostgREST
// endpoint with its auth and storage services.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/roach88/cafesync/internal/clock"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/query"
	"github.com/roach88/cafesync/internal/remote"
	"github.com/roach88/cafesync/internal/store"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultBucket  = "cafe-images"

	// objectMedia asks PostgREST for a single object instead of an array.
	// Zero matching rows yield 406 with code PGRST116.
	objectMedia = "application/vnd.pgrst.object+json"
)

// SessionStore persists the signed-in session. Implemented by *store.Store.
type SessionStore interface {
	SaveSession(ctx context.Context, s store.Session) error
	LoadSession(ctx context.Context) (store.Session, bool, error)
	ClearSession(ctx context.Context) error
}

// APIError is an error body returned by PostgREST or the auth service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, msg)
}

// Client talks to the REST, auth and storage endpoints of one project.
//
// Thread-safety: safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	bucket   string
	http     *http.Client
	clock    clock.Clock
	logger   *slog.Logger
	sessions SessionStore

	mu      sync.Mutex
	session *store.Session
	loaded  bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock sets the clock used for session expiry and upload names.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionStore persists sign-in sessions across restarts.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.sessions = s }
}

// WithBucket sets the storage bucket for UploadImage.
func WithBucket(bucket string) Option {
	return func(c *Client) { c.bucket = bucket }
}

// New creates a client for the project at baseURL using the anon apiKey.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("backend api key required")
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		apiKey:  apiKey,
		bucket:  DefaultBucket,
		http:    &http.Client{Timeout: DefaultTimeout},
		clock:   clock.System(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close is a no-op; idle connections belong to the http.Client.
func (c *Client) Close() error { return nil }

type request struct {
	method string
	path   string
	params url.Values
	body   any
	accept string
	prefer string
}

// do sends req and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + req.path
	if len(req.params) > 0 {
		target += "?" + req.params.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}

	return c.send(httpReq, out)
}

func (c *Client) send(httpReq *http.Request, out any) error {
	res, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", remote.ErrUnavailable, httpReq.Method, httpReq.URL.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", httpReq.URL.Path, err)
	}
	return nil
}

func decodeError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	apiErr := &APIError{Status: res.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	switch {
	case res.StatusCode >= 500:
		return fmt.Errorf("%w: %w", remote.ErrUnavailable, apiErr)
	case res.StatusCode == http.StatusNotFound,
		res.StatusCode == http.StatusNotAcceptable && apiErr.Code == "PGRST116":
		return fmt.Errorf("%w: %w", domain.ErrNotFound, apiErr)
	}
	return apiErr
}

// selectRows runs q against its table and decodes the JSON array into out.
func (c *Client) selectRows(ctx context.Context, q *query.Query, out any) error {
	params, err := query.EncodePostgREST(q)
	if err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodGet, path: "/rest/v1/" + q.Table, params: params}, out)
}

// selectOne runs q and decodes exactly one row into out.
func (c *Client) selectOne(ctx context.Context, q *query.Query, out any) error {
	params, err := query.EncodePostgREST(q)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + q.Table,
		params: params,
		accept: objectMedia,
	}, out)
}

// insert posts row (an object or an array) and decodes the stored
// representation into out.
func (c *Client) insert(ctx context.Context, table string, row any, single bool, out any) error {
	req := request{
		method: http.MethodPost,
		path:   "/rest/v1/" + table,
		body:   row,
		prefer: "return=representation",
	}
	if single {
		req.accept = objectMedia
	}
	return c.do(ctx, req, out)
}

// patch updates one row by id and decodes the stored row into out.
func (c *Client) patch(ctx context.Context, table string, id int64, fields any, out any) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/rest/v1/" + table,
		params: idParam(id),
		body:   fields,
		accept: objectMedia,
		prefer: "return=representation",
	}, out)
}

func idParam(id int64) url.Values {
	return url.Values{"id": {fmt.Sprintf("eq.%d", id)}}
}
