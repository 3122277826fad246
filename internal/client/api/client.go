// Package api is the typed REST client for the carelink backend. All
// domain wrappers (qna, columns, consultations, chat, wallet, experts) go
// through the one shared request pipeline, which attaches the bearer
// credential, retries exactly once after a coalesced token refresh on 401,
// and maps transport and HTTP failures onto the package error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sunwoojg/carelink/internal/client/creds"
	"github.com/sunwoojg/carelink/internal/logging"
)

const requestIDHeader = "X-Client-Request-Id"

// Client is the shared request pipeline.
type Client struct {
	base  string
	http  *http.Client
	store creds.Store
	log   logging.Logger

	refreshGroup  singleflight.Group
	onAuthRevoked func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (timeouts, transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAuthRevokedHook registers a callback invoked once per terminal
// refresh failure, after local credentials have been cleared. The session
// controller uses it to transition to Unauthenticated. The hook must not
// issue requests through this client.
func WithAuthRevokedHook(fn func()) Option {
	return func(c *Client) { c.onAuthRevoked = fn }
}

// New builds a Client for the backend at baseURL, reading and rotating
// credentials through store.
func New(baseURL string, store creds.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		store: store,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// filePart is a binary payload attached to a multipart request.
type filePart struct {
	Field    string
	Filename string
	Content  []byte
}

// request describes one call through the pipeline. The retried flag is
// explicit so the retry-at-most-once invariant is a field check, not a
// property of some closure.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	fields map[string]string
	files  []filePart
	noAuth bool

	retried bool
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, &request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, &request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, &request{method: http.MethodPatch, path: path, body: body}, out)
}

func (c *Client) postNoAuth(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, &request{method: http.MethodPost, path: path, body: body, noAuth: true}, out)
}

func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, files []filePart, out any) error {
	return c.do(ctx, &request{method: http.MethodPost, path: path, fields: fields, files: files}, out)
}

// do sends r, decoding a JSON response into out when out is non-nil.
//
// On a 401 for a not-yet-retried authenticated request it runs the
// refresh flow (coalesced across concurrent callers) and resends exactly
// once. A 401 on a retried request, or any refresh failure, is terminal.
func (c *Client) do(ctx context.Context, r *request, out any) error {
	for {
		access := ""
		if !r.noAuth {
			pair, err := c.store.Load()
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			access = pair.Access
		}

		status, payload, err := c.send(ctx, r, access)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized && !r.noAuth {
			if r.retried {
				c.revoke(ctx)
				return fmt.Errorf("%w: request rejected after refresh", ErrAuthRevoked)
			}
			r.retried = true
			if _, err := c.refreshAccess(ctx, access); err != nil {
				return err
			}
			continue
		}

		if status >= 400 {
			return &APIError{StatusCode: status, Message: errorMessage(payload)}
		}

		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}
}

// send performs one HTTP round trip. The body is rebuilt per attempt so a
// retried request never reuses a drained reader.
func (c *Client) send(ctx context.Context, r *request, access string) (int, []byte, error) {
	var body io.Reader
	contentType := ""

	switch {
	case len(r.files) > 0:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, v := range r.fields {
			if err := w.WriteField(k, v); err != nil {
				return 0, nil, err
			}
		}
		for _, f := range r.files {
			part, err := w.CreateFormFile(f.Field, f.Filename)
			if err != nil {
				return 0, nil, err
			}
			if _, err := part.Write(f.Content); err != nil {
				return 0, nil, err
			}
		}
		if err := w.Close(); err != nil {
			return 0, nil, err
		}
		body = buf
		contentType = w.FormDataContentType()
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	u := c.base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if access != "" && !r.noAuth {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request transport failure", "method", r.method, "path", r.path, "err", err)
		return 0, nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, r.method, r.path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, payload, nil
}

// refreshAccess exchanges the refresh credential for a new access token.
//
// All concurrent callers share a single in-flight refresh via
// singleflight; a stampede of 401s produces one network call. The most
// recent successful issuance wins: if the stored access token already
// differs from the one that just failed, another caller finished a
// refresh first and its token is reused without touching the network.
func (c *Client) refreshAccess(ctx context.Context, staleAccess string) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		pair, err := c.store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading credentials: %w", err)
		}
		if pair.Access != "" && pair.Access != staleAccess {
			return pair.Access, nil
		}
		if pair.Refresh == "" {
			c.revoke(ctx)
			return nil, fmt.Errorf("%w: no refresh credential", ErrAuthRevoked)
		}

		var resp struct {
			Access  string `json:"access"`
			Refresh string `json:"refresh"`
		}
		req := &request{
			method:  http.MethodPost,
			path:    "/auth/token/refresh/",
			body:    map[string]string{"refresh": pair.Refresh},
			noAuth:  true,
			retried: true,
		}
		if err := c.do(ctx, req, &resp); err != nil {
			c.log.Warn(ctx, "token refresh failed", "err", err)
			c.revoke(ctx)
			return nil, fmt.Errorf("%w: refresh rejected: %v", ErrAuthRevoked, err)
		}

		next := creds.Pair{Access: resp.Access, Refresh: pair.Refresh}
		if resp.Refresh != "" {
			next.Refresh = resp.Refresh
		}
		if err := c.store.Save(next); err != nil {
			return nil, fmt.Errorf("saving refreshed credentials: %w", err)
		}
		c.log.Debug(ctx, "access token refreshed")
		return resp.Access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// revoke clears local credentials and notifies the session layer. Called
// on terminal auth failures only.
func (c *Client) revoke(ctx context.Context) {
	if err := c.store.Clear(); err != nil {
		c.log.Error(ctx, "clearing credentials failed", "err", err)
	}
	if c.onAuthRevoked != nil {
		c.onAuthRevoked()
	}
}

// errorMessage pulls a human-readable message out of an error payload.
// The backend answers either {"detail": ...} or {"message": ...}.
func errorMessage(payload []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Message
}
