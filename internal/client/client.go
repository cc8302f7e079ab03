// Package client is a typed HTTP client for the back office API. It carries the
// behaviour every caller of the API has to share: bearer sessions, conflict
// message mapping, ledger shape normalization and stale response guarding.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the back office REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session *Session
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for dropped sessions and swallowed errors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client rooted at baseURL. A nil session gets an in-memory one.
func New(baseURL string, session *Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	if session == nil {
		session = NewSession(NewMemoryTokenStore())
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session exposes the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

type request struct {
	method  string
	path    string
	action  Action
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// send performs the request and returns the raw body of a 2xx response.
func (c *Client) send(ctx context.Context, req request) ([]byte, http.Header, error) {
	var payload io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, nil, fmt.Errorf("client: encode %s: %w", req.action, err)
		}
		payload = bytes.NewReader(buf)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.endpoint(req.path, req.query), payload)
	if err != nil {
		return nil, nil, fmt.Errorf("client: build %s: %w", req.action, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, nil, &APIError{Action: req.action, Message: networkMessage, cause: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &APIError{Status: resp.StatusCode, Action: req.action, Message: networkMessage, cause: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, resp.Header, nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("session rejected by server, clearing token", slog.String("action", string(req.action)))
		c.session.Clear()
	}
	return nil, resp.Header, newAPIError(req.action, resp.StatusCode, resp.Status, body)
}

// do sends the request and decodes a JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	body, _, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Status: http.StatusOK, Action: req.action, Message: genericMessage, cause: err}
	}
	return nil
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", fmt.Sprint(pageSize))
	}
	return q
}
