// Package client is a Go SDK for the Spark API. The stores keep local state the
// way an app screen needs it: optimistic sends, paged feeds and auth listeners.
package client

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
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gdugdh24/spark-backend/internal/domain"
)

// Wire types shared with the server.
type (
	User          = domain.User
	PublicProfile = domain.PublicProfile
	Match         = domain.Match
	Message       = domain.Message
	Metadata      = domain.MessageMetadata
	ContentType   = domain.ContentType
	ChatRoom      = domain.ChatRoom
	Presence      = domain.Presence
	Event         = domain.Event
	Video         = domain.Video
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the API
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsCode reports whether err is an APIError carrying code
func IsCode(err error, code domain.Code) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == string(code)
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithDialer replaces the websocket dialer used by subscriptions
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithToken starts the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client talks to one API host. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	dialer  *websocket.Dialer

	mu    sync.RWMutex
	token string
}

// New builds a client for baseURL, e.g. "https://api.example.com"
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		dialer:  websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path += "/api/v1" + path
	u.RawQuery = query.Encode()
	return u.String()
}

// doJSON sends in as a JSON body (when non-nil) and decodes the answer into out (when non-nil)
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Presence returns the presence of userID
func (c *Client) Presence(ctx context.Context, userID int) (*Presence, error) {
	var p Presence
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/presence/%d", userID), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
