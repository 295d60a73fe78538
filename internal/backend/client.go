// Package backend talks to the Lingua Formula REST API on behalf of a
// browser session.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Credentials carry what a browser would send with credentials: 'include'
// plus the stored bearer token. Cookies set by the backend are merged back
// into Cookies after every call.
type Credentials struct {
	Token   string
	Cookies map[string]string
}

func (c *Credentials) merge(set []*http.Cookie) {
	if c == nil || len(set) == 0 {
		return
	}
	if c.Cookies == nil {
		c.Cookies = make(map[string]string)
	}
	for _, ck := range set {
		if ck.MaxAge < 0 || ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(c.Cookies, ck.Name)
			continue
		}
		c.Cookies[ck.Name] = ck.Value
	}
}

// Cache stores reference data that rarely changes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Client struct {
	baseURL        string
	http           *http.Client
	logger         *zap.Logger
	cache          Cache
	disciplinesTTL time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.disciplinesTTL = ttl
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool { return c.baseURL != "" }

func (c *Client) BaseURL() string { return c.baseURL }

// Response is a raw backend reply.
type Response struct {
	Status int
	Body   []byte
}

// Do sends one request to {baseURL}{path}. A non-nil body is encoded as
// JSON. The reply is returned whatever its status; only transport problems
// are errors here.
func (c *Client) Do(ctx context.Context, method, path string, body any, creds *Credentials) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds != nil {
		if creds.Token != "" {
			req.Header.Set("Authorization", "Bearer "+creds.Token)
		}
		for name, value := range creds.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	creds.merge(resp.Cookies())

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// statusError maps a non-2xx reply to an *APIError carrying its {error}
// message, or a *DecodeError when the body is not that shape.
func statusError(resp *Response) error {
	if resp.Status >= 200 && resp.Status <= 299 {
		return nil
	}
	var eb errorBody
	if err := json.Unmarshal(resp.Body, &eb); err != nil {
		return &DecodeError{Status: resp.Status, Err: err}
	}
	return &APIError{Status: resp.Status, Message: eb.Error}
}

// call performs a request and decodes a 2xx body into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, body any, creds *Credentials, out any) error {
	resp, err := c.Do(ctx, method, path, body, creds)
	if err != nil {
		return err
	}

	if err := statusError(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DecodeError{Status: resp.Status, Err: err}
	}
	return nil
}

func decode(resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DecodeError{Status: resp.Status, Err: err}
	}
	return nil
}
