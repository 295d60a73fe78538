// Package proxy forwards the password-reset JSON calls to the backend and
// turns every failure into a JSON error envelope.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	ForgotPasswordPath = "/api/auth/forgot-password"
	ResetPasswordPath  = "/api/auth/reset-password"

	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

type Forwarder struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewForwarder(baseURL string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		baseURL: baseURL,
		client:  &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		timeout: timeout,
		logger:  logger,
	}
}

// Close drops idle backend connections.
func (f *Forwarder) Close() {
	f.client.CloseIdleConnections()
}

// Reply is a JSON body and the status to send it with.
type Reply struct {
	Status int
	Body   json.RawMessage
}

func errorReply(status int, msg string) Reply {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return Reply{Status: status, Body: b}
}

// Error returns the {error} field of the reply, if any.
func (r Reply) Error() string {
	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(r.Body, &e)
	return e.Error
}

func (r Reply) OK() bool { return r.Status >= 200 && r.Status <= 299 }

// Forward posts body to path on the backend. body must already be valid
// JSON.
func (f *Forwarder) Forward(ctx context.Context, path string, body []byte) Reply {
	if f.baseURL == "" {
		return errorReply(http.StatusInternalServerError, "Server URL is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errorReply(http.StatusBadGateway, fmt.Sprintf("Could not reach backend: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("password reset proxy: backend unreachable", zap.String("path", path), zap.Error(err))
		return errorReply(http.StatusBadGateway, "Could not reach backend: "+reason(err, f.timeout))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorReply(http.StatusBadGateway, "Could not reach backend: "+reason(err, f.timeout))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if !json.Valid(data) {
		ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
		f.logger.Warn("password reset proxy: non-JSON reply",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		if ok {
			return errorReply(http.StatusBadGateway, "Invalid response from backend.")
		}
		return errorReply(resp.StatusCode, fmt.Sprintf("Backend returned %d", resp.StatusCode))
	}

	return Reply{Status: resp.StatusCode, Body: data}
}

func reason(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timed out after %s", timeout)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err.Error()
	}
	return err.Error()
}

// Handler serves POST requests for path by forwarding them.
func (f *Forwarder) Handler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.baseURL == "" {
			write(w, errorReply(http.StatusInternalServerError, "Server URL is not configured"))
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil || !json.Valid(body) {
			write(w, errorReply(http.StatusBadRequest, "Invalid request body"))
			return
		}
		write(w, f.Forward(r.Context(), path, body))
	}
}

func write(w http.ResponseWriter, rep Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.Status)
	w.Write(rep.Body)
}
