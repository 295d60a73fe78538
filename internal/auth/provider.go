// Package auth resolves who the browser is and performs login, logout,
// registration and profile updates against the backend.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"maps"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"linguaformula/internal/backend"
	"linguaformula/internal/entity"
	"linguaformula/internal/session"
)

const (
	msgGeneric        = "Something went wrong. Please try again."
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgUpdateFailed   = "Update failed"
)

// MinPasswordLength applies to registration, password change and reset.
const MinPasswordLength = 8

// FormError is a message to show next to a form.
type FormError struct {
	Message string
}

func (e *FormError) Error() string { return e.Message }

// Backend is the part of the REST client the provider needs.
type Backend interface {
	Login(ctx context.Context, email, password string, creds *backend.Credentials) (*backend.AuthResult, error)
	Register(ctx context.Context, in entity.Credentials, creds *backend.Credentials) (*backend.AuthResult, error)
	Logout(ctx context.Context, creds *backend.Credentials) error
	Me(ctx context.Context, creds *backend.Credentials) (*entity.User, error)
	UpdateMe(ctx context.Context, upd entity.ProfileUpdate, creds *backend.Credentials) (*entity.User, error)
}

type Provider struct {
	backend Backend
	store   *session.Store
	logger  *zap.Logger
	group   singleflight.Group
}

func NewProvider(b Backend, store *session.Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		backend: b,
		store:   store,
		logger:  logger,
	}
}

func credentialsOf(m session.Markers) *backend.Credentials {
	return &backend.Credentials{Token: m.Token, Cookies: m.BackendCookies}
}

// Credentials returns what to send to the backend for r.
func (p *Provider) Credentials(r *http.Request) *backend.Credentials {
	return credentialsOf(p.store.Load(r))
}

type meResult struct {
	user    *entity.User
	cookies map[string]string
}

func fingerprint(c *backend.Credentials) string {
	h := sha256.New()
	h.Write([]byte(c.Token))
	names := make([]string, 0, len(c.Cookies))
	for k := range c.Cookies {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		h.Write([]byte{0})
		h.Write([]byte(k + "=" + c.Cookies[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// meTimeout bounds a shared /me lookup, which outlives the request that
// started it.
const meTimeout = 10 * time.Second

// me coalesces concurrent lookups for the same credentials, e.g. a page
// and its assets arriving together. The shared call does not inherit the
// cancellation of whichever request started it; a caller whose own
// context ends stops waiting and gets ctx.Err().
func (p *Provider) me(ctx context.Context, creds *backend.Credentials) (*meResult, error) {
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(fingerprint(creds), func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(shared, meTimeout)
		defer cancel()
		c := &backend.Credentials{Token: creds.Token, Cookies: maps.Clone(creds.Cookies)}
		user, err := p.backend.Me(ctx, c)
		if err != nil {
			return nil, err
		}
		return &meResult{user: user, cookies: c.Cookies}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*meResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Refetch runs the session bootstrap for r and returns the resolved
// state. It always resolves; backend failures end in None.
func (p *Provider) Refetch(w http.ResponseWriter, r *http.Request) State {
	ctx := r.Context()
	m := p.store.Load(r)
	creds := credentialsOf(m)

	if Classify(m) == None {
		// backend may still hold a cookie session we no longer track
		if err := p.backend.Logout(ctx, creds); err != nil {
			p.logger.Debug("logout without markers failed", zap.Error(err))
		}
		return State{Kind: None}
	}

	res, err := p.me(ctx, creds)
	if err != nil {
		if ctx.Err() != nil {
			// the request itself went away; its markers are still good
			return State{Kind: None}
		}
		p.logger.Debug("session check failed", zap.Error(err))
		if err := p.store.Forget(w, r, m); err != nil {
			p.logger.Warn("failed to drop session flag", zap.Error(err))
		}
		return State{Kind: None}
	}

	if res.user == nil {
		p.clear(w, r)
		if err := p.backend.Logout(ctx, creds); err != nil {
			p.logger.Debug("logout after rejected session failed", zap.Error(err))
		}
		return State{Kind: None}
	}

	if !m.Flag || !maps.Equal(m.BackendCookies, res.cookies) {
		m.Flag = true
		m.BackendCookies = res.cookies
		if err := p.store.Save(w, r, m); err != nil {
			p.logger.Warn("failed to persist session markers", zap.Error(err))
		}
	}
	return State{Kind: Active, User: res.user}
}

func (p *Provider) clear(w http.ResponseWriter, r *http.Request) {
	if err := p.store.Clear(w, r); err != nil {
		p.logger.Warn("failed to clear session markers", zap.Error(err))
	}
}

func formError(err error, fallback string) *FormError {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return &FormError{Message: apiErr.Message}
		}
		return &FormError{Message: fallback}
	}
	return &FormError{Message: msgGeneric}
}

func (p *Provider) signedIn(w http.ResponseWriter, r *http.Request, creds *backend.Credentials, res *backend.AuthResult) {
	m := session.Markers{Token: res.Token, BackendCookies: creds.Cookies}
	if err := p.store.MarkLoggedIn(w, r, m); err != nil {
		p.logger.Warn("failed to persist login", zap.Error(err))
	}
}

// Login signs in with email and password. Failures are *FormError.
func (p *Provider) Login(w http.ResponseWriter, r *http.Request, email, password string) (*entity.User, error) {
	creds := &backend.Credentials{Cookies: p.store.Load(r).BackendCookies}

	res, err := p.backend.Login(r.Context(), strings.TrimSpace(email), password, creds)
	if err != nil {
		p.logger.Info("login failed", zap.String("email", email), zap.Error(err))
		return nil, formError(err, msgLoginFailed)
	}

	p.signedIn(w, r, creds, res)
	p.logger.Info("user signed in", zap.String("email", email))
	return res.User, nil
}

// Register creates an account and signs it in. An empty display name is
// not sent.
func (p *Provider) Register(w http.ResponseWriter, r *http.Request, email, password, displayName string) (*entity.User, error) {
	if len(password) < MinPasswordLength {
		return nil, &FormError{Message: "Password must be at least 8 characters"}
	}

	creds := &backend.Credentials{Cookies: p.store.Load(r).BackendCookies}
	in := entity.Credentials{
		Email:       strings.TrimSpace(email),
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	}

	res, err := p.backend.Register(r.Context(), in, creds)
	if err != nil {
		p.logger.Info("registration failed", zap.String("email", email), zap.Error(err))
		return nil, formError(err, msgRegisterFailed)
	}

	p.signedIn(w, r, creds, res)
	p.logger.Info("user registered", zap.String("email", email))
	return res.User, nil
}

// Logout clears every marker, then tells the backend. The backend call is
// best effort.
func (p *Provider) Logout(w http.ResponseWriter, r *http.Request) {
	creds := credentialsOf(p.store.Load(r))
	p.clear(w, r)
	if err := p.backend.Logout(r.Context(), creds); err != nil {
		p.logger.Warn("backend logout failed", zap.Error(err))
	}
}

// UpdateProfile applies upd to the current user and returns the updated
// user. Failures are *FormError.
func (p *Provider) UpdateProfile(w http.ResponseWriter, r *http.Request, upd entity.ProfileUpdate) (*entity.User, error) {
	if upd.NewPassword != nil && len(*upd.NewPassword) < MinPasswordLength {
		return nil, &FormError{Message: "Password must be at least 8 characters."}
	}

	m := p.store.Load(r)
	creds := credentialsOf(m)

	user, err := p.backend.UpdateMe(r.Context(), upd, creds)
	if err != nil {
		return nil, formError(err, msgUpdateFailed)
	}

	m.BackendCookies = creds.Cookies
	if err := p.store.Save(w, r, m); err != nil {
		p.logger.Warn("failed to persist session markers", zap.Error(err))
	}
	return user, nil
}
