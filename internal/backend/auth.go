package backend

import (
	"context"
	"net/http"

	"linguaformula/internal/entity"
)

type userEnvelope struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	User  *entity.User
	Token string
}

func (c *Client) Login(ctx context.Context, email, password string, creds *Credentials) (*AuthResult, error) {
	var env userEnvelope
	err := c.call(ctx, http.MethodPost, "/api/auth/login", entity.Credentials{Email: email, Password: password}, creds, &env)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: env.User, Token: env.Token}, nil
}

func (c *Client) Register(ctx context.Context, in entity.Credentials, creds *Credentials) (*AuthResult, error) {
	var env userEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/auth/register", in, creds, &env); err != nil {
		return nil, err
	}
	return &AuthResult{User: env.User, Token: env.Token}, nil
}

func (c *Client) Logout(ctx context.Context, creds *Credentials) error {
	resp, err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, creds)
	if err != nil {
		return err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return &APIError{Status: resp.Status}
	}
	return nil
}

// Me returns the user the backend associates with creds, or nil when the
// session is not recognized. Non-JSON bodies are a *DecodeError whatever
// the status.
func (c *Client) Me(ctx context.Context, creds *Credentials) (*entity.User, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, creds)
	if err != nil {
		return nil, err
	}
	var env userEnvelope
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *Client) UpdateMe(ctx context.Context, upd entity.ProfileUpdate, creds *Credentials) (*entity.User, error) {
	var env userEnvelope
	if err := c.call(ctx, http.MethodPatch, "/api/auth/me", upd, creds, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// StatusOK is the reply of the password-reset endpoints.
type StatusOK struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*StatusOK, error) {
	var out StatusOK
	if err := c.call(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*StatusOK, error) {
	var out StatusOK
	body := map[string]string{"token": token, "new_password": newPassword}
	if err := c.call(ctx, http.MethodPost, "/api/auth/reset-password", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
