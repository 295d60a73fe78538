// Package session keeps the browser-side login markers in signed cookies.
//
// Three independent markers say that a login happened in this browser:
// the stored token (long-lived, survives browser restarts), the session
// flag (cleared when the browser session ends) and the just-logged-in
// cookie (a minute long, covers the first requests after login). Cookies
// the backend set on our server-side calls travel with the stored token.
package session

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
)

const (
	TokenCookie        = "linguaformula_jwt"
	FlagCookie         = "linguaformula_auth_session"
	JustLoggedInCookie = "linguaformula_just_logged_in"
)

func init() {
	gob.Register(map[string]string{})
}

// Markers is what the browser carries about its login.
type Markers struct {
	Token          string
	Flag           bool
	JustLoggedIn   bool
	BackendCookies map[string]string
}

// Any reports whether at least one login marker is present. Backend
// cookies alone do not count.
func (m Markers) Any() bool {
	return m.Token != "" || m.Flag || m.JustLoggedIn
}

type Options struct {
	Secure          bool
	TokenMaxAge     time.Duration
	JustLoggedInTTL time.Duration
}

type Store struct {
	tokens *sessions.CookieStore
	flags  *sessions.CookieStore
	opts   Options
	now    func() time.Time
}

// NewStore builds a store whose cookies are signed with hashKey and
// encrypted with blockKey.
func NewStore(hashKey, blockKey []byte, opts Options) *Store {
	if opts.TokenMaxAge <= 0 {
		opts.TokenMaxAge = 30 * 24 * time.Hour
	}
	if opts.JustLoggedInTTL <= 0 {
		opts.JustLoggedInTTL = time.Minute
	}

	tokens := sessions.NewCookieStore(hashKey, blockKey)
	tokens.MaxAge(int(opts.TokenMaxAge.Seconds()))

	flags := sessions.NewCookieStore(hashKey, blockKey)

	return &Store{
		tokens: tokens,
		flags:  flags,
		opts:   opts,
		now:    time.Now,
	}
}

func (s *Store) tokenOptions() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(s.opts.TokenMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// flag cookie has no Max-Age so the browser drops it with the session.
func (s *Store) flagOptions() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Load reads the markers of r. Unreadable cookies count as absent, and a
// JWT whose exp lies in the past is dropped.
func (s *Store) Load(r *http.Request) Markers {
	var m Markers

	if sess, err := s.tokens.Get(r, TokenCookie); err == nil {
		m.Token, _ = sess.Values["token"].(string)
		if cookies, ok := sess.Values["cookies"].(map[string]string); ok && len(cookies) > 0 {
			m.BackendCookies = make(map[string]string, len(cookies))
			for k, v := range cookies {
				m.BackendCookies[k] = v
			}
		}
	}
	if m.Token != "" && TokenExpired(m.Token, s.now()) {
		m.Token = ""
	}

	if sess, err := s.flags.Get(r, FlagCookie); err == nil {
		m.Flag, _ = sess.Values["active"].(bool)
	}

	if c, err := r.Cookie(JustLoggedInCookie); err == nil && c.Value == "1" {
		m.JustLoggedIn = true
	}

	return m
}

// Save persists the token, backend cookies and session flag of m. The
// just-logged-in cookie is only ever written by MarkLoggedIn.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, m Markers) error {
	tok, _ := s.tokens.Get(r, TokenCookie)
	tok.Options = s.tokenOptions()
	tok.Values = map[interface{}]interface{}{}
	if m.Token != "" {
		tok.Values["token"] = m.Token
	}
	if len(m.BackendCookies) > 0 {
		tok.Values["cookies"] = m.BackendCookies
	}
	if len(tok.Values) == 0 {
		tok.Options.MaxAge = -1
	}
	if err := tok.Save(r, w); err != nil {
		return err
	}

	flag, _ := s.flags.Get(r, FlagCookie)
	flag.Options = s.flagOptions()
	flag.Values = map[interface{}]interface{}{}
	if m.Flag {
		flag.Values["active"] = true
	} else {
		flag.Options.MaxAge = -1
	}
	return flag.Save(r, w)
}

// MarkLoggedIn saves m with the flag set and starts the just-logged-in
// window.
func (s *Store) MarkLoggedIn(w http.ResponseWriter, r *http.Request, m Markers) error {
	m.Flag = true
	if err := s.Save(w, r, m); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     JustLoggedInCookie,
		Value:    "1",
		Path:     "/",
		MaxAge:   int(s.opts.JustLoggedInTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func expireJustLoggedIn(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     JustLoggedInCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Clear removes every marker.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	expireJustLoggedIn(w)
	return s.Save(w, r, Markers{})
}

// Forget drops the session flag and the just-logged-in window of m but
// keeps the stored token and backend cookies, so a later request can
// verify them again.
func (s *Store) Forget(w http.ResponseWriter, r *http.Request, m Markers) error {
	expireJustLoggedIn(w)
	m.Flag = false
	m.JustLoggedIn = false
	return s.Save(w, r, m)
}

// TokenExpired reports whether token is a JWT with an exp claim before
// now. Tokens that are not JWTs never expire here; the backend decides.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
