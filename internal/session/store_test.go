package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore([]byte("0123456789abcdef0123456789abcdef"), []byte("abcdef0123456789abcdef0123456789"), Options{})
}

// carry replays the cookies a response set onto a fresh request, dropping
// deleted ones the way a browser would.
func carry(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			continue
		}
		req.AddCookie(c)
	}
	return req
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestLoad_Empty(t *testing.T) {
	s := newTestStore()

	m := s.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, m.Any())
	assert.Empty(t, m.BackendCookies)
}

func TestMarkLoggedIn_RoundTrip(t *testing.T) {
	s := newTestStore()
	token := signed(t, time.Now().Add(time.Hour))

	rec := httptest.NewRecorder()
	err := s.MarkLoggedIn(rec, httptest.NewRequest(http.MethodPost, "/sign-in", nil), Markers{
		Token:          token,
		BackendCookies: map[string]string{"session": "abc"},
	})
	require.NoError(t, err)

	m := s.Load(carry(t, rec))
	assert.True(t, m.Any())
	assert.Equal(t, token, m.Token)
	assert.True(t, m.Flag)
	assert.True(t, m.JustLoggedIn)
	assert.Equal(t, map[string]string{"session": "abc"}, m.BackendCookies)
}

func TestFlagCookieIsBrowserSession(t *testing.T) {
	s := newTestStore()

	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), Markers{Flag: true, Token: "opaque"}))

	var flag, token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case FlagCookie:
			flag = c
		case TokenCookie:
			token = c
		}
	}
	require.NotNil(t, flag)
	require.NotNil(t, token)
	assert.Zero(t, flag.MaxAge)
	assert.True(t, flag.Expires.IsZero())
	assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), token.MaxAge)
	assert.True(t, token.HttpOnly)
}

func TestClear(t *testing.T) {
	s := newTestStore()

	rec := httptest.NewRecorder()
	require.NoError(t, s.MarkLoggedIn(rec, httptest.NewRequest(http.MethodGet, "/", nil), Markers{Token: "opaque"}))
	req := carry(t, rec)
	require.True(t, s.Load(req).Any())

	rec = httptest.NewRecorder()
	require.NoError(t, s.Clear(rec, req))

	deleted := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			deleted[c.Name] = true
		}
	}
	assert.True(t, deleted[TokenCookie])
	assert.True(t, deleted[FlagCookie])
	assert.True(t, deleted[JustLoggedInCookie])

	assert.False(t, s.Load(carry(t, rec)).Any())
}

func TestForget_KeepsToken(t *testing.T) {
	s := newTestStore()

	rec := httptest.NewRecorder()
	require.NoError(t, s.MarkLoggedIn(rec, httptest.NewRequest(http.MethodGet, "/", nil), Markers{
		Token:          "opaque",
		BackendCookies: map[string]string{"session": "abc"},
	}))
	req := carry(t, rec)
	m := s.Load(req)
	require.True(t, m.Flag)

	rec = httptest.NewRecorder()
	require.NoError(t, s.Forget(rec, req, m))

	deleted := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			deleted[c.Name] = true
		}
	}
	assert.False(t, deleted[TokenCookie])
	assert.True(t, deleted[FlagCookie])
	assert.True(t, deleted[JustLoggedInCookie])

	after := s.Load(carry(t, rec))
	assert.Equal(t, "opaque", after.Token)
	assert.Equal(t, map[string]string{"session": "abc"}, after.BackendCookies)
	assert.False(t, after.Flag)
	assert.False(t, after.JustLoggedIn)
}

func TestLoad_TamperedCookieIgnored(t *testing.T) {
	s := newTestStore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "forged"})
	req.AddCookie(&http.Cookie{Name: FlagCookie, Value: "forged"})

	assert.False(t, s.Load(req).Any())
}

func TestLoad_ExpiredTokenDropped(t *testing.T) {
	s := newTestStore()

	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), Markers{
		Token: signed(t, time.Now().Add(-time.Minute)),
	}))

	m := s.Load(carry(t, rec))
	assert.Empty(t, m.Token)
	assert.False(t, m.Any())
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, TokenExpired(signed(t, now.Add(time.Hour)), now))
	assert.True(t, TokenExpired(signed(t, now.Add(-time.Hour)), now))
	assert.False(t, TokenExpired("not-a-jwt", now))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, TokenExpired(noExp, now))
}
