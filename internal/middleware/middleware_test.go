package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"linguaformula/internal/auth"
	"linguaformula/internal/entity"
)

type fakeRefetcher struct {
	state auth.State
	calls int
}

func (f *fakeRefetcher) Refetch(http.ResponseWriter, *http.Request) auth.State {
	f.calls++
	return f.state
}

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRequireAuth_RedirectsWithFrom(t *testing.T) {
	f := &fakeRefetcher{state: auth.State{Kind: auth.None}}
	h := Bootstrap(f)(RequireAuth(http.HandlerFunc(ok)))

	rec := serve(h, http.MethodGet, "/courses")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sign-in?from=%2Fcourses", rec.Header().Get("Location"))
	assert.Equal(t, 1, f.calls)

	rec = serve(h, http.MethodGet, "/courses/3?sort=name")
	assert.Equal(t, "/sign-in?from=%2Fcourses%2F3%3Fsort%3Dname", rec.Header().Get("Location"))

	rec = serve(h, http.MethodPost, "/courses/3/delete")
	assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
}

func TestRequireAuth_PassesActive(t *testing.T) {
	f := &fakeRefetcher{state: auth.State{Kind: auth.Active, User: &entity.User{ID: 1}}}
	h := Bootstrap(f)(RequireAuth(http.HandlerFunc(ok)))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/courses").Code)
}

func TestBootstrap_SkipsAPIAndStatic(t *testing.T) {
	f := &fakeRefetcher{}
	h := Bootstrap(f)(http.HandlerFunc(ok))

	serve(h, http.MethodPost, "/api/auth/forgot-password")
	serve(h, http.MethodGet, "/static/site.css")
	serve(h, http.MethodGet, "/healthz")
	assert.Zero(t, f.calls)

	serve(h, http.MethodGet, "/")
	assert.Equal(t, 1, f.calls)
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name  string
		state auth.State
		code  int
		loc   string
	}{
		{"signed out", auth.State{}, http.StatusSeeOther, "/sign-in?from=%2Fadmin"},
		{"member", auth.State{Kind: auth.Active, User: &entity.User{ID: 2}}, http.StatusSeeOther, "/"},
		{"admin", auth.State{Kind: auth.Active, User: &entity.User{ID: 1, IsAdmin: true}}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Bootstrap(&fakeRefetcher{state: tc.state})(RequireAdmin(http.HandlerFunc(ok)))
			rec := serve(h, http.MethodGet, "/admin")
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.loc, rec.Header().Get("Location"))
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/courses":             "/courses",
		"/courses?sort=name":   "/courses?sort=name",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"courses":              "/",
		"/\\evil.example":      "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeRedirect(in), in)
	}
}

func TestAccessibility(t *testing.T) {
	var got bool
	h := Accessibility(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = HighContrastFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: HighContrastCookie, Value: "1"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, got)
}

func TestSetHighContrast(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHighContrast(rec, true, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, HighContrastCookie, cookies[0].Name)
	assert.Equal(t, "1", cookies[0].Value)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := serve(h, http.MethodGet, "/")
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestID(AccessLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write(bytes.Repeat([]byte("x"), 3))
	})))

	serve(h, http.MethodGet, "/tea")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/tea", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 3, fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	assert.Equal(t, http.StatusInternalServerError, serve(h, http.MethodGet, "/").Code)
}
