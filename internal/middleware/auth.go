package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"linguaformula/internal/auth"
)

// Refetcher resolves the session of a request.
type Refetcher interface {
	Refetch(w http.ResponseWriter, r *http.Request) auth.State
}

var skipBootstrap = []string{
	"/static/",
	"/api/",
	"/healthz",
}

// Bootstrap runs the session check once per page request and stores the
// resolved state in the context.
func Bootstrap(p Refetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipBootstrap {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			st := p.Refetch(w, r)
			next.ServeHTTP(w, r.WithContext(auth.WithState(r.Context(), st)))
		})
	}
}

// SignInURL is where RequireAuth sends visitors, with the page to come
// back to.
func SignInURL(from string) string {
	if from == "" || from == "/" {
		return "/sign-in"
	}
	return "/sign-in?from=" + url.QueryEscape(from)
}

// RequireAuth redirects visitors without an active session to sign in.
// Only GET pages remember where they came from.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()).SignedIn() {
			next.ServeHTTP(w, r)
			return
		}
		from := ""
		if r.Method == http.MethodGet {
			from = r.URL.RequestURI()
		}
		http.Redirect(w, r, SignInURL(from), http.StatusSeeOther)
	})
}

// RequireAdmin lets only admins through; signed-out visitors go to sign
// in, everyone else home.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.FromContext(r.Context()).IsAdmin() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// SafeRedirect returns from when it is a local path, else "/".
func SafeRedirect(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, "\\") {
		return "/"
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return from
}
