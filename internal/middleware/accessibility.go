package middleware

import (
	"context"
	"net/http"
)

// HighContrastCookie holds "1" when the visitor asked for high contrast.
const HighContrastCookie = "linguaformula_high_contrast"

type highContrastKey struct{}

func HighContrastFrom(ctx context.Context) bool {
	on, _ := ctx.Value(highContrastKey{}).(bool)
	return on
}

func WithHighContrast(ctx context.Context, on bool) context.Context {
	return context.WithValue(ctx, highContrastKey{}, on)
}

// Accessibility reads the contrast preference into the request context.
func Accessibility(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		on := false
		if c, err := r.Cookie(HighContrastCookie); err == nil {
			on = c.Value == "1"
		}
		next.ServeHTTP(w, r.WithContext(WithHighContrast(r.Context(), on)))
	})
}

// SetHighContrast stores the preference for a year.
func SetHighContrast(w http.ResponseWriter, on bool, secure bool) {
	v := "0"
	if on {
		v = "1"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     HighContrastCookie,
		Value:    v,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
