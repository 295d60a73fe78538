package handler

import (
	"net/http"
	"strings"

	"linguaformula/internal/auth"
	"linguaformula/internal/middleware"
)

type LoginHandler struct {
	auth *auth.Provider
	rd   *Renderer
}

func NewLoginHandler(p *auth.Provider, rd *Renderer) *LoginHandler {
	return &LoginHandler{auth: p, rd: rd}
}

type signInForm struct {
	Email string
	From  string
}

func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if auth.FromContext(r.Context()).SignedIn() {
		redirect(w, r, middleware.SafeRedirect(from))
		return
	}

	p := h.rd.page(r, "Sign in")
	p.Data = signInForm{From: from}
	h.rd.render(w, r, http.StatusOK, "sign_in", p)
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	from := r.FormValue("from")

	if _, err := h.auth.Login(w, r, email, password); err != nil {
		p := h.rd.page(r, "Sign in")
		p.Error = err.Error()
		p.Data = signInForm{Email: email, From: from}
		h.rd.render(w, r, http.StatusOK, "sign_in", p)
		return
	}

	redirect(w, r, middleware.SafeRedirect(from))
}

func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(w, r)
	redirect(w, r, "/?signedOut=1")
}
