package handler

import (
	"net/http"
	"strings"

	"linguaformula/internal/auth"
)

type RegistrationHandler struct {
	auth *auth.Provider
	rd   *Renderer
}

func NewRegistrationHandler(p *auth.Provider, rd *Renderer) *RegistrationHandler {
	return &RegistrationHandler{auth: p, rd: rd}
}

type registerForm struct {
	Email       string
	DisplayName string
}

func (h *RegistrationHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if auth.FromContext(r.Context()).SignedIn() {
		redirect(w, r, "/")
		return
	}
	p := h.rd.page(r, "Register")
	p.Data = registerForm{}
	h.rd.render(w, r, http.StatusOK, "register", p)
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := registerForm{
		Email:       strings.TrimSpace(r.FormValue("email")),
		DisplayName: strings.TrimSpace(r.FormValue("display_name")),
	}

	if _, err := h.auth.Register(w, r, form.Email, r.FormValue("password"), form.DisplayName); err != nil {
		p := h.rd.page(r, "Register")
		p.Error = err.Error()
		p.Data = form
		h.rd.render(w, r, http.StatusOK, "register", p)
		return
	}

	redirect(w, r, "/")
}
