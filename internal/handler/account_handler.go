package handler

import (
	"net/http"
	"strings"

	"linguaformula/internal/auth"
	"linguaformula/internal/entity"
)

type AccountHandler struct {
	auth *auth.Provider
	rd   *Renderer
}

func NewAccountHandler(p *auth.Provider, rd *Renderer) *AccountHandler {
	return &AccountHandler{auth: p, rd: rd}
}

type accountForm struct {
	Email           string
	DisplayName     string
	PasswordError   string
	PasswordMessage string
}

func formOf(u *entity.User) accountForm {
	if u == nil {
		return accountForm{}
	}
	f := accountForm{Email: u.Email}
	if u.DisplayName != nil {
		f.DisplayName = *u.DisplayName
	}
	return f
}

func (h *AccountHandler) AccountPage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "Account")
	p.Data = formOf(p.User)
	h.rd.render(w, r, http.StatusOK, "account", p)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	p := h.rd.page(r, "Account")

	user, err := h.auth.UpdateProfile(w, r, entity.ProfileUpdate{Email: &email, DisplayName: &displayName})
	if err != nil {
		p.Error = err.Error()
		p.Data = accountForm{Email: email, DisplayName: displayName}
		h.rd.render(w, r, http.StatusOK, "account", p)
		return
	}

	if user != nil {
		p.User = user
	}
	p.Message = "Profile updated."
	p.Data = formOf(p.User)
	h.rd.render(w, r, http.StatusOK, "account", p)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	p := h.rd.page(r, "Account")
	form := formOf(p.User)

	if _, err := h.auth.UpdateProfile(w, r, entity.ProfileUpdate{CurrentPassword: &current, NewPassword: &next}); err != nil {
		form.PasswordError = err.Error()
	} else {
		form.PasswordMessage = "Password updated."
	}

	p.Data = form
	h.rd.render(w, r, http.StatusOK, "account", p)
}
