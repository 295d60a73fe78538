package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"linguaformula/internal/auth"
	"linguaformula/internal/proxy"
)

const msgGeneric = "Something went wrong. Please try again."

// PasswordHandler serves the forgot and reset password pages. Both submit
// through the same forwarder as the JSON proxy routes.
type PasswordHandler struct {
	fwd *proxy.Forwarder
	rd  *Renderer
}

func NewPasswordHandler(fwd *proxy.Forwarder, rd *Renderer) *PasswordHandler {
	return &PasswordHandler{fwd: fwd, rd: rd}
}

type forgotForm struct {
	Email string
	Sent  bool
}

type resetForm struct {
	Token string
	Done  bool
}

// okBody is the success envelope of both reset endpoints.
type okBody struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (h *PasswordHandler) ForgotPage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "Forgot password")
	p.Data = forgotForm{}
	h.rd.render(w, r, http.StatusOK, "forgot_password", p)
}

func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	body, _ := json.Marshal(map[string]string{"email": email})
	rep := h.fwd.Forward(r.Context(), proxy.ForgotPasswordPath, body)

	p := h.rd.page(r, "Forgot password")
	var ok okBody
	_ = json.Unmarshal(rep.Body, &ok)

	if rep.OK() && ok.OK {
		p.Message = ok.Message
		if p.Message == "" {
			p.Message = "If an account exists with that email, we've sent a reset link."
		}
		p.Data = forgotForm{Sent: true}
	} else {
		p.Error = rep.Error()
		if p.Error == "" {
			p.Error = msgGeneric
		}
		p.Data = forgotForm{Email: email}
	}
	h.rd.render(w, r, http.StatusOK, "forgot_password", p)
}

func (h *PasswordHandler) ResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	p := h.rd.page(r, "Reset password")
	if token == "" {
		p.Error = "Missing reset link. Use the link from your email or request a new one."
	}
	p.Data = resetForm{Token: token}
	h.rd.render(w, r, http.StatusOK, "reset_password", p)
}

func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("new_password")
	p := h.rd.page(r, "Reset password")
	p.Data = resetForm{Token: token}

	switch {
	case token == "":
		p.Error = "Missing reset link. Use the link from your email or request a new one."
	case password != r.FormValue("confirm_password"):
		p.Error = "Passwords do not match."
	case len(password) < auth.MinPasswordLength:
		p.Error = "Password must be at least 8 characters."
	}
	if p.Error != "" {
		h.rd.render(w, r, http.StatusOK, "reset_password", p)
		return
	}

	body, _ := json.Marshal(map[string]string{"token": token, "new_password": password})
	rep := h.fwd.Forward(r.Context(), proxy.ResetPasswordPath, body)

	var ok okBody
	_ = json.Unmarshal(rep.Body, &ok)
	if rep.OK() && ok.OK {
		p.Data = resetForm{Done: true}
	} else {
		p.Error = rep.Error()
		if p.Error == "" {
			p.Error = "Reset failed. The link may have expired. Request a new one."
		}
	}
	h.rd.render(w, r, http.StatusOK, "reset_password", p)
}
