package handler

import (
	"io"
	"net/http"

	"linguaformula/internal/middleware"
)

type HomeHandler struct {
	rd            *Renderer
	secureCookies bool
}

func NewHomeHandler(rd *Renderer, secureCookies bool) *HomeHandler {
	return &HomeHandler{rd: rd, secureCookies: secureCookies}
}

type homeView struct {
	SignedOut bool
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "")
	p.Data = homeView{SignedOut: r.URL.Query().Get("signedOut") == "1"}
	h.rd.render(w, r, http.StatusOK, "home", p)
}

func (h *HomeHandler) SIPage(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusOK, "si", h.rd.page(r, "SI Units"))
}

// Contrast stores the high-contrast preference and returns to the page
// the toggle was pressed on.
func (h *HomeHandler) Contrast(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	middleware.SetHighContrast(w, r.FormValue("on") == "1", h.secureCookies)
	redirect(w, r, middleware.SafeRedirect(r.FormValue("from")))
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}
