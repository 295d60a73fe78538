package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"linguaformula/internal/auth"
	"linguaformula/internal/entity"
	"linguaformula/internal/middleware"
	"linguaformula/internal/templates"
)

// Page is the data every template receives.
type Page struct {
	Title        string
	User         *entity.User
	SignedIn     bool
	IsAdmin      bool
	HighContrast bool
	Path         string
	Error        string
	Message      string
	Data         any
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	pages, err := templates.ParseAll()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

func (rd *Renderer) page(r *http.Request, title string) *Page {
	st := auth.FromContext(r.Context())
	return &Page{
		Title:        title,
		User:         st.User,
		SignedIn:     st.SignedIn(),
		IsAdmin:      st.IsAdmin(),
		HighContrast: middleware.HighContrastFrom(r.Context()),
		Path:         r.URL.RequestURI(),
	}
}

func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, p *Page) {
	t, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("unknown template", zap.String("template", name))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		rd.logger.Error("render failed",
			zap.String("template", name),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.render(w, r, http.StatusNotFound, "not_found", rd.page(r, "Not found"))
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return fmt.Sprintf("%s?%s", path, query)
}
