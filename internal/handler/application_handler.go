package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"linguaformula/internal/backend"
	"linguaformula/internal/entity"
)

var (
	subjectAreas = []string{"physics", "statistics", "mathematics", "chemistry", "engineering", "other"}
	difficulties = []string{"beginner", "intermediate", "advanced"}
)

type ApplicationHandler struct {
	api    *backend.Client
	rd     *Renderer
	logger *zap.Logger
}

func NewApplicationHandler(api *backend.Client, rd *Renderer, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{api: api, rd: rd, logger: logger}
}

type applicationsView struct {
	Applications []entity.Application
}

type applicationForm struct {
	Form         entity.NewApplication
	Subjects     []string
	Difficulties []string
}

func (h *ApplicationHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "Applications")
	apps, err := h.api.Applications(r.Context())
	if err != nil {
		h.logger.Warn("load applications", zap.Error(err))
		p.Error = backend.Message(err, "Failed to load applications.")
	}
	p.Data = applicationsView{Applications: apps}
	h.rd.render(w, r, http.StatusOK, "applications", p)
}

func (h *ApplicationHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "Add an application")
	p.Data = applicationForm{Subjects: subjectAreas, Difficulties: difficulties}
	h.rd.render(w, r, http.StatusOK, "application_create", p)
}

func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in := entity.NewApplication{
		Title:           strings.TrimSpace(r.FormValue("title")),
		ProblemText:     strings.TrimSpace(r.FormValue("problem_text")),
		SubjectArea:     strings.TrimSpace(r.FormValue("subject_area")),
		DifficultyLevel: strings.TrimSpace(r.FormValue("difficulty_level")),
	}

	p := h.rd.page(r, "Add an application")
	if in.Title == "" || in.ProblemText == "" {
		p.Error = "Title and problem text are required"
	} else if err := h.api.CreateApplication(r.Context(), in); err != nil {
		h.logger.Warn("create application", zap.Error(err))
		p.Error = backend.Message(err, "An error occurred")
	} else {
		redirect(w, r, "/applications")
		return
	}

	p.Data = applicationForm{Form: in, Subjects: subjectAreas, Difficulties: difficulties}
	h.rd.render(w, r, http.StatusOK, "application_create", p)
}
