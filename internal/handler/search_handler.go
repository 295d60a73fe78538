package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"linguaformula/internal/backend"
	"linguaformula/internal/entity"
)

type SearchHandler struct {
	api    *backend.Client
	rd     *Renderer
	logger *zap.Logger
}

func NewSearchHandler(api *backend.Client, rd *Renderer, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{api: api, rd: rd, logger: logger}
}

type searchView struct {
	Query    string
	Searched bool
	Formulas []entity.Formula

	Problem string
	Matched bool
	Matches []entity.ProblemMatch
}

func (h *SearchHandler) SearchPage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "Search")
	view := searchView{Query: strings.TrimSpace(r.URL.Query().Get("q"))}

	if _, ok := r.URL.Query()["q"]; ok {
		formulas, err := h.api.SearchFormulas(r.Context(), view.Query)
		if err != nil {
			h.logger.Warn("search formulas", zap.String("q", view.Query), zap.Error(err))
			p.Error = backend.Message(err, "Search failed.")
		} else {
			view.Searched = true
			view.Formulas = formulas
		}
	}

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "search", p)
}

func (h *SearchHandler) MatchProblem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p := h.rd.page(r, "Search")
	view := searchView{Problem: strings.TrimSpace(r.FormValue("problem_text"))}

	if view.Problem == "" {
		p.Error = "Please enter a problem description"
	} else {
		res, err := h.api.MatchProblem(r.Context(), view.Problem)
		if err != nil {
			h.logger.Warn("match problem", zap.Error(err))
			p.Error = backend.Message(err, "Search failed.")
		} else {
			view.Matched = true
			view.Matches = res.Matches
		}
	}

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "search", p)
}
