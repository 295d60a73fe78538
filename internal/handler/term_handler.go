package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"linguaformula/internal/backend"
	"linguaformula/internal/catalog"
	"linguaformula/internal/entity"
)

type TermHandler struct {
	api    *backend.Client
	rd     *Renderer
	logger *zap.Logger
}

func NewTermHandler(api *backend.Client, rd *Renderer, logger *zap.Logger) *TermHandler {
	return &TermHandler{api: api, rd: rd, logger: logger}
}

type termsView struct {
	filterView
	Name       string
	Definition string
	Terms      []entity.Term
	Total      int
}

func (h *TermHandler) TermsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	f := disciplineFilter(q)
	p := h.rd.page(r, "Terms")

	var (
		ds    []entity.Discipline
		terms []entity.Term
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ds, err = h.api.Disciplines(gctx); err != nil {
			h.logger.Warn("load disciplines", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		terms, err = h.api.Terms(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Warn("load terms", zap.Error(err))
		p.Error = backend.Message(err, "Failed to load terms.")
	}

	view := termsView{
		filterView: newFilterView(ds, f),
		Name:       strings.TrimSpace(q.Get("name")),
		Definition: strings.TrimSpace(q.Get("definition")),
		Total:      len(terms),
	}
	view.Terms = catalog.FilterTerms(catalog.SortTerms(terms), view.Name, view.Definition)

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "terms", p)
}

type termView struct {
	Term    *entity.Term
	BackURL string
}

func (h *TermHandler) TermPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.rd.NotFound(w, r)
		return
	}

	p := h.rd.page(r, "Term")
	view := termView{BackURL: withQuery("/terms", filterQuery(disciplineFilter(r.URL.Query())))}

	status := http.StatusOK
	term, err := h.api.Term(r.Context(), id)
	if err != nil {
		h.logger.Warn("load term", zap.Int("term_id", id), zap.Error(err))
		if backend.StatusCode(err) == http.StatusNotFound {
			status = http.StatusNotFound
		}
		p.Error = backend.Message(err, "Failed to load term.")
	} else {
		view.Term = term
		p.Title = term.TermName
	}

	p.Data = view
	h.rd.render(w, r, status, "term", p)
}
