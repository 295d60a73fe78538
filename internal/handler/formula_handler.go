package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"linguaformula/internal/auth"
	"linguaformula/internal/backend"
	"linguaformula/internal/entity"
)

type FormulaHandler struct {
	api    *backend.Client
	auth   *auth.Provider
	rd     *Renderer
	logger *zap.Logger
}

func NewFormulaHandler(api *backend.Client, p *auth.Provider, rd *Renderer, logger *zap.Logger) *FormulaHandler {
	return &FormulaHandler{api: api, auth: p, rd: rd, logger: logger}
}

type formulasView struct {
	filterView
	Formulas []entity.Formula
}

func (h *FormulaHandler) FormulasPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := disciplineFilter(r.URL.Query())
	p := h.rd.page(r, "Formulas")

	var (
		ds       []entity.Discipline
		formulas []entity.Formula
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
		formulas, err = h.api.Formulas(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Warn("load formulas", zap.Error(err))
		p.Error = backend.Message(err, "Failed to load formulas.")
	}

	p.Data = formulasView{filterView: newFilterView(ds, f), Formulas: formulas}
	h.rd.render(w, r, http.StatusOK, "formulas", p)
}

type formulaView struct {
	Formula      *entity.Formula
	BackURL      string
	Courses      []entity.Course
	SegmentTypes []string
}

func (h *FormulaHandler) FormulaPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.rd.NotFound(w, r)
		return
	}

	ctx := r.Context()
	st := auth.FromContext(ctx)
	p := h.rd.page(r, "Formula")
	view := formulaView{
		BackURL:      withQuery("/formulas", filterQuery(disciplineFilter(r.URL.Query()))),
		SegmentTypes: entity.SegmentTypes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Formula, err = h.api.Formula(gctx, id)
		return err
	})
	if st.SignedIn() {
		creds := h.auth.Credentials(r)
		g.Go(func() error {
			var err error
			if view.Courses, err = h.api.Courses(gctx, creds); err != nil {
				h.logger.Warn("load courses", zap.Error(err))
			}
			return nil
		})
	}

	status := http.StatusOK
	if err := g.Wait(); err != nil {
		h.logger.Warn("load formula", zap.Int("formula_id", id), zap.Error(err))
		if backend.StatusCode(err) == http.StatusNotFound {
			status = http.StatusNotFound
		}
		p.Error = backend.Message(err, "Failed to load formula.")
		view.Formula = nil
	}
	if view.Formula != nil {
		p.Title = view.Formula.FormulaName
	}

	p.Data = view
	h.rd.render(w, r, status, "formula", p)
}
