package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"linguaformula/internal/auth"
	"linguaformula/internal/backend"
	"linguaformula/internal/catalog"
	"linguaformula/internal/entity"
)

var courseSortKeys = []string{string(catalog.SortByName), string(catalog.SortBySegment), string(catalog.SortByLabel)}

// allLinksSortKeys adds the course column of the cross-course table.
var allLinksSortKeys = append([]string{string(catalog.SortByCourse)}, courseSortKeys...)

// CourseHandler serves the signed-in user's courses and the formulas
// linked to them.
type CourseHandler struct {
	api    *backend.Client
	auth   *auth.Provider
	rd     *Renderer
	logger *zap.Logger
}

func NewCourseHandler(api *backend.Client, p *auth.Provider, rd *Renderer, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{api: api, auth: p, rd: rd, logger: logger}
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil && id > 0
}

type coursesView struct {
	Courses      []entity.Course
	Links        []entity.CourseFormula
	LinksError   string
	Total        int
	Filter       catalog.LinkFilter
	Sort         string
	Desc         bool
	SortKeys     []string
	SegmentTypes []string
}

// linkFilter reads the segment_type, q and sort query values shared by
// the link tables.
func linkFilter(q url.Values) (catalog.LinkFilter, catalog.SortKey, bool) {
	f := catalog.LinkFilter{
		SegmentType: q.Get("segment_type"),
		Query:       strings.TrimSpace(q.Get("q")),
	}
	if !entity.ValidSegmentType(f.SegmentType) {
		f.SegmentType = ""
	}
	return f, catalog.ParseSortKey(q.Get("sort")), q.Get("desc") == "1"
}

// CoursesPage lists the user's courses above a table of every formula
// linked to any of them.
func (h *CourseHandler) CoursesPage(w http.ResponseWriter, r *http.Request) {
	p := h.rd.page(r, "Courses")
	creds := h.auth.Credentials(r)

	view := coursesView{SortKeys: allLinksSortKeys, SegmentTypes: entity.SegmentTypes}
	var key catalog.SortKey
	view.Filter, key, view.Desc = linkFilter(r.URL.Query())
	if r.URL.Query().Get("sort") == "" {
		key = catalog.SortByCourse
	}
	view.Sort = string(key)

	// the link table is secondary; its failure must not hide the courses
	var (
		links    []entity.CourseFormula
		linksErr error
		g        errgroup.Group
	)
	ctx := r.Context()
	g.Go(func() error {
		var err error
		view.Courses, err = h.api.Courses(ctx, creds)
		return err
	})
	g.Go(func() error {
		links, linksErr = h.api.AllCourseFormulas(ctx, creds)
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Warn("load courses", zap.Error(err))
		p.Error = backend.Message(err, "Failed to load courses.")
	}
	if linksErr != nil {
		h.logger.Warn("load course formulas", zap.Error(linksErr))
		view.LinksError = backend.Message(linksErr, "Failed to load course formulas.")
	}

	view.Total = len(links)
	view.Links = catalog.SortLinks(catalog.FilterLinks(links, view.Filter), key, view.Desc)

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "courses", p)
}

type newCourseView struct {
	Step             int
	Type             string
	Institutions     []entity.Institution
	InstitutionID    int
	InstitutionName  string
	InstitutionError string
	CourseName       string
	CourseCode       string
}

func (h *CourseHandler) institutionName(insts []entity.Institution, id int) string {
	for _, in := range insts {
		if in.ID == id {
			return in.InstitutionName
		}
	}
	return ""
}

// NewCoursePage is the two-step create form: first personal project or
// institution, then the course details.
func (h *CourseHandler) NewCoursePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := newCourseView{Step: 1, Type: q.Get("type")}
	view.InstitutionID, _ = strconv.Atoi(q.Get("institution_id"))
	p := h.rd.page(r, "Add course")

	insts, err := h.api.Institutions(r.Context(), h.auth.Credentials(r))
	if err != nil {
		h.logger.Warn("load institutions", zap.Error(err))
		p.Error = backend.Message(err, "Failed to load institutions.")
	}
	view.Institutions = insts

	if q.Get("step") == "2" {
		switch {
		case view.Type != string(entity.CourseAcademic):
			view.Type = string(entity.CoursePersonal)
			view.InstitutionID = 0
			view.Step = 2
		case view.InstitutionID == 0:
			p.Error = "Please select your institution."
		default:
			view.InstitutionName = h.institutionName(insts, view.InstitutionID)
			view.Step = 2
		}
	}

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "course_new", p)
}

func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	view := newCourseView{
		Step:       2,
		Type:       string(entity.CoursePersonal),
		CourseName: strings.TrimSpace(r.FormValue("course_name")),
		CourseCode: strings.TrimSpace(r.FormValue("course_code")),
	}
	view.InstitutionID, _ = strconv.Atoi(r.FormValue("institution_id"))

	in := entity.NewCourse{CourseName: view.CourseName, CourseType: entity.CoursePersonal}
	if view.CourseCode != "" {
		in.CourseCode = &view.CourseCode
	}
	if view.InstitutionID > 0 {
		id := view.InstitutionID
		in.InstitutionID = &id
		in.CourseType = entity.CourseAcademic
		view.Type = string(entity.CourseAcademic)
	}

	p := h.rd.page(r, "Add course")
	if view.CourseName == "" {
		p.Error = "Course name is required."
	} else if _, err := h.api.CreateCourse(r.Context(), in, h.auth.Credentials(r)); err != nil {
		h.logger.Warn("create course", zap.Error(err))
		p.Error = backend.Message(err, "Failed to create course.")
	} else {
		redirect(w, r, "/courses")
		return
	}

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "course_new", p)
}

func (h *CourseHandler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	creds := h.auth.Credentials(r)
	in := entity.NewInstitution{
		InstitutionName: strings.TrimSpace(r.FormValue("institution_name")),
		Country:         strings.TrimSpace(r.FormValue("country")),
		Region:          strings.TrimSpace(r.FormValue("region")),
	}

	inst, err := h.api.CreateInstitution(ctx, in, creds)
	if err == nil {
		redirect(w, r, fmt.Sprintf("/courses/new?type=academic&institution_id=%d", inst.ID))
		return
	}

	h.logger.Warn("create institution", zap.Error(err))
	view := newCourseView{Step: 1, Type: string(entity.CourseAcademic)}
	view.InstitutionError = backend.Message(err, "Failed to add institution.")
	if insts, err := h.api.Institutions(ctx, creds); err == nil {
		view.Institutions = insts
	}
	p := h.rd.page(r, "Add course")
	p.Data = view
	h.rd.render(w, r, http.StatusOK, "course_new", p)
}

type courseView struct {
	CourseID     int
	Course       *entity.Course
	Links        []entity.CourseFormula
	Total        int
	Filter       catalog.LinkFilter
	Sort         string
	Desc         bool
	SortKeys     []string
	SegmentTypes []string
}

func (h *CourseHandler) CoursePage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.rd.NotFound(w, r)
		return
	}
	h.renderCourse(w, r, id, "")
}

func (h *CourseHandler) renderCourse(w http.ResponseWriter, r *http.Request, id int, errMsg string) {
	q := r.URL.Query()
	creds := h.auth.Credentials(r)
	p := h.rd.page(r, "Course")
	p.Error = errMsg

	view := courseView{
		CourseID:     id,
		SortKeys:     courseSortKeys,
		SegmentTypes: entity.SegmentTypes,
	}
	var key catalog.SortKey
	view.Filter, key, view.Desc = linkFilter(q)
	if key == catalog.SortByCourse {
		key = catalog.SortByName
	}
	view.Sort = string(key)

	var links []entity.CourseFormula
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		view.Course, err = h.api.Course(gctx, id, creds)
		return err
	})
	g.Go(func() error {
		var err error
		links, err = h.api.CourseFormulas(gctx, id, creds)
		return err
	})

	status := http.StatusOK
	if err := g.Wait(); err != nil {
		h.logger.Warn("load course", zap.Int("course_id", id), zap.Error(err))
		if backend.StatusCode(err) == http.StatusNotFound {
			status = http.StatusNotFound
		}
		if p.Error == "" {
			p.Error = backend.Message(err, "Failed to load course.")
		}
	}
	if view.Course != nil {
		p.Title = view.Course.CourseName
	}

	view.Total = len(links)
	view.Links = catalog.SortLinks(catalog.FilterLinks(links, view.Filter), catalog.SortKey(view.Sort), view.Desc)

	p.Data = view
	h.rd.render(w, r, status, "course", p)
}

func segmentOf(r *http.Request) entity.Segment {
	var seg entity.Segment
	if t := r.FormValue("segment_type"); entity.ValidSegmentType(t) {
		seg.Type = &t
	}
	if l := strings.TrimSpace(r.FormValue("segment_label")); l != "" {
		seg.Label = &l
	}
	return seg
}

// LinkFormula adds a formula to a course. The course comes from the path
// or, for the formula page form, from the course_id field.
func (h *CourseHandler) LinkFormula(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	courseID, ok := pathID(r, "id")
	if !ok {
		courseID, _ = strconv.Atoi(r.FormValue("course_id"))
	}
	formulaID, _ := strconv.Atoi(r.FormValue("formula_id"))
	if courseID <= 0 || formulaID <= 0 {
		http.Error(w, "course and formula are required", http.StatusBadRequest)
		return
	}

	if err := h.api.LinkFormula(r.Context(), courseID, formulaID, segmentOf(r), h.auth.Credentials(r)); err != nil {
		h.logger.Warn("link formula", zap.Int("course_id", courseID), zap.Int("formula_id", formulaID), zap.Error(err))
		h.renderCourse(w, r, courseID, backend.Message(err, "Failed to add formula to course."))
		return
	}
	redirect(w, r, fmt.Sprintf("/courses/%d", courseID))
}

func (h *CourseHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	courseID, ok1 := pathID(r, "id")
	formulaID, ok2 := pathID(r, "fid")
	if !ok1 || !ok2 {
		h.rd.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := h.api.UpdateCourseFormula(r.Context(), courseID, formulaID, segmentOf(r), h.auth.Credentials(r)); err != nil {
		h.logger.Warn("update link", zap.Int("course_id", courseID), zap.Int("formula_id", formulaID), zap.Error(err))
		h.renderCourse(w, r, courseID, backend.Message(err, "Failed to update segment."))
		return
	}
	redirect(w, r, fmt.Sprintf("/courses/%d", courseID))
}

func (h *CourseHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	courseID, ok1 := pathID(r, "id")
	formulaID, ok2 := pathID(r, "fid")
	if !ok1 || !ok2 {
		h.rd.NotFound(w, r)
		return
	}

	if err := h.api.UnlinkFormula(r.Context(), courseID, formulaID, h.auth.Credentials(r)); err != nil {
		h.logger.Warn("unlink formula", zap.Int("course_id", courseID), zap.Int("formula_id", formulaID), zap.Error(err))
		h.renderCourse(w, r, courseID, backend.Message(err, "Failed to remove formula."))
		return
	}
	redirect(w, r, fmt.Sprintf("/courses/%d", courseID))
}

func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.rd.NotFound(w, r)
		return
	}

	if err := h.api.DeleteCourse(r.Context(), id, h.auth.Credentials(r)); err != nil {
		h.logger.Warn("delete course", zap.Int("course_id", id), zap.Error(err))
		h.renderCourse(w, r, id, backend.Message(err, "Failed to delete course."))
		return
	}
	redirect(w, r, "/courses")
}
