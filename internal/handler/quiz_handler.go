package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"linguaformula/internal/auth"
	"linguaformula/internal/backend"
	"linguaformula/internal/catalog"
	"linguaformula/internal/entity"
	"linguaformula/internal/quiz"
)

const recordTimeout = 5 * time.Second

type QuizHandler struct {
	api      *backend.Client
	auth     *auth.Provider
	rd       *Renderer
	attempts AttemptStore
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewQuizHandler takes a nil attempts store when no database is
// configured; answers are then graded but not recorded.
func NewQuizHandler(api *backend.Client, p *auth.Provider, rd *Renderer, attempts AttemptStore, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{api: api, auth: p, rd: rd, attempts: attempts, logger: logger}
}

// Wait blocks until attempts being recorded are stored.
func (h *QuizHandler) Wait() {
	h.wg.Wait()
}

type quizView struct {
	Heading      string
	Subtitle     string
	BackURL      string
	BackLabel    string
	FinishLabel  string
	Action       string
	NextURL      string
	Question     *entity.Question
	Index        int
	Total        int
	Result       *quiz.Result
	Empty        bool
	EmptyMessage string
}

// prepare orders the questions and picks the one at index, clamped to the
// list.
func prepare(qs []entity.Question, index int) ([]entity.Question, *entity.Question, int) {
	qs = quiz.SortedQuestions(qs)
	if len(qs) == 0 {
		return qs, nil, 0
	}
	if index < 0 || index >= len(qs) {
		index = 0
	}
	q := qs[index]
	q.Answers = quiz.SortedAnswers(q.Answers)
	q.Parts = quiz.SortedParts(q.Parts)
	for i := range q.Parts {
		q.Parts[i].Answers = quiz.SortedAnswers(q.Parts[i].Answers)
	}
	return qs, &q, index
}

func questionIndex(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// answerOf reads the submitted answer for q from the form. It also returns
// a readable form of the answer for the attempt history.
func answerOf(r *http.Request, q *entity.Question) (quiz.Answer, string) {
	var a quiz.Answer
	switch q.QuestionType {
	case entity.MultipleChoice, entity.TrueFalse:
		id, err := strconv.Atoi(r.FormValue("answer"))
		if err != nil {
			return a, ""
		}
		a.SelectedID = &id
		for _, opt := range q.Answers {
			if opt.AnswerID == id {
				return a, opt.AnswerText
			}
		}
		return a, strconv.Itoa(id)
	case entity.Multipart:
		a.Parts = make(map[int]string, len(q.Parts))
		var shown []string
		for _, p := range q.Parts {
			v := r.FormValue(fmt.Sprintf("part_%d", p.QuestionID))
			a.Parts[p.QuestionID] = v
			shown = append(shown, fmt.Sprintf("(%s) %s", p.PartLabel, strings.TrimSpace(v)))
		}
		return a, strings.Join(shown, "; ")
	default:
		a.Text = r.FormValue("text")
		return a, strings.TrimSpace(a.Text)
	}
}

// formulaNames maps formula ids to the names stored with attempts.
type formulaNames map[int]string

func (n formulaNames) of(q *entity.Question) string {
	if q.FormulaID == nil {
		return ""
	}
	return n[*q.FormulaID]
}

// linkNames collects the formula names of a course's links.
func linkNames(links []entity.CourseFormula) formulaNames {
	names := make(formulaNames, len(links))
	for _, l := range links {
		names[l.FormulaID] = l.FormulaName
	}
	return names
}

// record stores a graded answer without holding up the response.
func (h *QuizHandler) record(r *http.Request, q *entity.Question, formulaName string, courseID *int, shown string, res quiz.Result) {
	st := auth.FromContext(r.Context())
	if h.attempts == nil || !st.SignedIn() {
		return
	}
	// nothing was answered
	if !res.Correct && (res.Message == "Please select an answer." || res.Message == "Please enter an answer.") {
		return
	}

	at := entity.NewAttempt(st.User.ID, *q, shown, res.Correct)
	at.FormulaName = formulaName
	at.CourseID = courseID

	ctx := context.WithoutCancel(r.Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, recordTimeout)
		defer cancel()
		if err := h.attempts.SaveAttempt(ctx, at); err != nil {
			h.logger.Warn("record attempt",
				zap.Int("user_id", at.UserID),
				zap.Int("question_id", at.QuestionID),
				zap.Error(err))
		}
	}()
}

func (h *QuizHandler) FormulaQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.rd.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	p := h.rd.page(r, "Quiz")
	back := fmt.Sprintf("/formula/%d", id)
	view := quizView{
		Heading:      "Quiz",
		BackURL:      back,
		BackLabel:    "← Back to Formula",
		FinishLabel:  "Back to Formula",
		Action:       back + "/quiz",
		EmptyMessage: "No questions for this formula yet.",
	}

	var (
		formula   *entity.Formula
		questions []entity.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if formula, err = h.api.Formula(gctx, id); err != nil {
			h.logger.Debug("load formula for quiz", zap.Int("formula_id", id), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		questions, err = h.api.FormulaQuestions(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Warn("load quiz", zap.Int("formula_id", id), zap.Error(err))
		p.Error = backend.Message(err, "Failed to load questions.")
		p.Data = view
		h.rd.render(w, r, http.StatusOK, "quiz", p)
		return
	}

	names := formulaNames{}
	if formula != nil {
		names[id] = formula.FormulaName
		view.Heading = "Quiz: " + formula.FormulaName
		p.Title = view.Heading
	}
	h.show(w, r, p, &view, questions, names, nil, func(i int) string {
		return fmt.Sprintf("%s/quiz?q=%d", back, i)
	})
}

// show renders the current question and, on POST, grades it first.
func (h *QuizHandler) show(w http.ResponseWriter, r *http.Request, p *Page, view *quizView,
	questions []entity.Question, names formulaNames, courseID *int, link func(int) string) {

	qs, q, index := prepare(questions, questionIndex(r.FormValue("q")))
	if q == nil {
		view.Empty = true
		p.Data = *view
		h.rd.render(w, r, http.StatusOK, "quiz", p)
		return
	}

	view.Question = q
	view.Index = index
	view.Total = len(qs)

	if r.Method == http.MethodPost {
		a, shown := answerOf(r, q)
		res := quiz.Grade(*q, a)
		view.Result = &res
		if index+1 < len(qs) {
			view.NextURL = link(index + 1)
		}
		h.record(r, q, names.of(q), courseID, shown, res)
	}

	p.Data = *view
	h.rd.render(w, r, http.StatusOK, "quiz", p)
}

type selfTestView struct {
	Courses      []entity.Course
	CourseID     int
	SegmentTypes []string
	SegmentType  string
	SegmentLabel string
	Labels       []string
	NoQuestions  bool
}

// SelfTesting lets the user pick a course and segment, then runs a quiz
// over the questions of every formula linked to it.
func (h *QuizHandler) SelfTesting(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	creds := h.auth.Credentials(r)
	p := h.rd.page(r, "Self-testing")

	view := selfTestView{
		SegmentTypes: entity.SegmentTypes,
		SegmentType:  q.Get("segment_type"),
		SegmentLabel: q.Get("segment_label"),
	}
	view.CourseID, _ = strconv.Atoi(q.Get("course"))
	seg := backend.SegmentQuery{Type: view.SegmentType, Label: view.SegmentLabel}

	if q.Get("start") == "1" && view.CourseID > 0 {
		cq, err := h.api.CourseQuestions(ctx, view.CourseID, seg, creds)
		if err == nil && len(cq.Questions) > 0 {
			h.runCourseQuiz(w, r, p, view.CourseID, seg, cq)
			return
		}
		if err != nil {
			h.logger.Warn("load course questions", zap.Int("course_id", view.CourseID), zap.Error(err))
			p.Error = backend.Message(err, "Failed to load questions")
		} else {
			view.NoQuestions = true
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if view.Courses, err = h.api.Courses(gctx, creds); err != nil {
			h.logger.Warn("load courses", zap.Error(err))
		}
		return nil
	})
	if view.CourseID > 0 {
		g.Go(func() error {
			links, err := h.api.CourseFormulas(gctx, view.CourseID, creds)
			if err != nil {
				h.logger.Debug("load segment labels", zap.Int("course_id", view.CourseID), zap.Error(err))
				return nil
			}
			view.Labels = catalog.SegmentLabels(links)
			return nil
		})
	}
	g.Wait()

	p.Data = view
	h.rd.render(w, r, http.StatusOK, "self_testing", p)
}

func (h *QuizHandler) runCourseQuiz(w http.ResponseWriter, r *http.Request, p *Page,
	courseID int, seg backend.SegmentQuery, cq *entity.CourseQuestions) {

	params := url.Values{}
	params.Set("course", strconv.Itoa(courseID))
	if seg.Type != "" {
		params.Set("segment_type", seg.Type)
	}
	if seg.Label != "" {
		params.Set("segment_label", seg.Label)
	}
	params.Set("start", "1")
	base := "/self-testing?" + params.Encode()

	subtitle := cq.CourseName + " — "
	if cq.CourseCode != nil && *cq.CourseCode != "" {
		subtitle = *cq.CourseCode + ": " + subtitle
	}

	view := quizView{
		Heading:     "Self-testing",
		Subtitle:    subtitle,
		BackURL:     "/self-testing?course=" + strconv.Itoa(courseID),
		BackLabel:   "← Back to course selection",
		FinishLabel: "Finish — choose another course",
		Action:      base,
	}
	var names formulaNames
	if r.Method == http.MethodPost && h.attempts != nil {
		links, err := h.api.CourseFormulas(r.Context(), courseID, h.auth.Credentials(r))
		if err != nil {
			h.logger.Debug("load formula names", zap.Int("course_id", courseID), zap.Error(err))
		}
		names = linkNames(links)
	}
	h.show(w, r, p, &view, cq.Questions, names, &courseID, func(i int) string {
		return fmt.Sprintf("%s&q=%d", base, i)
	})
}
