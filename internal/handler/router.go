package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"linguaformula/internal/auth"
	"linguaformula/internal/backend"
	"linguaformula/internal/middleware"
	"linguaformula/internal/proxy"
	"linguaformula/internal/templates"
)

// Deps are the services the pages are built on. Attempts and Progress
// stay nil when no database is configured.
type Deps struct {
	API           *backend.Client
	Auth          *auth.Provider
	Proxy         *proxy.Forwarder
	Attempts      AttemptStore
	Progress      ProgressReader
	Logger        *zap.Logger
	SecureCookies bool
}

// Router is the whole site behind its middleware chain.
type Router struct {
	handler http.Handler
	quiz    *QuizHandler
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Wait blocks until background work started by requests is done.
func (rt *Router) Wait() {
	rt.quiz.Wait()
}

func NewRouter(d Deps) (*Router, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rd, err := NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	home := NewHomeHandler(rd, d.SecureCookies)
	login := NewLoginHandler(d.Auth, rd)
	registration := NewRegistrationHandler(d.Auth, rd)
	account := NewAccountHandler(d.Auth, rd)
	stats := NewStatsHandler(rd, d.Progress, d.Attempts, logger)
	password := NewPasswordHandler(d.Proxy, rd)
	formulas := NewFormulaHandler(d.API, d.Auth, rd, logger)
	quizzes := NewQuizHandler(d.API, d.Auth, rd, d.Attempts, logger)
	terms := NewTermHandler(d.API, rd, logger)
	search := NewSearchHandler(d.API, rd, logger)
	apps := NewApplicationHandler(d.API, rd, logger)
	courses := NewCourseHandler(d.API, d.Auth, rd, logger)
	admins := NewAdminHandler(d.API, d.Auth, rd, logger)

	user := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(rd.NotFound)

	r.HandleFunc("/", home.HomePage).Methods(http.MethodGet)
	r.HandleFunc("/si", home.SIPage).Methods(http.MethodGet)
	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)
	r.HandleFunc("/accessibility/contrast", home.Contrast).Methods(http.MethodPost)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(templates.Static())))

	r.HandleFunc("/sign-in", login.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/sign-in", login.Login).Methods(http.MethodPost)
	r.HandleFunc("/sign-out", login.Logout).Methods(http.MethodPost)
	r.HandleFunc("/register", registration.RegisterPage).Methods(http.MethodGet)
	r.HandleFunc("/register", registration.Register).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", password.ForgotPage).Methods(http.MethodGet)
	r.HandleFunc("/forgot-password", password.Forgot).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", password.ResetPage).Methods(http.MethodGet)
	r.HandleFunc("/reset-password", password.Reset).Methods(http.MethodPost)

	r.Handle("/account", user(account.AccountPage)).Methods(http.MethodGet)
	r.Handle("/account", user(account.UpdateProfile)).Methods(http.MethodPost)
	r.Handle("/account/password", user(account.ChangePassword)).Methods(http.MethodPost)
	r.Handle("/account/progress", user(stats.StatsPage)).Methods(http.MethodGet)
	r.Handle("/account/progress.json", user(stats.GetStats)).Methods(http.MethodGet)

	r.HandleFunc("/formulas", formulas.FormulasPage).Methods(http.MethodGet)
	r.HandleFunc("/formula/{id:[0-9]+}", formulas.FormulaPage).Methods(http.MethodGet)
	r.HandleFunc("/formula/{id:[0-9]+}/quiz", quizzes.FormulaQuiz).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/terms", terms.TermsPage).Methods(http.MethodGet)
	r.HandleFunc("/term/{id:[0-9]+}", terms.TermPage).Methods(http.MethodGet)
	r.HandleFunc("/search", search.SearchPage).Methods(http.MethodGet)
	r.HandleFunc("/search", search.MatchProblem).Methods(http.MethodPost)
	r.HandleFunc("/applications", apps.ListPage).Methods(http.MethodGet)
	r.HandleFunc("/applications/create", apps.CreatePage).Methods(http.MethodGet)
	r.HandleFunc("/applications/create", apps.Create).Methods(http.MethodPost)

	r.Handle("/courses", user(courses.CoursesPage)).Methods(http.MethodGet)
	r.Handle("/courses/new", user(courses.NewCoursePage)).Methods(http.MethodGet)
	r.Handle("/courses/new", user(courses.CreateCourse)).Methods(http.MethodPost)
	r.Handle("/courses/link", user(courses.LinkFormula)).Methods(http.MethodPost)
	r.Handle("/institutions", user(courses.CreateInstitution)).Methods(http.MethodPost)
	r.Handle("/courses/{id:[0-9]+}", user(courses.CoursePage)).Methods(http.MethodGet)
	r.Handle("/courses/{id:[0-9]+}/delete", user(courses.DeleteCourse)).Methods(http.MethodPost)
	r.Handle("/courses/{id:[0-9]+}/formulas", user(courses.LinkFormula)).Methods(http.MethodPost)
	r.Handle("/courses/{id:[0-9]+}/formulas/{fid:[0-9]+}", user(courses.UpdateLink)).Methods(http.MethodPost)
	r.Handle("/courses/{id:[0-9]+}/formulas/{fid:[0-9]+}/delete", user(courses.Unlink)).Methods(http.MethodPost)
	r.Handle("/self-testing", user(quizzes.SelfTesting)).Methods(http.MethodGet, http.MethodPost)

	r.Handle("/admin", adminOnly(admins.UsersPage)).Methods(http.MethodGet)
	r.Handle("/admin/users/{id:[0-9]+}/admin", adminOnly(admins.ToggleAdmin)).Methods(http.MethodPost)

	r.HandleFunc(proxy.ForgotPasswordPath, d.Proxy.Handler(proxy.ForgotPasswordPath)).Methods(http.MethodPost)
	r.HandleFunc(proxy.ResetPasswordPath, d.Proxy.Handler(proxy.ResetPasswordPath)).Methods(http.MethodPost)

	var h http.Handler = r
	h = middleware.Bootstrap(d.Auth)(h)
	h = middleware.Accessibility(h)
	h = middleware.AccessLog(logger)(h)
	h = middleware.Recover(logger)(h)
	h = middleware.RequestID(h)

	return &Router{handler: h, quiz: quizzes}, nil
}
