package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// maxResultWait caps the client supplied ?wait= on the results endpoint.
const maxResultWait = 30 * time.Second

// API serves the catalog and results as JSON and hosts the session websockets.
type API struct {
	service    *app.QuizService
	ws         *WSHandler
	resultWait time.Duration
	logger     *slog.Logger
}

func NewAPI(service *app.QuizService, resultWait time.Duration, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		service:    service,
		ws:         NewWSHandler(service, logger),
		resultWait: resultWait,
		logger:     logger,
	}
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/courses", a.listCourses)
	r.Get("/courses/{courseID}", a.getCourse)
	r.Get("/quizzes/{quizID}", a.getQuiz)
	r.Get("/results/{mode}/{quizID}", a.getResults)
	r.Get("/leaderboard", a.getLeaderboard)
	r.Get("/ws/quiz/{quizID}", a.ws.ServeQuiz)
	r.Get("/ws/mock-tests/{courseID}", a.ws.ServeMockTest)
	return r
}

type quizSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Week          int    `json:"week"`
	QuestionCount int    `json:"questionCount"`
	ComingSoon    bool   `json:"comingSoon"`
}

type courseSummary struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	ImageID       string        `json:"imageId"`
	QuestionCount int           `json:"questionCount"`
	Weeks         []int         `json:"weeks"`
	Quizzes       []quizSummary `json:"quizzes"`
}

type quizResponse struct {
	Quiz   quizSummary   `json:"quiz"`
	Course courseSummary `json:"course"`
}

type errorResponse struct {
	Error string `json:"error"`
	Back  string `json:"back,omitempty"`
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	courses := a.service.Catalog().ListCourses(r.Context())
	out := make([]courseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, summarizeCourse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := a.service.Catalog().CourseByID(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summarizeCourse(course))
}

func (a *API) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, course, err := a.service.Catalog().QuizByID(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Quiz: summarizeQuiz(quiz), Course: summarizeCourse(course)})
}

// getResults waits briefly for the result to appear so a slow write and a
// missing result are told apart: the latter ends in 404.
func (a *API) getResults(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wait := a.resultWait
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid wait duration")
			return
		}
		wait = min(d, maxResultWait)
	}

	review, err := a.service.Review(r.Context(), mode, chi.URLParam(r, "quizID"), wait)
	if errors.Is(err, domain.ErrIncompleteResult) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Back: app.CoursesPath})
		return
	}
	if err != nil {
		a.logger.Debug("results unavailable", "quiz_id", chi.URLParam(r, "quizID"), "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (a *API) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Leaderboard(r.Context()))
}

func summarizeQuiz(q domain.Quiz) quizSummary {
	return quizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Week:          q.Week,
		QuestionCount: len(q.Questions),
		ComingSoon:    len(q.Questions) == 0,
	}
}

func summarizeCourse(c domain.Course) courseSummary {
	out := courseSummary{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		ImageID:       c.ImageID,
		QuestionCount: c.QuestionCount(),
		Weeks:         []int{},
		Quizzes:       make([]quizSummary, 0, len(c.Quizzes)),
	}
	seen := make(map[int]bool)
	for _, q := range c.Quizzes {
		out.Quizzes = append(out.Quizzes, summarizeQuiz(q))
		if !seen[q.Week] {
			seen[q.Week] = true
			out.Weeks = append(out.Weeks, q.Week)
		}
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyQuiz):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownMode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
