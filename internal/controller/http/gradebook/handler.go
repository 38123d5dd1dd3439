package gradebook

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/internal/roster"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
	"github.com/quipper/poc/gradebook/pkg/repositories/kv"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"fieldError": func(m map[string]string, f string) string { return m[f] },
}).ParseFS(templateFS, "templates/*.html"))

type Handler struct {
	ctrl *roster.Controller
	repo kv.Repository
}

// NewHandler serves the page and the JSON API from one controller. The
// controller holds the single form draft, so every browser tab shares it.
func NewHandler(ctrl *roster.Controller, repo kv.Repository) *Handler {
	return &Handler{ctrl: ctrl, repo: repo}
}

// Router returns a chi-based router for the page and the /api endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Server-rendered page
	r.Get("/", h.page)
	r.Post("/form", h.submitForm)
	r.Post("/form/cancel", h.cancelForm)
	r.Post("/students/{index}/edit", h.editStudent)
	r.Get("/students/{index}/delete", h.confirmDelete)
	r.Post("/students/{index}/delete", h.deleteStudent)

	// JSON API
	r.Get("/api/health", h.health)
	r.Route("/api/students", func(r chi.Router) {
		r.Get("/", h.apiListStudents)
		r.Post("/", h.apiCreateStudent)
		r.Put("/{index}", h.apiReplaceStudent)
		r.Delete("/{index}", h.apiDeleteStudent)
	})
	r.Get("/api/stats", h.apiStats)
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.repo.Health(r.Context()); err != nil {
		logger.Error("health: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "unhealthy", "error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "students": h.ctrl.Store().Len()})
}

var errInvalidIndex = errors.New("invalid index")

// indexParam parses the {index} path segment. Range checks belong to the store.
func indexParam(r *http.Request) (int, error) {
	s := chi.URLParam(r, "index")
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(errInvalidIndex, "%q", s)
	}
	return i, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, roster.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrStaleRevision):
		return http.StatusConflict
	case errors.Is(err, roster.ErrInvalidDraft):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorText hides internal errors from clients.
func errorText(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return errors.Cause(err).Error()
}
