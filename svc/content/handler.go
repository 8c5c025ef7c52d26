package content

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classloop/classloop/pkg/httpjson"
	"github.com/classloop/classloop/svc/auth"
)

// Handler exposes the curriculum HTTP surface. Reading requires a signed-in
// user; authoring requires the admin role.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	if log == nil {
		panic("content: logger cannot be nil")
	}
	return func(h *Handler) { h.log = log }
}

// NewHandler creates the content HTTP handler.
func NewHandler(service *Service, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("content: service cannot be nil")
	}

	h := &Handler{service: service, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the content endpoints on a fresh router.
func (h *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r, requireUser)
	return r
}

// Register mounts the content endpoints. Reading requires a signed-in user;
// authoring requires the admin role.
func (h *Handler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/topics", h.handleListTopics)
		r.Get("/topics/{topic}", h.handleGetTopic)
		r.Get("/topics/{topic}/lessons", h.handleListLessons)
		r.Get("/topics/{topic}/lessons/{gradeBand}", h.handleGetLesson)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/topics", h.handleCreateTopic)
			r.Put("/topics/{topic}", h.handleUpdateTopic)
			r.Put("/topics/{topic}/lessons/{gradeBand}", h.handleUpsertLesson)
		})
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if !user.IsAdmin() {
			httpjson.Error(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	topics, err := h.service.ListTopics(r.Context(), user.IsAdmin())
	if err != nil {
		h.log.ErrorContext(r.Context(), "topic listing failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "list_failed", "could not list topics")
		return
	}

	out := make([]topicResponse, 0, len(topics))
	for i := range topics {
		out = append(out, topicView(&topics[i]))
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	topic, err := h.service.GetTopic(r.Context(), chi.URLParam(r, "topic"), user.IsAdmin())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, topicView(topic))
}

func (h *Handler) handleListLessons(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	topic, err := h.service.GetTopic(r.Context(), chi.URLParam(r, "topic"), user.IsAdmin())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	lessons, err := h.service.Lessons(r.Context(), topic.ID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	out := make([]lessonResponse, 0, len(lessons))
	for i := range lessons {
		out = append(out, lessonView(&lessons[i]))
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	topic, err := h.service.GetTopic(r.Context(), chi.URLParam(r, "topic"), user.IsAdmin())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	lesson, err := h.service.LessonFor(r.Context(), topic.ID, chi.URLParam(r, "gradeBand"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, lessonView(lesson))
}

func (h *Handler) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	topic, err := h.service.CreateTopic(r.Context(), req.Title, req.Summary)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	httpjson.Respond(w, http.StatusCreated, topicView(topic))
}

func (h *Handler) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.service.GetTopic(r.Context(), chi.URLParam(r, "topic"), true)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var req struct {
		Title     string `json:"title"`
		Summary   string `json:"summary"`
		Published bool   `json:"published"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	updated, err := h.service.UpdateTopic(r.Context(), topic.ID, req.Title, req.Summary, req.Published)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	httpjson.Respond(w, http.StatusOK, topicView(updated))
}

func (h *Handler) handleUpsertLesson(w http.ResponseWriter, r *http.Request) {
	topic, err := h.service.GetTopic(r.Context(), chi.URLParam(r, "topic"), true)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	var req struct {
		Title            string   `json:"title"`
		Body             string   `json:"body"`
		Kind             string   `json:"kind"`
		EstimatedMinutes int      `json:"estimated_minutes"`
		Standards        []string `json:"standards"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	lesson, err := h.service.UpsertLesson(r.Context(), topic.ID,
		chi.URLParam(r, "gradeBand"), LessonInput{
			Title:            req.Title,
			Body:             req.Body,
			Kind:             req.Kind,
			EstimatedMinutes: req.EstimatedMinutes,
			Standards:        req.Standards,
		})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidGradeBand):
			httpjson.Error(w, http.StatusBadRequest, "invalid_grade_band", err.Error())
		case errors.Is(err, ErrInvalidKind):
			httpjson.Error(w, http.StatusBadRequest, "invalid_kind", err.Error())
		default:
			h.renderError(w, r, err)
		}
		return
	}
	httpjson.Respond(w, http.StatusOK, lessonView(lesson))
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTopicNotFound):
		httpjson.Error(w, http.StatusNotFound, "topic_not_found", "topic not found")
	case errors.Is(err, ErrLessonNotFound):
		httpjson.Error(w, http.StatusNotFound, "lesson_not_found", "no lesson for that grade band")
	case errors.Is(err, ErrInvalidGradeBand):
		httpjson.Error(w, http.StatusBadRequest, "invalid_grade_band", err.Error())
	default:
		h.log.ErrorContext(r.Context(), "content request failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "internal_error", "request failed")
	}
}

type topicResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}

type lessonResponse struct {
	ID               string    `json:"id"`
	TopicID          string    `json:"topic_id"`
	GradeBand        string    `json:"grade_band"`
	Kind             string    `json:"kind"`
	Title            string    `json:"title"`
	Body             string    `json:"body"`
	EstimatedMinutes int       `json:"estimated_minutes,omitempty"`
	Standards        []string  `json:"standards,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func topicView(t *Topic) topicResponse {
	return topicResponse{
		ID:        t.ID.String(),
		Slug:      t.Slug,
		Title:     t.Title,
		Summary:   t.Summary,
		Published: t.Published,
		UpdatedAt: t.UpdatedAt,
	}
}

func lessonView(l *Lesson) lessonResponse {
	return lessonResponse{
		ID:               l.ID.String(),
		TopicID:          l.TopicID.String(),
		GradeBand:        l.GradeBand,
		Kind:             l.Kind,
		Title:            l.Title,
		Body:             l.Body,
		EstimatedMinutes: l.EstimatedMinutes,
		Standards:        l.Standards,
		UpdatedAt:        l.UpdatedAt,
	}
}
