package assignment

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/httpjson"
	"github.com/classloop/classloop/svc/auth"
	"github.com/classloop/classloop/svc/content"
)

// Handler exposes the assignment HTTP surface.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	if log == nil {
		panic("assignment: logger cannot be nil")
	}
	return func(h *Handler) { h.log = log }
}

// NewHandler creates the assignment HTTP handler.
func NewHandler(service *Service, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("assignment: service cannot be nil")
	}

	h := &Handler{service: service, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the assignment endpoints on a fresh router.
func (h *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r, requireUser)
	return r
}

// Register mounts the assignment endpoints. Reads are open to classroom
// members; writes require the teacher role on top of the ownership check
// the service performs.
func (h *Handler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/classrooms/{classroomID}/assignments", h.handleList)
		r.Get("/assignments/{assignmentID}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTeacher)
			r.Post("/classrooms/{classroomID}/assignments", h.handleAssign)
			r.Delete("/assignments/{assignmentID}", h.handleRemove)
		})
	})
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	classroomID, ok := pathUUID(w, r, "classroomID")
	if !ok {
		return
	}

	var req struct {
		TopicID      string     `json:"topic_id"`
		GradeBand    string     `json:"grade_band"`
		Instructions string     `json:"instructions"`
		DueAt        *time.Time `json:"due_at"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	topicID, err := uuid.Parse(req.TopicID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", "topic_id must be a UUID")
		return
	}

	assignment, err := h.service.Assign(r.Context(), user.ID, AssignInput{
		ClassroomID:  classroomID,
		TopicID:      topicID,
		GradeBand:    req.GradeBand,
		Instructions: req.Instructions,
		DueAt:        req.DueAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, content.ErrTopicNotFound):
			httpjson.Error(w, http.StatusNotFound, "topic_not_found", "topic not found")
		case errors.Is(err, content.ErrInvalidGradeBand):
			httpjson.Error(w, http.StatusBadRequest, "invalid_grade_band", "unknown grade band")
		case errors.Is(err, ErrTopicDraft):
			httpjson.Error(w, http.StatusConflict, "topic_draft", "topic is not published")
		case errors.Is(err, ErrNoLesson):
			httpjson.Error(w, http.StatusConflict, "no_lesson", "topic has no lesson for this grade band")
		case errors.Is(err, ErrDueInPast):
			httpjson.Error(w, http.StatusBadRequest, "due_in_past", "due date is in the past")
		default:
			h.renderError(w, r, err, "could not create assignment")
		}
		return
	}
	httpjson.Respond(w, http.StatusCreated, assignmentView(assignment))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	classroomID, ok := pathUUID(w, r, "classroomID")
	if !ok {
		return
	}

	assignments, err := h.service.List(r.Context(), classroomID, user.ID)
	if err != nil {
		h.renderError(w, r, err, "could not list assignments")
		return
	}

	out := make([]assignmentResponse, 0, len(assignments))
	for i := range assignments {
		out = append(out, assignmentView(&assignments[i]))
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	assignmentID, ok := pathUUID(w, r, "assignmentID")
	if !ok {
		return
	}

	assignment, err := h.service.Get(r.Context(), assignmentID, user.ID)
	if err != nil {
		h.renderError(w, r, err, "could not load assignment")
		return
	}
	httpjson.Respond(w, http.StatusOK, assignmentView(assignment))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	assignmentID, ok := pathUUID(w, r, "assignmentID")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), assignmentID, user.ID); err != nil {
		h.renderError(w, r, err, "could not delete assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "not_found", "assignment not found")
	case errors.Is(err, ErrNotOwner):
		httpjson.Error(w, http.StatusForbidden, "not_owner", "classroom belongs to another teacher")
	case errors.Is(err, ErrNotMember):
		httpjson.Error(w, http.StatusForbidden, "not_member", "not enrolled in this classroom")
	default:
		h.log.ErrorContext(r.Context(), "assignment request failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_id", param+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

type assignmentResponse struct {
	ID           string     `json:"id"`
	ClassroomID  string     `json:"classroom_id"`
	TopicID      string     `json:"topic_id"`
	GradeBand    string     `json:"grade_band"`
	Instructions string     `json:"instructions,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func assignmentView(a *Assignment) assignmentResponse {
	return assignmentResponse{
		ID:           a.ID.String(),
		ClassroomID:  a.ClassroomID.String(),
		TopicID:      a.TopicID.String(),
		GradeBand:    a.GradeBand,
		Instructions: a.Instructions,
		DueAt:        a.DueAt,
		CreatedAt:    a.CreatedAt,
	}
}
