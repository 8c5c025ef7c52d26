package progress

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/httpjson"
	"github.com/classloop/classloop/svc/auth"
)

// Handler exposes the progress HTTP surface.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	if log == nil {
		panic("progress: logger cannot be nil")
	}
	return func(h *Handler) { h.log = log }
}

// NewHandler creates the progress HTTP handler.
func NewHandler(service *Service, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("progress: service cannot be nil")
	}

	h := &Handler{service: service, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the progress endpoints on a fresh router.
func (h *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r, requireUser)
	return r
}

// Register mounts the progress endpoints. Students write and read their own
// record; the rollup is for the classroom's teacher.
func (h *Handler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Put("/assignments/{assignmentID}/progress", h.handleRecord)
		r.Get("/assignments/{assignmentID}/progress", h.handleOwn)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTeacher)
			r.Get("/assignments/{assignmentID}/progress/summary", h.handleSummary)
		})
	})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	assignmentID, ok := pathAssignmentID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
		Score  *int   `json:"score"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	record, err := h.service.Record(r.Context(), user.ID, assignmentID, req.Status, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			httpjson.Error(w, http.StatusBadRequest, "invalid_status", "status must be started or completed")
		case errors.Is(err, ErrInvalidScore):
			httpjson.Error(w, http.StatusBadRequest, "invalid_score", "score must be between 0 and 100")
		case errors.Is(err, ErrOwnerProgress):
			httpjson.Error(w, http.StatusConflict, "owner_progress", "teachers do not record progress")
		default:
			h.renderError(w, r, err, "could not record progress")
		}
		return
	}
	httpjson.Respond(w, http.StatusOK, recordView(record))
}

func (h *Handler) handleOwn(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	assignmentID, ok := pathAssignmentID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Own(r.Context(), user.ID, assignmentID)
	if err != nil {
		h.renderError(w, r, err, "could not load progress")
		return
	}
	httpjson.Respond(w, http.StatusOK, recordView(record))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	assignmentID, ok := pathAssignmentID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), user.ID, assignmentID)
	if err != nil {
		h.renderError(w, r, err, "could not load progress summary")
		return
	}

	out := summaryResponse{
		AssignmentID: summary.AssignmentID.String(),
		Enrolled:     summary.Enrolled,
		Started:      summary.Started,
		Completed:    summary.Completed,
		Entries:      make([]entryResponse, 0, len(summary.Entries)),
	}
	for _, entry := range summary.Entries {
		out.Entries = append(out.Entries, entryResponse{
			UserID:      entry.UserID.String(),
			DisplayName: entry.DisplayName,
			Status:      entry.Status,
			Score:       entry.Score,
			UpdatedAt:   entry.UpdatedAt,
		})
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "not_found", "no progress recorded")
	case errors.Is(err, ErrNotMember):
		httpjson.Error(w, http.StatusForbidden, "not_member", "not enrolled in this classroom")
	case errors.Is(err, ErrNotOwner):
		httpjson.Error(w, http.StatusForbidden, "not_owner", "classroom belongs to another teacher")
	default:
		h.log.ErrorContext(r.Context(), "progress request failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func pathAssignmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "assignmentID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_id", "assignment id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

type recordResponse struct {
	AssignmentID string    `json:"assignment_id"`
	Status       string    `json:"status"`
	Score        *int      `json:"score,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type entryResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	Score       *int      `json:"score,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type summaryResponse struct {
	AssignmentID string          `json:"assignment_id"`
	Enrolled     int             `json:"enrolled"`
	Started      int             `json:"started"`
	Completed    int             `json:"completed"`
	Entries      []entryResponse `json:"entries"`
}

func recordView(record *Record) recordResponse {
	return recordResponse{
		AssignmentID: record.AssignmentID.String(),
		Status:       record.Status,
		Score:        record.Score,
		UpdatedAt:    record.UpdatedAt,
	}
}
