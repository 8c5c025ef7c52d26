package classroom

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/httpjson"
	"github.com/classloop/classloop/svc/auth"
	"github.com/classloop/classloop/svc/content"
)

// defaultQRSize is the rendered QR edge in pixels, large enough to scan
// from a projected screen.
const defaultQRSize = 512

// Handler exposes the classroom HTTP surface.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	if log == nil {
		panic("classroom: logger cannot be nil")
	}
	return func(h *Handler) { h.log = log }
}

// NewHandler creates the classroom HTTP handler.
func NewHandler(service *Service, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("classroom: service cannot be nil")
	}

	h := &Handler{service: service, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the classroom endpoints on a fresh router.
func (h *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r, requireUser)
	return r
}

// Register mounts the classroom endpoints. Everything requires a signed-in
// user; creation and roster management additionally require the teacher
// role.
func (h *Handler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/classrooms/join", h.handleJoin)
		r.Get("/classrooms", h.handleList)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireTeacher)
			r.Post("/classrooms", h.handleCreate)
			r.Get("/classrooms/{classroomID}", h.handleGet)
			r.Get("/classrooms/{classroomID}/roster", h.handleRoster)
			r.Get("/classrooms/{classroomID}/qr.png", h.handleJoinQR)
			r.Post("/classrooms/{classroomID}/code", h.handleRegenerateCode)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req struct {
		Name      string `json:"name"`
		GradeBand string `json:"grade_band"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	if !content.ValidGradeBand(req.GradeBand) {
		httpjson.Error(w, http.StatusBadRequest, "invalid_grade_band", "unknown grade band")
		return
	}

	classroom, err := h.service.Create(r.Context(), user.ID, req.Name, req.GradeBand)
	if err != nil {
		h.log.ErrorContext(r.Context(), "classroom creation failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "create_failed", "could not create classroom")
		return
	}
	httpjson.Respond(w, http.StatusCreated, classroomView(classroom, true))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var (
		classrooms []Classroom
		err        error
	)
	includeCode := user.IsTeacher()
	if includeCode {
		classrooms, err = h.service.ListOwned(r.Context(), user.ID)
	} else {
		classrooms, err = h.service.ListJoined(r.Context(), user.ID)
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "classroom listing failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "list_failed", "could not list classrooms")
		return
	}

	out := make([]classroomResponse, 0, len(classrooms))
	for i := range classrooms {
		out = append(out, classroomView(&classrooms[i], includeCode))
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	classroomID, ok := pathID(w, r)
	if !ok {
		return
	}

	classroom, err := h.service.Get(r.Context(), classroomID, user.ID)
	if err != nil {
		h.renderError(w, r, err, "could not load classroom")
		return
	}
	httpjson.Respond(w, http.StatusOK, classroomView(classroom, true))
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	classroom, err := h.service.Join(r.Context(), user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidJoinCode):
			httpjson.Error(w, http.StatusNotFound, "invalid_code", "no classroom with that code")
		case errors.Is(err, ErrClassroomFull):
			httpjson.Error(w, http.StatusConflict, "classroom_full", "classroom has no free seats")
		case errors.Is(err, ErrAlreadyEnrolled):
			httpjson.Error(w, http.StatusConflict, "already_enrolled", "already in this classroom")
		case errors.Is(err, ErrOwnerCannotJoin):
			httpjson.Error(w, http.StatusConflict, "own_classroom", "you own this classroom")
		default:
			h.log.ErrorContext(r.Context(), "join failed", slog.Any("error", err))
			httpjson.Error(w, http.StatusInternalServerError, "join_failed", "could not join classroom")
		}
		return
	}
	httpjson.Respond(w, http.StatusOK, classroomView(classroom, false))
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	classroomID, ok := pathID(w, r)
	if !ok {
		return
	}

	roster, err := h.service.Roster(r.Context(), classroomID, user.ID)
	if err != nil {
		h.renderError(w, r, err, "could not load roster")
		return
	}

	out := make([]rosterResponse, 0, len(roster))
	for _, entry := range roster {
		out = append(out, rosterResponse{
			UserID:      entry.UserID.String(),
			DisplayName: entry.DisplayName,
			AvatarURL:   entry.AvatarURL,
			JoinedAt:    entry.JoinedAt,
		})
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	classroomID, ok := pathID(w, r)
	if !ok {
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 2048 {
			httpjson.Error(w, http.StatusBadRequest, "invalid_size", "size must be between 64 and 2048")
			return
		}
		size = parsed
	}

	png, err := h.service.JoinQR(r.Context(), classroomID, user.ID, size)
	if err != nil {
		h.renderError(w, r, err, "could not render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write QR response", slog.Any("error", err))
	}
}

func (h *Handler) handleRegenerateCode(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	classroomID, ok := pathID(w, r)
	if !ok {
		return
	}

	classroom, err := h.service.RegenerateCode(r.Context(), classroomID, user.ID)
	if err != nil {
		h.renderError(w, r, err, "could not regenerate join code")
		return
	}
	httpjson.Respond(w, http.StatusOK, classroomView(classroom, true))
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "not_found", "classroom not found")
	case errors.Is(err, ErrNotOwner):
		httpjson.Error(w, http.StatusForbidden, "not_owner", "classroom belongs to another teacher")
	default:
		h.log.ErrorContext(r.Context(), "classroom request failed", slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "classroomID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_id", "classroom id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

type classroomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GradeBand string    `json:"grade_band,omitempty"`
	JoinCode  string    `json:"join_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type rosterResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// classroomView hides the join code from students; only owners hand it out.
func classroomView(c *Classroom, includeCode bool) classroomResponse {
	out := classroomResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		GradeBand: c.GradeBand,
		CreatedAt: c.CreatedAt,
	}
	if includeCode {
		out.JoinCode = c.JoinCode
	}
	return out
}
