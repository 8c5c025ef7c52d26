package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classloop/classloop/pkg/httpjson"
)

const (
	stateCookie    = "classloop_oauth_state"
	redirectCookie = "classloop_oauth_redirect"

	// stateCookieMaxAge bounds how long a sign-in attempt may take.
	stateCookieMaxAge = 10 * 60
)

// Handler exposes the sign-in endpoints.
type Handler struct {
	service *Service
	secure  bool
	log     *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	if log == nil {
		panic("auth: logger cannot be nil")
	}
	return func(h *Handler) { h.log = log }
}

// NewHandler creates the auth HTTP handler. secureCookies must be true
// everywhere except local development over plain HTTP.
func NewHandler(service *Service, secureCookies bool, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("auth: service cannot be nil")
	}

	h := &Handler{service: service, secure: secureCookies, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the sign-in flow.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/auth/login", h.handleLogin)
	r.Get("/auth/callback", h.handleCallback)
	r.Post("/auth/logout", h.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(RequireUser(h.service))
		r.Get("/auth/me", h.handleMe)
	})
	return r
}

// handleLogin starts the OAuth flow. The state token and the post-login
// redirect target travel in short-lived cookies so the callback can verify
// them against what the provider sends back.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "state_generation_failed", "could not start sign-in")
		return
	}

	h.setFlowCookie(w, stateCookie, state)
	if redirect := safeRedirect(r.URL.Query().Get("redirect")); redirect != "" {
		h.setFlowCookie(w, redirectCookie, redirect)
	}

	http.Redirect(w, r, h.service.SignInURL(state), http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	stateCk, err := r.Cookie(stateCookie)
	if err != nil || stateCk.Value == "" ||
		subtle.ConstantTimeCompare([]byte(stateCk.Value), []byte(query.Get("state"))) != 1 {
		httpjson.Error(w, http.StatusBadRequest, "invalid_state", "sign-in state mismatch")
		return
	}
	h.clearCookie(w, stateCookie)

	code := query.Get("code")
	if code == "" {
		httpjson.Error(w, http.StatusBadRequest, "missing_code", "authorization code is required")
		return
	}

	user, isNew, err := h.service.CompleteSignIn(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			httpjson.Error(w, http.StatusBadRequest, "invalid_code", "authorization code was rejected")
		case errors.Is(err, ErrEmailNotVerified), errors.Is(err, ErrNoEmail):
			httpjson.Error(w, http.StatusForbidden, "email_not_usable", "a verified email address is required")
		default:
			h.log.ErrorContext(r.Context(), "sign-in failed", slog.Any("error", err))
			httpjson.Error(w, http.StatusInternalServerError, "signin_failed", "could not complete sign-in")
		}
		return
	}

	token, err := h.service.IssueSession(user)
	if err != nil {
		h.log.ErrorContext(r.Context(), "session issue failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "signin_failed", "could not complete sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	target := "/"
	if ck, err := r.Cookie(redirectCookie); err == nil {
		if redirect := safeRedirect(ck.Value); redirect != "" {
			target = redirect
		}
		h.clearCookie(w, redirectCookie)
	}
	if isNew {
		target = appendQuery(target, "new", "1")
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, SessionCookie)
	httpjson.Respond(w, http.StatusOK, map[string]bool{"signed_out": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	httpjson.Respond(w, http.StatusOK, map[string]string{
		"id":           user.ID.String(),
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
		"role":         user.Role,
	})
}

func (h *Handler) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// safeRedirect accepts only same-site paths. Anything absolute or
// scheme-relative would be an open redirect.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return ""
	}
	return target
}

func appendQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
