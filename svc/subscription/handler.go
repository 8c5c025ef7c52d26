package subscription

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classloop/classloop/pkg/billing"
	"github.com/classloop/classloop/pkg/httpjson"
	"github.com/classloop/classloop/svc/auth"
)

// signatureHeader carries the provider's payload signature.
const signatureHeader = "Stripe-Signature"

// maxWebhookBytes caps webhook payloads well above any real event size.
const maxWebhookBytes = 1 << 20

// Handler exposes the billing HTTP surface: the provider webhook endpoint
// and the authenticated checkout/portal/read endpoints.
type Handler struct {
	verifier   billing.EventVerifier
	reconciler *Reconciler
	service    *Service
	log        *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger. Defaults to slog.Default.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	if log == nil {
		panic("subscription: logger cannot be nil")
	}
	return func(h *Handler) { h.log = log }
}

// NewHandler creates the billing HTTP handler.
func NewHandler(verifier billing.EventVerifier, reconciler *Reconciler, service *Service, opts ...HandlerOption) *Handler {
	if verifier == nil {
		panic("subscription: verifier cannot be nil")
	}
	if reconciler == nil {
		panic("subscription: reconciler cannot be nil")
	}
	if service == nil {
		panic("subscription: service cannot be nil")
	}

	h := &Handler{
		verifier:   verifier,
		reconciler: reconciler,
		service:    service,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the billing endpoints on a fresh router.
func (h *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r, requireUser)
	return r
}

// Register mounts the billing endpoints. The webhook and plan listing are
// public; everything else sits behind the given authentication middleware.
func (h *Handler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Post("/webhooks/billing", h.handleWebhook)
	r.Get("/billing/plans", h.handlePlans)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/billing/checkout", h.handleCheckout)
		r.Post("/billing/portal", h.handlePortal)
		r.Get("/billing/subscription", h.handleSubscription)
	})
}

// handleWebhook receives provider events. Response codes are the retry
// protocol: 400 tells the provider the delivery itself is broken, 200
// acknowledges (including events we drop on purpose), 500 asks for
// redelivery after a transient failure.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_payload", "failed to read request body")
		return
	}

	event, err := h.verifier.VerifyEvent(payload, r.Header.Get(signatureHeader))
	if err != nil {
		// A payload that verified but cannot be parsed will never parse on
		// redelivery either; acknowledge it so the provider stops retrying.
		if errors.Is(err, billing.ErrInvalidPayload) {
			h.log.WarnContext(r.Context(), "acknowledging unparseable webhook payload",
				slog.Any("error", err))
			httpjson.RespondRaw(w, http.StatusOK, map[string]bool{"received": true})
			return
		}

		h.log.WarnContext(r.Context(), "webhook rejected",
			slog.Any("error", err),
			slog.String("remote_addr", r.RemoteAddr))
		if errors.Is(err, billing.ErrMissingSignature) {
			httpjson.Error(w, http.StatusBadRequest, "missing_signature", "signature header is required")
			return
		}
		httpjson.Error(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	if err := h.reconciler.Handle(r.Context(), event); err != nil {
		h.log.ErrorContext(r.Context(), "webhook processing failed, requesting redelivery",
			slog.String("provider_type", event.ProviderType),
			slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "processing_failed", "event could not be processed")
		return
	}

	httpjson.RespondRaw(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans := h.service.Plans()
	out := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, planResponse{
			Tier:        plan.Tier,
			Name:        plan.Name,
			Description: plan.Description,
			PriceCents:  plan.PriceCents,
			Interval:    plan.Interval,
			SeatsLimit:  plan.SeatsLimit,
		})
	}
	httpjson.Respond(w, http.StatusOK, out)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req struct {
		Tier string `json:"tier"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	session, err := h.service.StartCheckout(r.Context(), Account{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
	}, req.Tier)
	if err != nil {
		if errors.Is(err, ErrUnknownTier) {
			httpjson.Error(w, http.StatusBadRequest, "unknown_tier", "no such plan tier")
			return
		}
		h.log.ErrorContext(r.Context(), "checkout failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err))
		httpjson.Error(w, http.StatusBadGateway, "checkout_failed", "could not start checkout")
		return
	}

	httpjson.Respond(w, http.StatusOK, checkoutResponse{
		SessionID:    session.ID,
		ClientSecret: session.ClientSecret,
	})
}

func (h *Handler) handlePortal(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	session, err := h.service.OpenPortal(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "no_subscription", "no billing account for this user")
			return
		}
		h.log.ErrorContext(r.Context(), "portal session failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err))
		httpjson.Error(w, http.StatusBadGateway, "portal_failed", "could not open billing portal")
		return
	}

	httpjson.Respond(w, http.StatusOK, portalResponse{URL: session.URL})
}

func (h *Handler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	sub, err := h.service.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "no_subscription", "no subscription for this user")
			return
		}
		h.log.ErrorContext(r.Context(), "subscription lookup failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err))
		httpjson.Error(w, http.StatusInternalServerError, "lookup_failed", "could not load subscription")
		return
	}

	httpjson.Respond(w, http.StatusOK, subscriptionResponse{
		Tier:        sub.Tier,
		Status:      string(sub.Status),
		SeatsLimit:  sub.SeatsLimit,
		PeriodStart: sub.PeriodStart,
		PeriodEnd:   sub.PeriodEnd,
		Active:      sub.IsActive(),
	})
}

type planResponse struct {
	Tier        string `json:"tier"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Interval    string `json:"interval"`
	SeatsLimit  int    `json:"seats_limit"`
}

type checkoutResponse struct {
	SessionID    string `json:"session_id"`
	ClientSecret string `json:"client_secret"`
}

type portalResponse struct {
	URL string `json:"url"`
}

type subscriptionResponse struct {
	Tier        string     `json:"tier"`
	Status      string     `json:"status"`
	SeatsLimit  int        `json:"seats_limit"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	Active      bool       `json:"active"`
}
