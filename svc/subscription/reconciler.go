package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/billing"
)

// Notifier delivers out-of-band notices about billing state changes.
// Implementations must be best-effort; a failed notice never fails the
// webhook that triggered it.
type Notifier interface {
	NotifyPaymentFailure(ctx context.Context, userID uuid.UUID) error
}

// Reconciler applies verified billing events to the subscription store.
//
// Error contract: a non-nil return means the failure is transient (store or
// provider unavailable) and the webhook should be rejected so the provider
// redelivers. Events that can never succeed, such as those missing a linking
// field or referencing a row that does not exist, are logged and swallowed;
// retrying them would change nothing.
type Reconciler struct {
	store    Store
	provider billing.Provider
	catalog  *Catalog
	notifier Notifier
	log      *slog.Logger
}

// ReconcilerOption configures optional reconciler collaborators.
type ReconcilerOption func(*Reconciler)

// WithNotifier enables payment-failure notices.
func WithNotifier(n Notifier) ReconcilerOption {
	if n == nil {
		panic("subscription: notifier cannot be nil")
	}
	return func(r *Reconciler) { r.notifier = n }
}

// WithReconcilerLogger sets the logger. Defaults to slog.Default.
func WithReconcilerLogger(log *slog.Logger) ReconcilerOption {
	if log == nil {
		panic("subscription: logger cannot be nil")
	}
	return func(r *Reconciler) { r.log = log }
}

// NewReconciler creates a reconciler. The provider is used for the
// authoritative subscription lookup on checkout completion; the catalog
// resolves seat limits per tier.
func NewReconciler(store Store, provider billing.Provider, catalog *Catalog, opts ...ReconcilerOption) *Reconciler {
	if store == nil {
		panic("subscription: store cannot be nil")
	}
	if provider == nil {
		panic("subscription: provider cannot be nil")
	}
	if catalog == nil {
		panic("subscription: catalog cannot be nil")
	}

	r := &Reconciler{
		store:    store,
		provider: provider,
		catalog:  catalog,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle dispatches one verified event. Safe to call with the same event any
// number of times.
func (r *Reconciler) Handle(ctx context.Context, event *billing.Event) error {
	if event == nil {
		return nil
	}

	switch event.Kind {
	case billing.KindCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, event.CheckoutCompleted)
	case billing.KindSubscriptionUpdated:
		return r.handleSubscriptionUpdated(ctx, event.SubscriptionUpdated)
	case billing.KindSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, event.SubscriptionDeleted)
	case billing.KindPaymentFailed:
		return r.handlePaymentFailed(ctx, event.PaymentFailed)
	case billing.KindPaymentSucceeded:
		return r.handlePaymentSucceeded(ctx, event.PaymentSucceeded)
	default:
		r.log.InfoContext(ctx, "ignoring unhandled billing event",
			slog.String("provider_type", event.ProviderType))
		return nil
	}
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, cc *billing.CheckoutCompleted) error {
	if cc == nil || cc.UserID == "" || cc.SubscriptionRef == "" {
		r.log.WarnContext(ctx, "checkout completed without linking metadata, dropping",
			slog.Any("event", cc))
		return nil
	}

	userID, err := uuid.Parse(cc.UserID)
	if err != nil {
		r.log.WarnContext(ctx, "checkout completed with malformed user id, dropping",
			slog.String("user_id", cc.UserID))
		return nil
	}

	// The provider is the source of truth for status and billing period at
	// creation time; the checkout session only links the parties together.
	providerSub, err := r.provider.RetrieveSubscription(ctx, cc.SubscriptionRef)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", cc.SubscriptionRef, err)
	}

	tier := cc.Tier
	if tier == "" {
		tier = providerSub.Metadata["tier"]
	}
	if tier == "" {
		tier = DefaultTier
	}
	customerRef := cc.CustomerRef
	if customerRef == "" {
		customerRef = providerSub.CustomerRef
	}

	sub := &Subscription{
		UserID:          userID,
		CustomerRef:     customerRef,
		SubscriptionRef: cc.SubscriptionRef,
		Tier:            tier,
		Status:          providerSub.Status,
		SeatsLimit:      r.resolveSeats(providerSub.Metadata, tier),
		PeriodStart:     timePtr(providerSub.PeriodStart),
		PeriodEnd:       timePtr(providerSub.PeriodEnd),
	}
	if err := r.store.Upsert(ctx, sub); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "subscription created from checkout",
		slog.String("user_id", userID.String()),
		slog.String("subscription_ref", cc.SubscriptionRef),
		slog.String("tier", tier),
		slog.Int("seats_limit", sub.SeatsLimit))
	return nil
}

func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, su *billing.SubscriptionUpdated) error {
	if su == nil || su.SubscriptionRef == "" {
		r.log.WarnContext(ctx, "subscription update without subscription ref, dropping")
		return nil
	}
	if su.UserID == "" {
		// Subscriptions created outside our checkout flow carry no user link
		// and cannot be attributed to an account.
		r.log.WarnContext(ctx, "subscription update without user metadata, dropping",
			slog.String("subscription_ref", su.SubscriptionRef))
		return nil
	}

	rows, err := r.store.UpdateBySubscriptionRef(ctx, su.SubscriptionRef, su.Status,
		timePtr(su.PeriodStart), timePtr(su.PeriodEnd))
	if err != nil {
		return err
	}
	if rows == 0 {
		// Update arrived before the checkout event created the row. The next
		// lifecycle event carries full state again, so dropping is safe.
		r.log.InfoContext(ctx, "subscription update matched no rows",
			slog.String("subscription_ref", su.SubscriptionRef))
		return nil
	}

	r.log.InfoContext(ctx, "subscription updated",
		slog.String("subscription_ref", su.SubscriptionRef),
		slog.String("status", string(su.Status)))
	return nil
}

func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, sd *billing.SubscriptionDeleted) error {
	if sd == nil || sd.SubscriptionRef == "" {
		r.log.WarnContext(ctx, "subscription deletion without subscription ref, dropping")
		return nil
	}

	rows, err := r.store.SetStatusBySubscriptionRef(ctx, sd.SubscriptionRef, billing.StatusCanceled)
	if err != nil {
		return err
	}
	if rows == 0 {
		r.log.InfoContext(ctx, "subscription deletion matched no rows",
			slog.String("subscription_ref", sd.SubscriptionRef))
		return nil
	}

	r.log.InfoContext(ctx, "subscription canceled",
		slog.String("subscription_ref", sd.SubscriptionRef))
	return nil
}

func (r *Reconciler) handlePaymentFailed(ctx context.Context, pe *billing.PaymentEvent) error {
	if pe == nil || pe.SubscriptionRef == "" {
		// One-time invoices have no subscription to update.
		return nil
	}

	rows, err := r.store.SetStatusBySubscriptionRef(ctx, pe.SubscriptionRef, billing.StatusPastDue)
	if err != nil {
		return err
	}
	if rows == 0 {
		r.log.InfoContext(ctx, "payment failure matched no rows",
			slog.String("subscription_ref", pe.SubscriptionRef))
		return nil
	}

	r.log.WarnContext(ctx, "subscription past due",
		slog.String("subscription_ref", pe.SubscriptionRef))
	r.notifyPaymentFailure(ctx, pe.SubscriptionRef)
	return nil
}

func (r *Reconciler) handlePaymentSucceeded(ctx context.Context, pe *billing.PaymentEvent) error {
	if pe == nil || pe.SubscriptionRef == "" {
		return nil
	}

	rows, err := r.store.SetStatusBySubscriptionRef(ctx, pe.SubscriptionRef, billing.StatusActive)
	if err != nil {
		return err
	}
	if rows == 0 {
		r.log.InfoContext(ctx, "payment success matched no rows",
			slog.String("subscription_ref", pe.SubscriptionRef))
		return nil
	}

	r.log.InfoContext(ctx, "subscription reactivated by payment",
		slog.String("subscription_ref", pe.SubscriptionRef))
	return nil
}

// notifyPaymentFailure sends a dunning notice to the subscription owner.
// Failures here are logged only; the state change already succeeded.
func (r *Reconciler) notifyPaymentFailure(ctx context.Context, subscriptionRef string) {
	if r.notifier == nil {
		return
	}

	sub, err := r.store.GetBySubscriptionRef(ctx, subscriptionRef)
	if err != nil {
		r.log.ErrorContext(ctx, "failed to look up subscription for payment notice",
			slog.String("subscription_ref", subscriptionRef),
			slog.Any("error", err))
		return
	}
	if err := r.notifier.NotifyPaymentFailure(ctx, sub.UserID); err != nil {
		r.log.ErrorContext(ctx, "failed to send payment failure notice",
			slog.String("user_id", sub.UserID.String()),
			slog.Any("error", err))
	}
}

// resolveSeats derives the seat limit for a new subscription. An explicit
// seats_limit in the provider metadata wins over the catalog's per-tier
// value; anything unparseable falls through to the catalog.
func (r *Reconciler) resolveSeats(metadata map[string]string, tier string) int {
	if raw, ok := metadata["seats_limit"]; ok {
		if seats, err := strconv.Atoi(raw); err == nil && (seats > 0 || seats == SeatsUnlimited) {
			return seats
		}
	}
	return r.catalog.SeatsForTier(tier)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
