package billing

import "time"

// Kind identifies the normalized billing event type. Each provider
// implementation maps its own event taxonomy onto these values; anything
// without a mapping becomes KindUnknown and must be acknowledged as a no-op.
type Kind string

const (
	KindCheckoutCompleted   Kind = "checkout_completed"
	KindSubscriptionUpdated Kind = "subscription_updated"
	KindSubscriptionDeleted Kind = "subscription_deleted"
	KindPaymentFailed       Kind = "payment_failed"
	KindPaymentSucceeded    Kind = "payment_succeeded"
	KindUnknown             Kind = "unknown"
)

// Status is the normalized subscription state reported by the provider.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Event is a verified billing event. Exactly one variant matching Kind is
// populated; the rest are nil. ProviderType preserves the provider's original
// event name for logging.
type Event struct {
	Kind         Kind
	ProviderType string

	CheckoutCompleted   *CheckoutCompleted
	SubscriptionUpdated *SubscriptionUpdated
	SubscriptionDeleted *SubscriptionDeleted
	PaymentFailed       *PaymentEvent
	PaymentSucceeded    *PaymentEvent
}

// CheckoutCompleted carries what a completed checkout session exposes.
// UserID and SubscriptionRef are required to create a subscription record;
// either may be empty when the session metadata was incomplete, in which case
// the event is unprocessable.
type CheckoutCompleted struct {
	UserID          string // internal user ID from session metadata
	Tier            string // plan tier from session metadata
	CustomerRef     string // provider customer ID
	SubscriptionRef string // provider subscription ID
}

// SubscriptionUpdated carries the lifecycle fields refreshed on every update.
// UserID comes from the subscription's metadata and is required; the row
// itself is matched by SubscriptionRef.
type SubscriptionUpdated struct {
	SubscriptionRef string
	UserID          string
	Status          Status
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

// SubscriptionDeleted identifies the subscription to mark canceled.
type SubscriptionDeleted struct {
	SubscriptionRef string
}

// PaymentEvent references the subscription an invoice belongs to.
// SubscriptionRef is empty for one-time invoices, which carry no
// subscription to update.
type PaymentEvent struct {
	SubscriptionRef string
}
