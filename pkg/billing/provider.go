package billing

import (
	"context"
	"time"
)

// EventVerifier authenticates a raw webhook payload against its signature
// header and parses it into a typed event. The payload must be the exact
// bytes received on the wire. Verification is a pure check with no side
// effects.
//
// Errors: ErrMissingSignature when the header is absent, ErrInvalidSignature
// on mismatch or malformed signatures. Both mean the payload cannot be
// trusted and nothing may be dispatched.
type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (*Event, error)
}

// Provider is the full payment-provider contract. Beyond webhook
// verification it covers the handful of synchronous API calls the
// subscription service makes: the authoritative subscription lookup on
// checkout completion, and the hosted checkout/portal session endpoints the
// dashboard redirects through.
type Provider interface {
	EventVerifier

	// RetrieveSubscription fetches the provider's current view of a
	// subscription. Used once per checkout completion; the provider is the
	// source of truth for status and billing period at creation time.
	RetrieveSubscription(ctx context.Context, subscriptionRef string) (*ProviderSubscription, error)

	// CreateCustomer registers a billing customer for the given user.
	CreateCustomer(ctx context.Context, params CustomerParams) (customerRef string, err error)

	// CreateCheckoutSession creates an embedded-mode hosted checkout session.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// CreatePortalSession creates a hosted billing-management session.
	CreatePortalSession(ctx context.Context, params PortalParams) (*PortalSession, error)
}

// ProviderSubscription is the provider's authoritative subscription state.
type ProviderSubscription struct {
	Ref         string
	CustomerRef string
	Status      Status
	Metadata    map[string]string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// CustomerParams describes the customer to create.
type CustomerParams struct {
	UserID string
	Email  string
	Name   string
}

// CheckoutParams describes a subscription checkout session. The metadata
// written to the provider's subscription object (user ID, tier, seat limit)
// is what later webhook events carry back, so it must be complete here.
type CheckoutParams struct {
	CustomerRef string
	PriceID     string
	UserID      string
	Tier        string
	SeatsLimit  int
	ReturnURL   string
}

// CheckoutSession is a hosted checkout session; ClientSecret drives the
// provider's embedded checkout widget.
type CheckoutSession struct {
	ID           string
	ClientSecret string
}

// PortalParams describes a billing portal session request.
type PortalParams struct {
	CustomerRef string
	ReturnURL   string
}

// PortalSession is a pre-authenticated billing portal session.
type PortalSession struct {
	URL string
}
