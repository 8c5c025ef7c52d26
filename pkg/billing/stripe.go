package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider creates a Stripe billing provider. The API key is
// installed process-wide, matching the SDK's package-level client model.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	stripe.Key = cfg.SecretKey

	return &StripeProvider{webhookSecret: cfg.WebhookSecret}, nil
}

// VerifyEvent checks the Stripe-Signature header against the raw payload and
// parses the event into the typed union. The signature covers the exact bytes
// received, so callers must not re-encode the body before this call.
func (p *StripeProvider) VerifyEvent(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	return parseStripeEvent(event)
}

// RetrieveSubscription fetches the authoritative subscription state.
// Billing period fields live on the subscription items in current API
// versions, so the first item supplies them.
func (p *StripeProvider) RetrieveSubscription(ctx context.Context, subscriptionRef string) (*ProviderSubscription, error) {
	if subscriptionRef == "" {
		return nil, fmt.Errorf("%w: subscription ref is required", ErrProviderError)
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := stripesub.Get(subscriptionRef, params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	out := &ProviderSubscription{
		Ref:      sub.ID,
		Status:   mapStripeStatus(string(sub.Status)),
		Metadata: sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerRef = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.PeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		out.PeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
	}

	return out, nil
}

// CreateCustomer registers a Stripe customer tagged with the internal user ID
// so webhook events can always be linked back.
func (p *StripeProvider) CreateCustomer(ctx context.Context, cp CustomerParams) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(cp.Email),
		Metadata: map[string]string{"user_id": cp.UserID},
	}
	params.Context = ctx
	if cp.Name != "" {
		params.Name = stripe.String(cp.Name)
	}

	c, err := customer.New(params)
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	return c.ID, nil
}

// CreateCheckoutSession creates an embedded-mode subscription checkout.
// The subscription metadata written here is what lifecycle webhooks carry
// back, so user ID, tier, and seat limit all travel with the subscription.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(cp.CustomerRef),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(cp.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		ReturnURL: stripe.String(cp.ReturnURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id":     cp.UserID,
				"tier":        cp.Tier,
				"seats_limit": strconv.Itoa(cp.SeatsLimit),
			},
		},
		Metadata: map[string]string{
			"user_id": cp.UserID,
			"tier":    cp.Tier,
		},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}
	if sess.ClientSecret == "" {
		return nil, ErrNoClientSecret
	}

	return &CheckoutSession{ID: sess.ID, ClientSecret: sess.ClientSecret}, nil
}

// CreatePortalSession creates a hosted billing portal session.
func (p *StripeProvider) CreatePortalSession(ctx context.Context, pp PortalParams) (*PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(pp.CustomerRef),
		ReturnURL: stripe.String(pp.ReturnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}
	if sess.URL == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalSession{URL: sess.URL}, nil
}

// providerRef unmarshals Stripe's expandable references, which appear either
// as a bare ID string or as an embedded object carrying an "id" field.
type providerRef struct {
	ID string
}

func (r *providerRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	return nil
}

// parseStripeEvent maps a verified stripe.Event onto the typed union.
// Extraction is per kind and fail-closed: fields absent from the payload stay
// empty, and the consumer decides whether the event is processable.
func parseStripeEvent(event stripe.Event) (*Event, error) {
	out := &Event{ProviderType: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed":
		var session struct {
			Customer     providerRef       `json:"customer"`
			Subscription providerRef       `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out.Kind = KindCheckoutCompleted
		out.CheckoutCompleted = &CheckoutCompleted{
			UserID:          session.Metadata["user_id"],
			Tier:            session.Metadata["tier"],
			CustomerRef:     session.Customer.ID,
			SubscriptionRef: session.Subscription.ID,
		}

	case "customer.subscription.updated":
		sub, err := extractSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Kind = KindSubscriptionUpdated
		out.SubscriptionUpdated = sub

	case "customer.subscription.deleted":
		var sub struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out.Kind = KindSubscriptionDeleted
		out.SubscriptionDeleted = &SubscriptionDeleted{SubscriptionRef: sub.ID}

	case "invoice.payment_failed":
		ref, err := extractInvoiceSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Kind = KindPaymentFailed
		out.PaymentFailed = &PaymentEvent{SubscriptionRef: ref}

	case "invoice.paid":
		ref, err := extractInvoiceSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Kind = KindPaymentSucceeded
		out.PaymentSucceeded = &PaymentEvent{SubscriptionRef: ref}

	default:
		out.Kind = KindUnknown
	}

	return out, nil
}

// extractSubscription reads the lifecycle fields from a subscription object.
// The billing period moved from the subscription to its items across API
// versions; top-level values win when present, the first item otherwise.
func extractSubscription(raw json.RawMessage) (*SubscriptionUpdated, error) {
	var sub struct {
		ID                 string            `json:"id"`
		Status             string            `json:"status"`
		Metadata           map[string]string `json:"metadata"`
		CurrentPeriodStart int64             `json:"current_period_start"`
		CurrentPeriodEnd   int64             `json:"current_period_end"`
		Items              struct {
			Data []struct {
				CurrentPeriodStart int64 `json:"current_period_start"`
				CurrentPeriodEnd   int64 `json:"current_period_end"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	periodStart, periodEnd := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	if periodStart == 0 && len(sub.Items.Data) > 0 {
		periodStart = sub.Items.Data[0].CurrentPeriodStart
		periodEnd = sub.Items.Data[0].CurrentPeriodEnd
	}

	out := &SubscriptionUpdated{
		SubscriptionRef: sub.ID,
		UserID:          sub.Metadata["user_id"],
		Status:          mapStripeStatus(sub.Status),
	}
	if periodStart > 0 {
		out.PeriodStart = time.Unix(periodStart, 0).UTC()
	}
	if periodEnd > 0 {
		out.PeriodEnd = time.Unix(periodEnd, 0).UTC()
	}
	return out, nil
}

// extractInvoiceSubscription resolves the subscription an invoice belongs to.
// Older API versions carry it at the top level; newer ones nest it under
// parent.subscription_details. An empty result means a one-time invoice.
func extractInvoiceSubscription(raw json.RawMessage) (string, error) {
	var inv struct {
		Subscription providerRef `json:"subscription"`
		Parent       *struct {
			SubscriptionDetails *struct {
				Subscription providerRef `json:"subscription"`
			} `json:"subscription_details"`
		} `json:"parent"`
	}
	if err := json.Unmarshal(raw, &inv); err != nil {
		return "", errors.Join(ErrInvalidPayload, err)
	}

	if inv.Subscription.ID != "" {
		return inv.Subscription.ID, nil
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
		return inv.Parent.SubscriptionDetails.Subscription.ID, nil
	}
	return "", nil
}

// mapStripeStatus maps Stripe subscription statuses onto the normalized set.
// Unknown statuses pass through unchanged so new provider states surface in
// stored records instead of being silently rewritten.
func mapStripeStatus(s string) Status {
	switch s {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due":
		return StatusPastDue
	case "canceled", "unpaid", "incomplete_expired":
		return StatusCanceled
	default:
		return Status(s)
	}
}
