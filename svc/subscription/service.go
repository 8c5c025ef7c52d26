package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/billing"
)

// Config holds the checkout and portal redirect targets.
type Config struct {
	CheckoutReturnURL string `env:"BILLING_CHECKOUT_RETURN_URL,required"`
	PortalReturnURL   string `env:"BILLING_PORTAL_RETURN_URL,required"`
	PlansPath         string `env:"BILLING_PLANS_PATH" envDefault:"config/plans.yaml"`
}

// Account is the minimal identity needed to start a checkout.
type Account struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// Service covers the synchronous billing operations: starting checkouts,
// opening the billing portal, and reading the current subscription.
type Service struct {
	store    Store
	provider billing.Provider
	catalog  *Catalog
	cfg      Config
	log      *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger. Defaults to slog.Default.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	if log == nil {
		panic("subscription: logger cannot be nil")
	}
	return func(s *Service) { s.log = log }
}

// NewService creates the billing service.
func NewService(store Store, provider billing.Provider, catalog *Catalog, cfg Config, opts ...ServiceOption) *Service {
	if store == nil {
		panic("subscription: store cannot be nil")
	}
	if provider == nil {
		panic("subscription: provider cannot be nil")
	}
	if catalog == nil {
		panic("subscription: catalog cannot be nil")
	}

	s := &Service{
		store:    store,
		provider: provider,
		catalog:  catalog,
		cfg:      cfg,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plans returns the purchasable catalog.
func (s *Service) Plans() []Plan {
	return s.catalog.Plans()
}

// Get returns the user's subscription record, ErrNotFound if none exists.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.store.GetByUserID(ctx, userID)
}

// StartCheckout creates an embedded checkout session for the given tier,
// reusing the user's existing billing customer when one exists. The returned
// client secret drives the provider's checkout widget on the dashboard.
func (s *Service) StartCheckout(ctx context.Context, account Account, tier string) (*billing.CheckoutSession, error) {
	plan, err := s.catalog.ByTier(tier)
	if err != nil {
		return nil, err
	}

	customerRef, err := s.customerRefFor(ctx, account)
	if err != nil {
		return nil, errors.Join(ErrFailedToStartCheckout, err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerRef: customerRef,
		PriceID:     plan.ProviderPriceID,
		UserID:      account.ID.String(),
		Tier:        plan.Tier,
		SeatsLimit:  plan.SeatsLimit,
		ReturnURL:   s.cfg.CheckoutReturnURL,
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToStartCheckout, err)
	}

	s.log.InfoContext(ctx, "checkout session started",
		slog.String("user_id", account.ID.String()),
		slog.String("tier", plan.Tier))
	return session, nil
}

// OpenPortal creates a billing portal session for the user's existing
// customer. ErrNotFound when the user has no billing relationship yet.
func (s *Service) OpenPortal(ctx context.Context, userID uuid.UUID) (*billing.PortalSession, error) {
	sub, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.CustomerRef == "" {
		return nil, ErrNotFound
	}

	session, err := s.provider.CreatePortalSession(ctx, billing.PortalParams{
		CustomerRef: sub.CustomerRef,
		ReturnURL:   s.cfg.PortalReturnURL,
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenPortal, err)
	}
	return session, nil
}

// customerRefFor reuses the stored customer reference or registers a new
// billing customer. Repeat checkouts by the same user must not mint duplicate
// customers.
func (s *Service) customerRefFor(ctx context.Context, account Account) (string, error) {
	sub, err := s.store.GetByUserID(ctx, account.ID)
	switch {
	case err == nil && sub.CustomerRef != "":
		return sub.CustomerRef, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return "", err
	}

	return s.provider.CreateCustomer(ctx, billing.CustomerParams{
		UserID: account.ID.String(),
		Email:  account.Email,
		Name:   account.Name,
	})
}
