package subscription_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/classloop/classloop/pkg/billing"
	"github.com/classloop/classloop/svc/subscription"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upsert(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if sub := args.Get(0); sub != nil {
		return sub.(*subscription.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetBySubscriptionRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	args := m.Called(ctx, ref)
	if sub := args.Get(0); sub != nil {
		return sub.(*subscription.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SetStatusBySubscriptionRef(ctx context.Context, ref string, status billing.Status) (int64, error) {
	args := m.Called(ctx, ref, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) UpdateBySubscriptionRef(ctx context.Context, ref string, status billing.Status, periodStart, periodEnd *time.Time) (int64, error) {
	args := m.Called(ctx, ref, status, periodStart, periodEnd)
	return args.Get(0).(int64), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) VerifyEvent(payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(payload, signature)
	if event := args.Get(0); event != nil {
		return event.(*billing.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) RetrieveSubscription(ctx context.Context, ref string) (*billing.ProviderSubscription, error) {
	args := m.Called(ctx, ref)
	if sub := args.Get(0); sub != nil {
		return sub.(*billing.ProviderSubscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) CreateCustomer(ctx context.Context, params billing.CustomerParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if sess := args.Get(0); sess != nil {
		return sess.(*billing.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) CreatePortalSession(ctx context.Context, params billing.PortalParams) (*billing.PortalSession, error) {
	args := m.Called(ctx, params)
	if sess := args.Get(0); sess != nil {
		return sess.(*billing.PortalSession), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyPaymentFailure(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testCatalog() *subscription.Catalog {
	catalog, err := subscription.NewCatalog(
		subscription.Plan{
			Tier:            "teacher",
			Name:            "Teacher",
			PriceCents:      900,
			Interval:        "month",
			SeatsLimit:      36,
			ProviderPriceID: "price_teacher_monthly",
		},
		subscription.Plan{
			Tier:            "school",
			Name:            "School",
			PriceCents:      9900,
			Interval:        "year",
			SeatsLimit:      subscription.SeatsUnlimited,
			ProviderPriceID: "price_school_yearly",
		},
	)
	if err != nil {
		panic(err)
	}
	return catalog
}
