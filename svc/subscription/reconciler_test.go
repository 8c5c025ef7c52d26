package subscription_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classloop/classloop/pkg/billing"
	"github.com/classloop/classloop/svc/subscription"
)

var errStoreDown = errors.New("store down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReconciler(store *mockStore, provider *mockProvider, opts ...subscription.ReconcilerOption) *subscription.Reconciler {
	opts = append(opts, subscription.WithReconcilerLogger(discardLogger()))
	return subscription.NewReconciler(store, provider, testCatalog(), opts...)
}

func checkoutEvent(userID, tier string) *billing.Event {
	return &billing.Event{
		Kind:         billing.KindCheckoutCompleted,
		ProviderType: "checkout.session.completed",
		CheckoutCompleted: &billing.CheckoutCompleted{
			UserID:          userID,
			Tier:            tier,
			CustomerRef:     "cus_123",
			SubscriptionRef: "sub_123",
		},
	}
}

func TestReconciler_CheckoutCompleted(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	periodStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	providerSub := func(metadata map[string]string) *billing.ProviderSubscription {
		return &billing.ProviderSubscription{
			Ref:         "sub_123",
			CustomerRef: "cus_123",
			Status:      billing.StatusActive,
			Metadata:    metadata,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		}
	}

	t.Run("creates record from provider state", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").Return(providerSub(nil), nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.UserID == userID &&
				sub.CustomerRef == "cus_123" &&
				sub.SubscriptionRef == "sub_123" &&
				sub.Tier == "teacher" &&
				sub.Status == billing.StatusActive &&
				sub.SeatsLimit == 36 &&
				sub.PeriodStart.Equal(periodStart) &&
				sub.PeriodEnd.Equal(periodEnd)
		})).Return(nil)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "teacher")))

		store.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("school tier gets unlimited seats", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").Return(providerSub(nil), nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.SeatsLimit == subscription.SeatsUnlimited
		})).Return(nil)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "school")))
		store.AssertExpectations(t)
	})

	t.Run("explicit seats metadata wins over tier", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").
			Return(providerSub(map[string]string{"seats_limit": "10"}), nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.SeatsLimit == 10
		})).Return(nil)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "school")))
		store.AssertExpectations(t)
	})

	t.Run("unparseable seats metadata falls back to tier", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").
			Return(providerSub(map[string]string{"seats_limit": "lots"}), nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.SeatsLimit == 36
		})).Return(nil)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "teacher")))
		store.AssertExpectations(t)
	})

	t.Run("unknown tier gets default seats", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").Return(providerSub(nil), nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.SeatsLimit == subscription.DefaultSeatsLimit && sub.Tier == "legacy"
		})).Return(nil)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "legacy")))
		store.AssertExpectations(t)
	})

	t.Run("missing tier defaults to teacher", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").Return(providerSub(nil), nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.Tier == subscription.DefaultTier && sub.SeatsLimit == 36
		})).Return(nil)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "")))
		store.AssertExpectations(t)
	})

	t.Run("second checkout for the same user replaces the row", func(t *testing.T) {
		t.Parallel()

		event := func(subRef string) *billing.Event {
			return &billing.Event{
				Kind: billing.KindCheckoutCompleted,
				CheckoutCompleted: &billing.CheckoutCompleted{
					UserID:          userID.String(),
					Tier:            "teacher",
					CustomerRef:     "cus_123",
					SubscriptionRef: subRef,
				},
			}
		}

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_old").Return(providerSub(nil), nil).Once()
		provider.On("RetrieveSubscription", mock.Anything, "sub_new").Return(providerSub(nil), nil).Once()
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.UserID == userID && sub.SubscriptionRef == "sub_old"
		})).Return(nil).Once()
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(sub *subscription.Subscription) bool {
			return sub.UserID == userID && sub.SubscriptionRef == "sub_new"
		})).Return(nil).Once()

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), event("sub_old")))
		require.NoError(t, r.Handle(context.Background(), event("sub_new")))

		store.AssertExpectations(t)
	})

	t.Run("missing user id drops event", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent("", "teacher")))

		store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		provider.AssertNotCalled(t, "RetrieveSubscription", mock.Anything, mock.Anything)
	})

	t.Run("malformed user id drops event", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)

		r := newTestReconciler(store, provider)
		require.NoError(t, r.Handle(context.Background(), checkoutEvent("not-a-uuid", "teacher")))
		store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("provider failure is transient", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").
			Return(nil, billing.ErrProviderError)

		r := newTestReconciler(store, provider)
		err := r.Handle(context.Background(), checkoutEvent(userID.String(), "teacher"))
		assert.ErrorIs(t, err, billing.ErrProviderError)
		store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("store failure is transient", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").Return(providerSub(nil), nil)
		store.On("Upsert", mock.Anything, mock.Anything).Return(errStoreDown)

		r := newTestReconciler(store, provider)
		assert.ErrorIs(t, r.Handle(context.Background(), checkoutEvent(userID.String(), "teacher")), errStoreDown)
	})

	t.Run("redelivery applies the same state again", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		provider := new(mockProvider)
		provider.On("RetrieveSubscription", mock.Anything, "sub_123").Return(providerSub(nil), nil).Twice()
		store.On("Upsert", mock.Anything, mock.Anything).Return(nil).Twice()

		r := newTestReconciler(store, provider)
		event := checkoutEvent(userID.String(), "teacher")
		require.NoError(t, r.Handle(context.Background(), event))
		require.NoError(t, r.Handle(context.Background(), event))

		store.AssertExpectations(t)
	})
}

func TestReconciler_SubscriptionUpdated(t *testing.T) {
	t.Parallel()

	periodStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	updateEvent := func(userID string) *billing.Event {
		return &billing.Event{
			Kind: billing.KindSubscriptionUpdated,
			SubscriptionUpdated: &billing.SubscriptionUpdated{
				SubscriptionRef: "sub_123",
				UserID:          userID,
				Status:          billing.StatusActive,
				PeriodStart:     periodStart,
				PeriodEnd:       periodEnd,
			},
		}
	}

	t.Run("updates status and period", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("UpdateBySubscriptionRef", mock.Anything, "sub_123", billing.StatusActive,
			mock.MatchedBy(func(ts *time.Time) bool { return ts != nil && ts.Equal(periodStart) }),
			mock.MatchedBy(func(ts *time.Time) bool { return ts != nil && ts.Equal(periodEnd) }),
		).Return(int64(1), nil)

		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), updateEvent("u-1")))
		store.AssertExpectations(t)
	})

	t.Run("missing user metadata drops event", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), updateEvent("")))
		store.AssertNotCalled(t, "UpdateBySubscriptionRef",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no matching row is acknowledged", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("UpdateBySubscriptionRef", mock.Anything, "sub_123", billing.StatusActive,
			mock.Anything, mock.Anything).Return(int64(0), nil)

		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), updateEvent("u-1")))
	})

	t.Run("store failure is transient", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("UpdateBySubscriptionRef", mock.Anything, "sub_123", billing.StatusActive,
			mock.Anything, mock.Anything).Return(int64(0), errStoreDown)

		r := newTestReconciler(store, new(mockProvider))
		assert.ErrorIs(t, r.Handle(context.Background(), updateEvent("u-1")), errStoreDown)
	})
}

func TestReconciler_SubscriptionDeleted(t *testing.T) {
	t.Parallel()

	deleteEvent := &billing.Event{
		Kind:                billing.KindSubscriptionDeleted,
		SubscriptionDeleted: &billing.SubscriptionDeleted{SubscriptionRef: "sub_123"},
	}

	t.Run("marks subscription canceled", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("SetStatusBySubscriptionRef", mock.Anything, "sub_123", billing.StatusCanceled).
			Return(int64(1), nil)

		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), deleteEvent))
		store.AssertExpectations(t)
	})

	t.Run("no matching row is acknowledged", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("SetStatusBySubscriptionRef", mock.Anything, "sub_123", billing.StatusCanceled).
			Return(int64(0), nil)

		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), deleteEvent))
	})
}

func TestReconciler_PaymentEvents(t *testing.T) {
	t.Parallel()

	t.Run("failure marks past due and notifies owner", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		store := new(mockStore)
		store.On("SetStatusBySubscriptionRef", mock.Anything, "sub_123", billing.StatusPastDue).
			Return(int64(1), nil)
		store.On("GetBySubscriptionRef", mock.Anything, "sub_123").
			Return(&subscription.Subscription{UserID: ownerID, SubscriptionRef: "sub_123"}, nil)
		notifier := new(mockNotifier)
		notifier.On("NotifyPaymentFailure", mock.Anything, ownerID).Return(nil)

		r := newTestReconciler(store, new(mockProvider), subscription.WithNotifier(notifier))
		require.NoError(t, r.Handle(context.Background(), &billing.Event{
			Kind:          billing.KindPaymentFailed,
			PaymentFailed: &billing.PaymentEvent{SubscriptionRef: "sub_123"},
		}))

		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("notifier failure does not fail the event", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("SetStatusBySubscriptionRef", mock.Anything, "sub_123", billing.StatusPastDue).
			Return(int64(1), nil)
		store.On("GetBySubscriptionRef", mock.Anything, "sub_123").
			Return(&subscription.Subscription{UserID: uuid.New()}, nil)
		notifier := new(mockNotifier)
		notifier.On("NotifyPaymentFailure", mock.Anything, mock.Anything).
			Return(errors.New("smtp down"))

		r := newTestReconciler(store, new(mockProvider), subscription.WithNotifier(notifier))
		require.NoError(t, r.Handle(context.Background(), &billing.Event{
			Kind:          billing.KindPaymentFailed,
			PaymentFailed: &billing.PaymentEvent{SubscriptionRef: "sub_123"},
		}))
	})

	t.Run("success reactivates subscription", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("SetStatusBySubscriptionRef", mock.Anything, "sub_123", billing.StatusActive).
			Return(int64(1), nil)

		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), &billing.Event{
			Kind:             billing.KindPaymentSucceeded,
			PaymentSucceeded: &billing.PaymentEvent{SubscriptionRef: "sub_123"},
		}))
		store.AssertExpectations(t)
	})

	t.Run("one time invoice is a no-op", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		r := newTestReconciler(store, new(mockProvider))
		require.NoError(t, r.Handle(context.Background(), &billing.Event{
			Kind:             billing.KindPaymentSucceeded,
			PaymentSucceeded: &billing.PaymentEvent{},
		}))
		store.AssertNotCalled(t, "SetStatusBySubscriptionRef", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReconciler_UnknownKind(t *testing.T) {
	t.Parallel()

	store := new(mockStore)
	provider := new(mockProvider)
	r := newTestReconciler(store, provider)

	require.NoError(t, r.Handle(context.Background(), &billing.Event{
		Kind:         billing.KindUnknown,
		ProviderType: "customer.updated",
	}))
	require.NoError(t, r.Handle(context.Background(), nil))

	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SetStatusBySubscriptionRef", mock.Anything, mock.Anything, mock.Anything)
}
