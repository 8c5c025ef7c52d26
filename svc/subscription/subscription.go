package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/billing"
)

// SeatsUnlimited marks a subscription with no per-classroom seat cap.
const SeatsUnlimited = -1

// DefaultSeatsLimit applies when neither the checkout metadata nor the plan
// specifies a seat limit. Sized for a single classroom roster.
const DefaultSeatsLimit = 36

// DefaultTier applies when checkout metadata names no plan tier.
const DefaultTier = "teacher"

// Subscription is a user's billing state. Each user has at most one record,
// keyed by UserID; the provider references identify the same subscription on
// the provider's side and are how webhook events find the row.
type Subscription struct {
	UserID          uuid.UUID
	CustomerRef     string // provider customer ID (cus_xxx)
	SubscriptionRef string // provider subscription ID (sub_xxx)
	Tier            string
	Status          billing.Status
	SeatsLimit      int // SeatsUnlimited for uncapped plans
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the subscription grants access. Trialing counts:
// the provider moves trials to active or past_due on its own schedule.
func (s *Subscription) IsActive() bool {
	return s.Status == billing.StatusActive || s.Status == billing.StatusTrialing
}

func (s *Subscription) IsPastDue() bool {
	return s.Status == billing.StatusPastDue
}

func (s *Subscription) IsCanceled() bool {
	return s.Status == billing.StatusCanceled
}

// HasSeatCapacity reports whether another student can join a classroom under
// this subscription given the current roster size.
func (s *Subscription) HasSeatCapacity(enrolled int) bool {
	if s.SeatsLimit == SeatsUnlimited {
		return true
	}
	return enrolled < s.SeatsLimit
}
