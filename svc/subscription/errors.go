package subscription

import "errors"

var (
	ErrNotFound       = errors.New("subscription not found")
	ErrUnknownTier    = errors.New("unknown plan tier")
	ErrNoCatalogPlans = errors.New("plan catalog is empty")
	ErrInvalidPlan    = errors.New("invalid plan definition")
	ErrDuplicateTier  = errors.New("duplicate plan tier")

	ErrFailedToStartCheckout = errors.New("failed to start checkout session")
	ErrFailedToOpenPortal    = errors.New("failed to open billing portal")
)
