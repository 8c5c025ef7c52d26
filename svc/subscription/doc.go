// Package subscription owns the platform's view of paid access: one
// subscription record per user, kept in sync with the billing provider.
//
// The record is never mutated directly by application code. All writes flow
// through the Reconciler, which consumes verified provider webhook events and
// applies absolute state (set status to X, set period to Y) rather than
// deltas. That makes every mutation idempotent: redelivered events rewrite
// the same values, and events for rows that do not exist yet are acknowledged
// and dropped rather than retried forever.
//
// The Service wraps the synchronous side: starting hosted checkout sessions,
// opening the billing portal, and reading the current record for display.
// Plan definitions (tier, price, seat limits, provider price IDs) come from a
// YAML catalog loaded at startup.
package subscription
