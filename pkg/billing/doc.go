// Package billing defines the contract between the platform and its payment
// provider: verifying inbound webhook events, the typed event union those
// events are parsed into, and the one-shot API calls the subscription service
// needs (checkout sessions, billing portal sessions, subscription lookups).
//
// Events arrive from the provider asynchronously, possibly out of order, and
// at least once. Verification happens on the exact raw bytes received - the
// payload must never be re-serialized before the signature check. Parsing is
// fail-closed: a recognized event kind whose payload lacks a required linking
// field produces a variant with that field empty, and the consumer decides
// whether that makes the event unprocessable.
//
// The Stripe implementation lives in this package; everything else depends
// only on the interfaces so tests can run against doubles.
package billing
