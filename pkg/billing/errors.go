package billing

import "errors"

var (
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")

	ErrMissingSignature = errors.New("webhook signature header is missing")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidPayload   = errors.New("webhook payload could not be parsed")

	ErrProviderError  = errors.New("billing provider request failed")
	ErrNoClientSecret = errors.New("no client secret returned from provider")
	ErrNoPortalURL    = errors.New("no portal URL returned from provider")
)
