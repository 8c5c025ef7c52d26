// Package jwt implements HMAC-SHA256 signed tokens used for browser sessions.
// Only HS256 is supported; the identity provider handles all credential
// verification, so these tokens carry nothing but the session claims issued
// after a successful OAuth callback.
package jwt
