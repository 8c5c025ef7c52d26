// Package httpserver wraps net/http with graceful shutdown, option-based
// configuration, and health probes for the platform's API process.
package httpserver
