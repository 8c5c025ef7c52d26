// Package pg manages the PostgreSQL connection pool for the platform.
//
// It wraps pgxpool with startup retry logic, routes goose schema migrations
// through the application logger, and exposes error helpers so service stores
// can translate driver errors into their own sentinel errors.
package pg
