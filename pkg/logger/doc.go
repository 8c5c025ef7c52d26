// Package logger builds configured slog.Logger instances for the platform.
//
// Production services log JSON to stdout at INFO; development uses the text
// handler at DEBUG. Every logger carries the service name so log aggregation
// can separate components running in the same process.
package logger
