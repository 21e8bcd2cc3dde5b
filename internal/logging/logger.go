// Package logging is the small structured-logging facade the Dayli server
// logs through. Handlers and services take a Logger instead of a concrete
// slog handle so tests can pass a no-op and the output format stays a
// wiring decision in app startup.
//
// Log lines may end up in shared infrastructure, so callers never log
// credentials, password hashes, key-wrap material, or webhook secrets.
package logging

import "context"

// Logger logs leveled messages with key-value attributes:
//
//	log.Info(ctx, "Starting HTTP server", "address", addr)
type Logger interface {
	// Debug logs request-level detail that is noise in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs normal operational events.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs rejected input and other non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger carrying the given attributes on every line.
	With(args ...any) Logger
}
