// Package pkglog configures the process-wide slog logger.
//
// Records are JSON on stdout with ts, severity and file keys, and carry the
// service name and, inside a request, its correlation id.
package pkglog
