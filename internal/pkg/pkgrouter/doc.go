// Package pkgrouter wraps HTTP routing and common middleware used by the API.
//
// It provides a small router abstraction over httprouter that dispatches on an
// exact (method, path) table, plus shared concerns like JSON encoding, error
// mapping, logging, recovery, and correlation ID propagation.
package pkgrouter
