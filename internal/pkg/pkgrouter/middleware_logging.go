package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// maxLoggedBody caps how much of a request or response body ends up in a log line.
const maxLoggedBody = 16 * 1024

const redacted = "***"

// redactedKeys are header names and JSON fields never written to logs. Login
// responses carry GoTrue sessions, so the token fields are covered here too.
//
//nolint:gochecknoglobals // read-only lookup table
var redactedKeys = map[string]struct{}{
	"password":       {},
	"access_token":   {},
	"refresh_token":  {},
	"provider_token": {},
	"authorization":  {},
	"apikey":         {},
	"cookie":         {},
}

func isRedacted(key string) bool {
	_, ok := redactedKeys[strings.ToLower(key)]
	return ok
}

func redactHeader(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if isRedacted(key) {
			out.Set(key, redacted)
		}
	}
	return out
}

func redact(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isRedacted(k) {
				out[k] = redacted
				continue
			}
			out[k] = redact(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = redact(inner)
		}
		return out
	default:
		return v
	}
}

// describeBody turns a captured body into something safe to log. JSON is
// decoded and redacted; anything else is logged as text, or omitted when it
// is not valid UTF-8.
func describeBody(body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	var desc any
	var decoded any
	switch {
	case !truncated && json.Unmarshal(body, &decoded) == nil:
		desc = redact(decoded)
	case !utf8.Valid(body):
		desc = "<binary body omitted>"
	default:
		desc = string(body)
	}

	if truncated {
		return map[string]any{"body": desc, "truncated": true}
	}
	return desc
}

// captureWriter records the status and a bounded copy of the body.
type captureWriter struct {
	http.ResponseWriter
	status    int
	written   int
	body      bytes.Buffer
	truncated bool
}

func (w *captureWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBody - w.body.Len(); room < len(p) {
		w.body.Write(p[:max(room, 0)])
		w.truncated = true
	} else {
		w.body.Write(p)
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *captureWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *captureWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routeLabel is the registered pattern, or "unmatched" for requests that fell
// through to the not-found handler.
func routeLabel(r *http.Request) string {
	if pattern, ok := r.Context().Value(routePatternKey{}).(string); ok {
		return pattern
	}
	return "unmatched"
}

// peekBody reads at most maxLoggedBody+1 bytes and puts them back in front
// of the unread remainder, leaving size limits to the handler.
func peekBody(r *http.Request) (head []byte, truncated bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	//nolint:errcheck // logging is best effort
	head, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(head), r.Body),
		Closer: r.Body,
	}

	if len(head) > maxLoggedBody {
		return head[:maxLoggedBody], true
	}
	return head, false
}

type replayBody struct {
	io.Reader
	io.Closer
}

func responseLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeLabel(r)
		reqBody, reqTruncated := peekBody(r)

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"headers", redactHeader(r.Header),
			"body", describeBody(reqBody, reqTruncated),
		)

		cw := &captureWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)

		status := cw.statusCode()
		slog.Log(r.Context(), responseLevel(status), "response sent",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", cw.written,
			"latency_ms", time.Since(start).Milliseconds(),
			"body", describeBody(cw.body.Bytes(), cw.truncated),
		)
	})
}
