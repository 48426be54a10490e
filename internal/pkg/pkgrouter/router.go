package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgerror"
)

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// Route is one entry of a route table: an exact method and path pair bound to
// a handler.
type Route struct {
	Method  string
	Path    string
	Handler Handler
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
//
// Matching is exact on method and path. Trailing-slash and case redirects,
// automatic OPTIONS replies and 405 responses are all disabled, so any pair
// that is not registered gets the plain-text 404.
type Router struct {
	hr         *httprouter.Router
	errorCodec func(ctx context.Context, w http.ResponseWriter, err error)
	encoder    func(ctx context.Context, w http.ResponseWriter, resp any)
	mws        []Middleware
	routes     []Route
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(uuid Generator) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  false,
		RedirectFixedPath:      false,
		HandleMethodNotAllowed: false,
		HandleOPTIONS:          false,
	}

	errorCodec := func(ctx context.Context, w http.ResponseWriter, err error) {
		var gerr *pkgerror.Error
		if !errors.As(err, &gerr) {
			slog.ErrorContext(ctx, "unhandled error type", "error", err)
			writeJSON(w, errorResponse{Error: msgInternalError}, http.StatusInternalServerError)
			return
		}

		writeJSON(w, errorResponse{Error: gerr.Msg()}, gerr.StatusCode())
	}

	okCodec := func(ctx context.Context, w http.ResponseWriter, resp any) {
		code := http.StatusOK
		if sc, ok := resp.(interface {
			StatusCode() int
		}); ok {
			code = sc.StatusCode()
		}

		if code == http.StatusNoContent || resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, resp, code)
	}

	ro := &Router{
		hr:         hr,
		errorCodec: errorCodec,
		encoder:    okCodec,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareCorrelationID(uuid),
			middlewareLogging,
		},
	}

	hr.NotFound = Chain(http.HandlerFunc(notFound), ro.mws...)

	return ro
}

// Mount registers every route of a table.
func (r *Router) Mount(table []Route) {
	for _, rt := range table {
		r.endpoint(rt.Method, rt.Path, rt.Handler)
	}
}

// Routes returns the registered method and path pairs sorted by path, then
// method. Handlers are omitted.
func (r *Router) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, Route{Method: rt.Method, Path: rt.Path})
	}
	slices.SortFunc(out, func(a, b Route) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return out
}

// HasPath reports whether any method is registered for path.
func (r *Router) HasPath(path string) bool {
	for _, rt := range r.routes {
		if rt.Path == path {
			return true
		}
	}
	return false
}

func (r *Router) endpoint(method, path string, h Handler) {
	r.routes = append(r.routes, Route{Method: method, Path: path, Handler: h})
	r.hr.Handler(method, path, withRoutePattern(path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(re.Context(), re)
		if err != nil {
			r.errorCodec(re.Context(), w, err)
			return
		}
		r.encoder(re.Context(), w, resp)
	}), r.mws...)))
}

type routePatternKey struct{}

func withRoutePattern(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), routePatternKey{}, pattern)))
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

const msgInternalError = "Internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	//nolint:errcheck // client went away
	w.Write([]byte("Not Found"))
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		//nolint:errcheck // client went away
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	//nolint:errcheck // client went away
	w.Write(body)
}
