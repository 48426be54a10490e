package pkgrouter

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/goraid/internal/pkg/pkglog"
)

// Generator produces correlation ids for requests that arrive without one.
type Generator interface {
	Generate() string
}

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

const maxCIDLength = 128

// cleanCID trims v and drops values that could split a header.
func cleanCID(v string) string {
	v = strings.TrimSpace(v)
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	if len(v) > maxCIDLength {
		return v[:maxCIDLength]
	}
	return v
}

func incomingCID(r *http.Request) string {
	for _, h := range [...]string{HeaderCorrelationID, HeaderRequestID} {
		if cid := cleanCID(r.Header.Get(h)); cid != "" {
			return cid
		}
	}
	return ""
}

func middlewareCorrelationID(gen Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := incomingCID(r)
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}
			if cid == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(HeaderCorrelationID, cid)
			next.ServeHTTP(w, r.WithContext(pkglog.WithCorrelationID(r.Context(), cid)))
		})
	}
}
