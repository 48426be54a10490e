package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"

	"github.com/shandysiswandi/goraid/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goraid/internal/pkg/pkglog"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goraid/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "path", path, "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("tz"); tz != "" {
		//nolint:errcheck,gosec // only fails on invalid keys
		os.Setenv("TZ", tz)
	}

	if lvl := cfg.GetString("log.level"); lvl != "" && !pkglog.SetLevel(lvl) {
		slog.Warn("ignoring unknown log level", "level", lvl)
	}

	a.config = cfg
}

func (a *App) initLibraries() {
	a.uuid = pkguid.NewUUID()
}

// corsOptions admits browser clients from origins, or from anywhere when
// the list is empty. Credentials travel in the Authorization header, never in
// cookies.
func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			pkgrouter.HeaderCorrelationID,
			pkgrouter.HeaderRequestID,
		},
		ExposedHeaders: []string{pkgrouter.HeaderCorrelationID},
	}
}

// withCORS applies CORS only to paths the router serves. Requests for any
// other path, preflights included, reach the router and get its 404.
func withCORS(router *pkgrouter.Router, opts cors.Options) http.Handler {
	withHeaders := cors.New(opts).Handler(router)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !router.HasPath(r.URL.Path) {
			router.ServeHTTP(w, r)
			return
		}
		withHeaders.ServeHTTP(w, r)
	})
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           withCORS(a.router, corsOptions(a.config.GetArray("server.cors.allowed_origins"))),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) initClosers() {
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
}
