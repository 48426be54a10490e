package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/goraid/internal/pkg/pkgconfig"
)

// testConfig ends inside the server block so callers can append server keys.
const testConfig = `
modules:
  game:
    enabled: true
backend:
  driver: memory
  memory:
    seed:
      bosses:
        - name: slime
          level: 1
server:
  address:
    http: "127.0.0.1:0"
`

func newTestApp(t *testing.T, extra string) *App {
	t.Helper()

	for _, key := range []string{"BACKEND_DRIVER", "MODULES_GAME_ENABLED", "SERVER_ADDRESS_HTTP", "SERVER_CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig+extra), 0o600))

	cfg, err := pkgconfig.NewViper(path)
	require.NoError(t, err)

	a := &App{config: cfg}
	a.initLibraries()
	a.initHTTPServer()
	a.initModules()
	a.initClosers()

	return a
}

func TestHTTPServerServesGameRoutes(t *testing.T) {
	a := newTestApp(t, "")
	t.Cleanup(func() { a.Stop(context.Background()) })

	require.Len(t, a.router.Routes(), 7)

	req := httptest.NewRequest(http.MethodGet, "/api/bosses", nil)
	req.Header.Set("Origin", "https://game.example")
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", rec.Body.String())
}

func TestHTTPServerAnswersPreflight(t *testing.T) {
	a := newTestApp(t, "")
	t.Cleanup(func() { a.Stop(context.Background()) })

	req := httptest.NewRequest(http.MethodOptions, "/api/user", nil)
	req.Header.Set("Origin", "https://game.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)

	require.Less(t, rec.Code, http.StatusMultipleChoices)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestStopRunsClosersInReverse(t *testing.T) {
	a := newTestApp(t, "")

	var order []string
	a.addCloser("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	a.addCloser("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	a.Stop(context.Background())

	require.Equal(t, []string{"second", "first"}, order)
}

func preflight(path, origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	return req
}

func TestHTTPServerPreflightOnUnknownPathIsNotFound(t *testing.T) {
	a := newTestApp(t, "")
	t.Cleanup(func() { a.Stop(context.Background()) })

	for _, path := range []string{"/api/unknown", "/api/user/", "/"} {
		rec := httptest.NewRecorder()
		a.httpServer.Handler.ServeHTTP(rec, preflight(path, "https://game.example"))

		require.Equal(t, http.StatusNotFound, rec.Code, path)
		require.Equal(t, "Not Found", rec.Body.String())
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestHTTPServerAllowedOriginsFromConfig(t *testing.T) {
	a := newTestApp(t, `  cors:
    allowed_origins: "https://game.example, https://admin.example"
`)
	t.Cleanup(func() { a.Stop(context.Background()) })

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, preflight("/api/bosses", "https://admin.example"))
	require.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, preflight("/api/bosses", "https://evil.example"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
