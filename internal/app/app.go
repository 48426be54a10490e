package app

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/goraid/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goraid/internal/pkg/pkglog"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goraid/internal/pkg/pkguid"
)

// App owns the HTTP server and everything hanging off it. It keeps no
// request state; modules only register routes.
type App struct {
	config pkgconfig.Config
	uuid   pkguid.StringID

	router     *pkgrouter.Router
	httpServer *http.Server

	// closers run in reverse registration order on Stop.
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

func New() *App {
	pkglog.InitLogging()

	app := &App{}
	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}
