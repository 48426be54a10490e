package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/goraid/internal/game"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.game.enabled") {
		closer, err := game.New(game.Dependency{
			Config: a.config,
			Router: a.router,
			ID:     a.uuid,
		})
		if err != nil {
			slog.Error("failed to init module game", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.addCloser("Game", closer)
		}
	}

	for _, rt := range a.router.Routes() {
		slog.Debug("route registered", "method", rt.Method, "path", rt.Path)
	}
}
