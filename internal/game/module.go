package game

import (
	"context"
	"fmt"
	"time"

	"github.com/shandysiswandi/goraid/internal/game/backend"
	"github.com/shandysiswandi/goraid/internal/game/entity"
	"github.com/shandysiswandi/goraid/internal/game/inbound"
	"github.com/shandysiswandi/goraid/internal/game/usecase"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goraid/internal/pkg/pkguid"
)

const (
	DriverSupabase = "supabase"
	DriverMemory   = "memory"
)

type Dependency struct {
	Config pkgconfig.Config
	Router *pkgrouter.Router
	ID     pkguid.StringID
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	conn, err := newConnector(dep)
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{Backend: conn})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil, nil
}

func newConnector(dep Dependency) (usecase.Connector, error) {
	switch driver := dep.Config.GetString("backend.driver"); driver {
	case "", DriverSupabase:
		return backend.NewSupabase(backend.SupabaseConfig{
			URL:     dep.Config.GetString("supabase.url"),
			AnonKey: dep.Config.GetString("supabase.anon_key"),
		})
	case DriverMemory:
		var bosses []map[string]any
		if err := dep.Config.Unmarshal("backend.memory.seed.bosses", &bosses); err != nil {
			return nil, fmt.Errorf("read boss seed: %w", err)
		}

		return backend.NewMemory(backend.MemoryConfig{
			Secret:   dep.Config.GetBinary("backend.memory.jwt_secret"),
			TokenTTL: time.Duration(dep.Config.GetInt("backend.memory.token_ttl_seconds")) * time.Second,
			Seed:     map[string][]map[string]any{entity.TableBosses: bosses},
			UserID:   dep.ID,
		})
	default:
		return nil, fmt.Errorf("unknown backend driver %q", driver)
	}
}
