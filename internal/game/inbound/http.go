package inbound

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shandysiswandi/goraid/internal/game/entity"
	"github.com/shandysiswandi/goraid/internal/game/usecase"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgrouter"
)

type uc interface {
	SubmitScore(ctx context.Context, in usecase.SubmitScoreInput) error
	TopScores(ctx context.Context) (json.RawMessage, error)
	Bosses(ctx context.Context) (json.RawMessage, error)
	Register(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, in usecase.LoginInput) (entity.AuthSession, error)
	Profile(ctx context.Context, token string) (json.RawMessage, error)
	UpdateExperience(ctx context.Context, token string, in usecase.UpdateExperienceInput) error
}

// Routes is the complete route table of the API.
func Routes(end *HTTPEndpoint) []pkgrouter.Route {
	return []pkgrouter.Route{
		{Method: http.MethodPost, Path: "/api/scores", Handler: end.SubmitScore},
		{Method: http.MethodGet, Path: "/api/scores", Handler: end.TopScores},
		{Method: http.MethodGet, Path: "/api/bosses", Handler: end.Bosses},
		{Method: http.MethodPost, Path: "/api/register", Handler: end.Register},
		{Method: http.MethodPost, Path: "/api/login", Handler: end.Login},
		{Method: http.MethodGet, Path: "/api/user", Handler: end.Profile},
		{Method: http.MethodPatch, Path: "/api/user", Handler: end.UpdateExperience},
	}
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	r.Mount(Routes(&HTTPEndpoint{uc: uc}))
}
