package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goraid/internal/game/entity"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgerror"
)

// TopScoresLimit caps the leaderboard.
const TopScoresLimit = 10

// Backend is one handle on the external auth and storage service.
type Backend interface {
	SignUp(ctx context.Context, cred entity.Credentials) (entity.Identity, error)
	SignInWithPassword(ctx context.Context, cred entity.Credentials) (entity.AuthSession, error)
	// GetUser verifies token and returns the account it belongs to. A nil
	// identity with a nil error means the backend returned no data.
	GetUser(ctx context.Context, token string) (*entity.Identity, error)

	Select(ctx context.Context, q entity.Query) (json.RawMessage, error)
	Insert(ctx context.Context, table string, record any) error
	Update(ctx context.Context, table string, filters []entity.Filter, fields map[string]any) error
}

// Connector hands out a fresh Backend for every operation.
type Connector interface {
	Connect(ctx context.Context) (Backend, error)
}

type Dependency struct {
	Backend Connector
}

type Usecase struct {
	backend Connector
}

func New(dep Dependency) *Usecase {
	return &Usecase{backend: dep.Backend}
}

// SubmitScore stores a score after looking the submitter up.
//
// The lookup passes the raw user id to GetUser, which expects an access token.
// That mismatch is kept as-is; with a real auth server every submission whose
// user_id is not a valid token is rejected.
func (u *Usecase) SubmitScore(ctx context.Context, in SubmitScoreInput) error {
	client, err := u.connect(ctx)
	if err != nil {
		return err
	}

	identity, err := client.GetUser(ctx, in.UserID)
	if err != nil || identity == nil {
		return pkgerror.NewUnauthorized(MsgUnauthorized)
	}

	if err := client.Insert(ctx, entity.TableScores, entity.Score{
		UserID: in.UserID,
		Score:  in.Score,
	}); err != nil {
		return pkgerror.NewBackend(err)
	}

	return nil
}

// TopScores returns the best scores with the owner's username embedded.
func (u *Usecase) TopScores(ctx context.Context) (json.RawMessage, error) {
	client, err := u.connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := client.Select(ctx, entity.Query{
		Table: entity.TableScores,
		Embeds: []entity.Embed{{
			Table:      entity.TableUsers,
			ForeignKey: "user_id",
			Columns:    []string{"username"},
		}},
		Order: &entity.Order{Column: "score", Ascending: false},
		Limit: TopScoresLimit,
	})
	if err != nil {
		return nil, pkgerror.NewBackend(err)
	}

	return rows, nil
}

// Bosses lists every boss from the lowest level up.
func (u *Usecase) Bosses(ctx context.Context) (json.RawMessage, error) {
	client, err := u.connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := client.Select(ctx, entity.Query{
		Table: entity.TableBosses,
		Order: &entity.Order{Column: "level", Ascending: true},
	})
	if err != nil {
		return nil, pkgerror.NewBackend(err)
	}

	return rows, nil
}

// Register creates the auth account and then its profile row.
//
// A failed profile insert does not remove the account created before it.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) error {
	client, err := u.connect(ctx)
	if err != nil {
		return err
	}

	identity, err := client.SignUp(ctx, entity.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return pkgerror.NewCredentialsRejected(err)
	}

	if err := client.Insert(ctx, entity.TableUsers, entity.NewProfile(identity.ID, in.Username)); err != nil {
		slog.WarnContext(ctx, "account created without profile", "user_id", identity.ID, "error", err)
		return pkgerror.NewBackend(err)
	}

	return nil
}

// Login signs in with email and password.
func (u *Usecase) Login(ctx context.Context, in LoginInput) (entity.AuthSession, error) {
	client, err := u.connect(ctx)
	if err != nil {
		return entity.AuthSession{}, err
	}

	session, err := client.SignInWithPassword(ctx, entity.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return entity.AuthSession{}, pkgerror.NewCredentialsRejected(err)
	}

	return session, nil
}

// Profile returns the profile row of the token's owner.
func (u *Usecase) Profile(ctx context.Context, token string) (json.RawMessage, error) {
	client, identity, err := u.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	row, err := client.Select(ctx, entity.Query{
		Table:   entity.TableUsers,
		Filters: []entity.Filter{entity.Eq("id", identity.ID)},
		Single:  true,
	})
	if err != nil {
		return nil, pkgerror.NewBackend(err)
	}

	return row, nil
}

// UpdateExperience overwrites the experience of the token's owner. Any value
// is accepted, including one lower than the current experience.
func (u *Usecase) UpdateExperience(ctx context.Context, token string, in UpdateExperienceInput) error {
	client, identity, err := u.authenticate(ctx, token)
	if err != nil {
		return err
	}
	if in.BodyErr != nil {
		return in.BodyErr
	}
	if in.Experience == nil {
		return pkgerror.NewMissingField("experience")
	}

	if err := client.Update(ctx, entity.TableUsers,
		[]entity.Filter{entity.Eq("id", identity.ID)},
		map[string]any{"experience": *in.Experience},
	); err != nil {
		return pkgerror.NewBackend(err)
	}

	return nil
}

func (u *Usecase) authenticate(ctx context.Context, token string) (Backend, *entity.Identity, error) {
	client, err := u.connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	identity, err := client.GetUser(ctx, token)
	if err != nil {
		return nil, nil, pkgerror.NewUnauthorized(err.Error())
	}
	if identity == nil {
		return nil, nil, pkgerror.NewUnauthorized(MsgUnauthorized)
	}

	return client, identity, nil
}

func (u *Usecase) connect(ctx context.Context) (Backend, error) {
	if u.backend == nil {
		return nil, pkgerror.NewServer(errors.New("missing dependency"))
	}

	client, err := u.backend.Connect(ctx)
	if err != nil {
		return nil, pkgerror.NewBackend(err)
	}

	return client, nil
}
