package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shandysiswandi/goraid/internal/game/backend"
	"github.com/shandysiswandi/goraid/internal/game/entity"
	"github.com/shandysiswandi/goraid/internal/game/usecase"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goraid/internal/pkg/pkguid"
)

// userIDAuth lets the raw user ids in knownIDs pass the identity lookup that
// score submission performs.
type userIDAuth struct {
	usecase.Backend
	knownIDs map[string]bool
}

func (b userIDAuth) GetUser(ctx context.Context, token string) (*entity.Identity, error) {
	if b.knownIDs[token] {
		return &entity.Identity{ID: token}, nil
	}
	return b.Backend.GetUser(ctx, token)
}

// brokenProfiles fails every insert into the users table.
type brokenProfiles struct {
	usecase.Backend
}

func (b brokenProfiles) Insert(ctx context.Context, table string, record any) error {
	if table == entity.TableUsers {
		return errors.New("permission denied for table users")
	}
	return b.Backend.Insert(ctx, table, record)
}

type wrappedConnector struct {
	mem  *backend.Memory
	wrap func(usecase.Backend) usecase.Backend
}

func (c wrappedConnector) Connect(ctx context.Context) (usecase.Backend, error) {
	b, err := c.mem.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if c.wrap == nil {
		return b, nil
	}
	return c.wrap(b), nil
}

func newMemoryRouter(t *testing.T, seed map[string][]map[string]any, wrap func(usecase.Backend) usecase.Backend) http.Handler {
	t.Helper()

	mem, err := backend.NewMemory(backend.MemoryConfig{
		Secret:   []byte("integration-secret"),
		HashCost: bcrypt.MinCost,
		Seed:     seed,
	})
	require.NoError(t, err)

	uc := usecase.New(usecase.Dependency{Backend: wrappedConnector{mem: mem, wrap: wrap}})
	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, uc)

	return router
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	rec := do(router, http.MethodPost, "/api/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Session struct {
			AccessToken string `json:"access_token"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.User.ID)
	require.NotEmpty(t, resp.Session.AccessToken)

	return resp.Session.AccessToken
}

type profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Level      int64  `json:"level"`
	Experience int64  `json:"experience"`
}

func getProfile(t *testing.T, router http.Handler, token string) profile {
	t.Helper()

	rec := do(router, http.MethodGet, "/api/user", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestRegisterLoginProfileUpdate(t *testing.T) {
	router := newMemoryRouter(t, nil, nil)

	rec := do(router, http.MethodPost, "/api/register", `{"email":"a@b.com","password":"secret1","username":"alice"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"message":"User registered successfully"}`, rec.Body.String())

	token := login(t, router, "a@b.com", "secret1")

	before := getProfile(t, router, token)
	require.NotEmpty(t, before.ID)
	require.Equal(t, "alice", before.Username)
	require.Equal(t, int64(1), before.Level)
	require.Equal(t, int64(0), before.Experience)

	rec = do(router, http.MethodPatch, "/api/user", `{"experience":500}`, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"message":"User updated successfully"}`, rec.Body.String())

	after := getProfile(t, router, token)
	require.Equal(t, profile{ID: before.ID, Username: "alice", Level: 1, Experience: 500}, after)
}

func TestUpdateExperienceOnlyTouchesCaller(t *testing.T) {
	router := newMemoryRouter(t, nil, nil)

	for _, u := range []string{"alice", "bob"} {
		rec := do(router, http.MethodPost, "/api/register", `{"email":"`+u+`@b.com","password":"secret1","username":"`+u+`"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	alice := login(t, router, "alice@b.com", "secret1")
	bob := login(t, router, "bob@b.com", "secret1")

	rec := do(router, http.MethodPatch, "/api/user", `{"experience":-20}`, map[string]string{"Authorization": "Bearer " + alice})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, int64(-20), getProfile(t, router, alice).Experience)
	require.Equal(t, int64(0), getProfile(t, router, bob).Experience)
}

func TestAuthFailures(t *testing.T) {
	router := newMemoryRouter(t, nil, nil)

	rec := do(router, http.MethodPost, "/api/register", `{"email":"a@b.com","password":"secret1","username":"alice"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, "/api/register", `{"email":"a@b.com","password":"secret1","username":"again"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"User already registered"}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/login", `{"email":"a@b.com","password":"nope"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Invalid login credentials"}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/user", "", map[string]string{"Authorization": "Bearer not-a-jwt"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid JWT")

	rec = do(router, http.MethodPatch, "/api/user", `{"experience":1}`, map[string]string{"Authorization": "Bearer"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Auth session missing!"}`, rec.Body.String())
}

func TestUpdateExperienceRejectsTokenBeforeBody(t *testing.T) {
	router := newMemoryRouter(t, nil, nil)

	rec := do(router, http.MethodPost, "/api/register", `{"email":"a@b.com","password":"secret1","username":"alice"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := login(t, router, "a@b.com", "secret1")

	tests := []struct {
		token  string
		body   string
		status int
		msg    string
	}{
		{token: "not-a-jwt", body: `{}`, status: http.StatusUnauthorized},
		{token: "not-a-jwt", body: `garbage`, status: http.StatusUnauthorized},
		{token: token, body: `{}`, status: http.StatusBadRequest, msg: "experience is required"},
		{token: token, body: `garbage`, status: http.StatusBadRequest, msg: "invalid request body"},
	}

	for _, tt := range tests {
		rec := do(router, http.MethodPatch, "/api/user", tt.body, map[string]string{"Authorization": "Bearer " + tt.token})
		require.Equal(t, tt.status, rec.Code, "token=%s body=%s", tt.token, tt.body)
		if tt.msg != "" {
			require.JSONEq(t, `{"error":"`+tt.msg+`"}`, rec.Body.String())
		} else {
			require.Contains(t, rec.Body.String(), "invalid JWT")
		}
	}

	require.Equal(t, int64(0), getProfile(t, router, token).Experience)
}

func TestRegisterLeavesAccountWhenProfileFails(t *testing.T) {
	router := newMemoryRouter(t, nil, func(b usecase.Backend) usecase.Backend {
		return brokenProfiles{Backend: b}
	})

	rec := do(router, http.MethodPost, "/api/register", `{"email":"a@b.com","password":"secret1","username":"alice"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"permission denied for table users"}`, rec.Body.String())

	// The account survived: it can sign in, but has no profile row.
	token := login(t, router, "a@b.com", "secret1")

	rec = do(router, http.MethodGet, "/api/user", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Cannot coerce the result to a single JSON object"}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/register", `{"email":"a@b.com","password":"secret1","username":"alice"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoresLeaderboard(t *testing.T) {
	seed := map[string][]map[string]any{
		entity.TableUsers: {
			{"id": "u1", "username": "alice", "level": 1, "experience": 0},
			{"id": "u2", "username": "bob", "level": 1, "experience": 0},
		},
	}
	router := newMemoryRouter(t, seed, func(b usecase.Backend) usecase.Backend {
		return userIDAuth{Backend: b, knownIDs: map[string]bool{"u1": true, "u2": true}}
	})

	rec := do(router, http.MethodPost, "/api/scores", `{"user_id":"u1","score":42}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"message":"Score saved successfully"}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/scores", `{"user_id":"ghost","score":1000}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	for i, s := range []int{7, 99, 3, 42, 15, 61, 8, 23, 4, 77, 50} {
		owner := "u1"
		if i%2 == 0 {
			owner = "u2"
		}
		body, err := json.Marshal(map[string]any{"user_id": owner, "score": s})
		require.NoError(t, err)
		rec = do(router, http.MethodPost, "/api/scores", string(body), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/api/scores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []struct {
		UserID string `json:"user_id"`
		Score  int64  `json:"score"`
		Users  struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, usecase.TopScoresLimit)

	for i, r := range rows {
		require.NotEqual(t, "ghost", r.UserID)
		require.Equal(t, map[string]string{"u1": "alice", "u2": "bob"}[r.UserID], r.Users.Username)
		if i > 0 {
			require.LessOrEqual(t, r.Score, rows[i-1].Score)
		}
	}
	require.Equal(t, int64(99), rows[0].Score)

	var found bool
	for _, r := range rows {
		if r.UserID == "u1" && r.Score == 42 {
			found = true
		}
	}
	require.True(t, found, "submitted score should be listed")
}

func TestBossesOrderedByLevel(t *testing.T) {
	router := newMemoryRouter(t, map[string][]map[string]any{
		entity.TableBosses: {
			{"name": "dragon", "level": 10},
			{"name": "slime", "level": 1},
			{"name": "golem", "level": 5},
			{"name": "wolf", "level": 1},
		},
	}, nil)

	rec := do(router, http.MethodGet, "/api/bosses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []struct {
		Name  string `json:"name"`
		Level int64  `json:"level"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		require.GreaterOrEqual(t, rows[i].Level, rows[i-1].Level)
	}
	require.Equal(t, "dragon", rows[3].Name)
}
