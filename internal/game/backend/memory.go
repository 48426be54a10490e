package backend

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/shandysiswandi/goraid/internal/game/entity"
	"github.com/shandysiswandi/goraid/internal/game/usecase"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goraid/internal/pkg/pkguid"
)

const (
	defaultTokenTTL   = time.Hour
	minPasswordLength = 6
	authenticatedRole = "authenticated"
)

// MemoryConfig configures an in-process backend.
type MemoryConfig struct {
	// Secret signs access tokens. A random key is used when empty, which
	// invalidates tokens on restart.
	Secret []byte
	// TokenTTL defaults to one hour.
	TokenTTL time.Duration
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
	// Seed pre-populates tables, keyed by table name.
	Seed map[string][]map[string]any

	UserID pkguid.StringID
	RowID  pkguid.NumberID
	Now    func() time.Time
}

// Memory keeps accounts and tables in process.
//
// Tables hold JSON-shaped rows with numbers kept as json.Number so large ids
// round-trip. The users, scores and bosses tables always exist.
type Memory struct {
	mu       sync.RWMutex
	tables   map[string][]map[string]any
	accounts map[string]*account
	byID     map[string]*account

	secret   []byte
	ttl      time.Duration
	hashCost int
	userID   pkguid.StringID
	rowID    pkguid.NumberID
	now      func() time.Time
}

type account struct {
	ID        string    `json:"id"`
	Aud       string    `json:"aud"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	hash []byte
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type session struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         *account `json:"user"`
}

var _ usecase.Connector = (*Memory)(nil)

func NewMemory(cfg MemoryConfig) (*Memory, error) {
	m := &Memory{
		tables: map[string][]map[string]any{
			entity.TableUsers:  {},
			entity.TableScores: {},
			entity.TableBosses: {},
		},
		accounts: make(map[string]*account),
		byID:     make(map[string]*account),
		secret:   cfg.Secret,
		ttl:      cfg.TokenTTL,
		hashCost: cfg.HashCost,
		userID:   cfg.UserID,
		rowID:    cfg.RowID,
		now:      cfg.Now,
	}

	if len(m.secret) == 0 {
		m.secret = make([]byte, 32)
		if _, err := rand.Read(m.secret); err != nil {
			return nil, err
		}
	}
	if m.ttl <= 0 {
		m.ttl = defaultTokenTTL
	}
	if m.hashCost == 0 {
		m.hashCost = bcrypt.DefaultCost
	}
	if m.userID == nil {
		m.userID = pkguid.NewUUID()
	}
	if m.rowID == nil {
		sf, err := pkguid.NewSnowflake(-1)
		if err != nil {
			return nil, err
		}
		m.rowID = sf
	}
	if m.now == nil {
		m.now = time.Now
	}

	for table, rows := range cfg.Seed {
		if _, ok := m.tables[table]; !ok {
			m.tables[table] = []map[string]any{}
		}
		for _, r := range rows {
			if err := m.insert(table, r); err != nil {
				return nil, fmt.Errorf("seed %s: %w", table, err)
			}
		}
	}

	return m, nil
}

// Connect returns a new handle over the shared in-process state.
func (m *Memory) Connect(_ context.Context) (usecase.Backend, error) {
	return &memoryClient{m: m}, nil
}

type memoryClient struct {
	m *Memory
}

func (c *memoryClient) SignUp(_ context.Context, cred entity.Credentials) (entity.Identity, error) {
	m := c.m
	email := strings.ToLower(strings.TrimSpace(cred.Email))

	switch {
	case email == "" && cred.Password == "":
		return entity.Identity{}, newError(http.StatusUnprocessableEntity, "anonymous_provider_disabled", "Anonymous sign-ins are disabled")
	case email == "":
		return entity.Identity{}, newError(http.StatusBadRequest, "validation_failed", "To signup, please provide your email")
	case cred.Password == "":
		return entity.Identity{}, newError(http.StatusBadRequest, "validation_failed", "Signup requires a valid password")
	case len(cred.Password) < minPasswordLength:
		return entity.Identity{}, newError(http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), m.hashCost)
	if err != nil {
		return entity.Identity{}, &Error{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: err.Error(), cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[email]; exists {
		return entity.Identity{}, newError(http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	}

	acc := &account{
		ID:        m.userID.Generate(),
		Aud:       authenticatedRole,
		Role:      authenticatedRole,
		Email:     email,
		CreatedAt: m.now().UTC(),
		hash:      hash,
	}
	m.accounts[email] = acc
	m.byID[acc.ID] = acc

	return entity.Identity{ID: acc.ID, Email: acc.Email}, nil
}

func (c *memoryClient) SignInWithPassword(_ context.Context, cred entity.Credentials) (entity.AuthSession, error) {
	m := c.m
	email := strings.ToLower(strings.TrimSpace(cred.Email))

	m.mu.RLock()
	acc, ok := m.accounts[email]
	m.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(cred.Password)) != nil {
		return entity.AuthSession{}, newError(http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email: acc.Email,
		Role:  authenticatedRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			Audience:  jwt.ClaimStrings{authenticatedRole},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString(m.secret)
	if err != nil {
		return entity.AuthSession{}, &Error{Status: http.StatusInternalServerError, Message: err.Error(), cause: err}
	}

	user, err := json.Marshal(acc)
	if err != nil {
		return entity.AuthSession{}, err
	}
	sess, err := json.Marshal(session{
		AccessToken:  token,
		TokenType:    "bearer",
		ExpiresIn:    int64(m.ttl / time.Second),
		ExpiresAt:    expiresAt.Unix(),
		RefreshToken: m.userID.Generate(),
		User:         acc,
	})
	if err != nil {
		return entity.AuthSession{}, err
	}

	return entity.AuthSession{User: user, Session: sess}, nil
}

func (c *memoryClient) GetUser(_ context.Context, token string) (*entity.Identity, error) {
	m := c.m
	if strings.TrimSpace(token) == "" {
		return nil, newError(http.StatusUnauthorized, "session_missing", MsgSessionMissing)
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, &Error{
			Status:  http.StatusForbidden,
			Code:    "bad_jwt",
			Message: "invalid JWT: unable to parse or verify signature, " + err.Error(),
			cause:   err,
		}
	}

	m.mu.RLock()
	acc, ok := m.byID[claims.Subject]
	m.mu.RUnlock()
	if !ok {
		return nil, newError(http.StatusForbidden, "user_not_found", "User from sub claim in JWT does not exist")
	}

	return &entity.Identity{ID: acc.ID, Email: acc.Email}, nil
}

func (c *memoryClient) Select(_ context.Context, q entity.Query) (json.RawMessage, error) {
	m := c.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[q.Table]
	if !ok {
		return nil, missingTable(q.Table)
	}

	matched := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		if matches(r, q.Filters) {
			matched = append(matched, r)
		}
	}

	if q.Order != nil {
		col, asc := q.Order.Column, q.Order.Ascending
		slices.SortStableFunc(matched, func(a, b map[string]any) int {
			c := compareValues(a[col], b[col])
			if !asc {
				c = -c
			}
			return c
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]map[string]any, 0, len(matched))
	for _, r := range matched {
		row := project(r, q.Columns)
		for _, e := range q.Embeds {
			foreign, ok := m.tables[e.Table]
			if !ok {
				return nil, newError(http.StatusBadRequest, "PGRST200",
					fmt.Sprintf("Could not find a relationship between '%s' and '%s' in the schema cache", q.Table, e.Table))
			}
			row[e.Table] = lookupEmbed(foreign, r[e.ForeignKey], e.Columns)
		}
		out = append(out, row)
	}

	if q.Single {
		if len(out) != 1 {
			return nil, newError(http.StatusNotAcceptable, "PGRST116", "Cannot coerce the result to a single JSON object")
		}
		return json.Marshal(out[0])
	}

	return json.Marshal(out)
}

func (c *memoryClient) Insert(_ context.Context, table string, record any) error {
	m := c.m
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insert(table, record)
}

func (c *memoryClient) Update(_ context.Context, table string, filters []entity.Filter, fields map[string]any) error {
	m := c.m
	values, err := normalize(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return missingTable(table)
	}

	for _, r := range rows {
		if !matches(r, filters) {
			continue
		}
		for k, v := range values {
			r[k] = v
		}
	}

	return nil
}

// insert expects m.mu to be held.
func (m *Memory) insert(table string, record any) error {
	rows, ok := m.tables[table]
	if !ok {
		return missingTable(table)
	}

	r, err := normalize(record)
	if err != nil {
		return err
	}

	if id, has := r["id"]; has && id != nil {
		key, _ := stringify(id)
		for _, existing := range rows {
			if other, _ := stringify(existing["id"]); other == key {
				return newError(http.StatusConflict, "23505",
					fmt.Sprintf("duplicate key value violates unique constraint \"%s_pkey\"", table))
			}
		}
	} else {
		r["id"] = json.Number(strconv.FormatInt(m.rowID.Generate(), 10))
	}

	if _, has := r["created_at"]; !has {
		r["created_at"] = m.now().UTC().Format(time.RFC3339Nano)
	}

	m.tables[table] = append(rows, r)

	return nil
}

func missingTable(table string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    "PGRST205",
		Message: fmt.Sprintf("Could not find the table 'public.%s' in the schema cache", table),
		cause:   pkgerror.ErrNotFound,
	}
}

func normalize(record any) (map[string]any, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var r map[string]any
	if err := dec.Decode(&r); err != nil || r == nil {
		return nil, newError(http.StatusBadRequest, "PGRST102", "Empty or invalid json")
	}

	return r, nil
}

func matches(r map[string]any, filters []entity.Filter) bool {
	for _, f := range filters {
		v, ok := stringify(r[f.Column])
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

func project(r map[string]any, columns []string) map[string]any {
	if columns == nil {
		out := make(map[string]any, len(r))
		for k, v := range r {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func lookupEmbed(rows []map[string]any, key any, columns []string) any {
	want, ok := stringify(key)
	if !ok {
		return nil
	}
	for _, r := range rows {
		if id, _ := stringify(r["id"]); id == want {
			return project(r, columns)
		}
	}
	return nil
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprint(val), true
	}
}

// compareValues orders numbers numerically and everything else as text.
// Nulls compare greater than every other value, so they come last ascending
// and first descending, as in Postgres.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, _ := stringify(a)
	bs, _ := stringify(b)
	return strings.Compare(as, bs)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}
