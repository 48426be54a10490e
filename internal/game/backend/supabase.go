package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shandysiswandi/goraid/internal/game/entity"
	"github.com/shandysiswandi/goraid/internal/game/usecase"
	"github.com/shandysiswandi/goraid/internal/pkg/pkglog"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	mediaJSON         = "application/json"
	mediaSingleObject = "application/vnd.pgrst.object+json"
)

// MsgSessionMissing is what the auth server says when no token is given.
const MsgSessionMissing = "Auth session missing!"

// SupabaseConfig holds the connection parameters of a Supabase project.
type SupabaseConfig struct {
	URL     string
	AnonKey string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Supabase connects to a hosted Supabase project.
type Supabase struct {
	baseURL string
	key     string
	http    *http.Client
}

var _ usecase.Connector = (*Supabase)(nil)

func NewSupabase(cfg SupabaseConfig) (*Supabase, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if raw == "" {
		return nil, errors.New("supabase url is not configured")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("supabase url must be absolute")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("supabase anon key is not configured")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Supabase{baseURL: raw, key: cfg.AnonKey, http: hc}, nil
}

// Connect returns a new client handle. Handles carry no session state.
func (s *Supabase) Connect(_ context.Context) (usecase.Backend, error) {
	return &supabaseClient{baseURL: s.baseURL, key: s.key, http: s.http}, nil
}

type supabaseClient struct {
	baseURL string
	key     string
	http    *http.Client
}

type apiRequest struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	header map[string]string
}

func (c *supabaseClient) SignUp(ctx context.Context, cred entity.Credentials) (entity.Identity, error) {
	data, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   authPath + "/signup",
		body:   cred,
	})
	if err != nil {
		return entity.Identity{}, err
	}

	// With email confirmation on, the auth server answers with the bare user;
	// otherwise with a session that embeds it.
	var resp struct {
		entity.Identity
		User *entity.Identity `json:"user"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return entity.Identity{}, decodeFailure(err)
	}
	if resp.User != nil && resp.User.ID != "" {
		return *resp.User, nil
	}
	if resp.ID == "" {
		return entity.Identity{}, newError(http.StatusBadGateway, "", "sign-up returned no user")
	}

	return resp.Identity, nil
}

func (c *supabaseClient) SignInWithPassword(ctx context.Context, cred entity.Credentials) (entity.AuthSession, error) {
	data, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   authPath + "/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   cred,
	})
	if err != nil {
		return entity.AuthSession{}, err
	}

	var resp struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return entity.AuthSession{}, decodeFailure(err)
	}

	return entity.AuthSession{User: resp.User, Session: json.RawMessage(data)}, nil
}

func (c *supabaseClient) GetUser(ctx context.Context, token string) (*entity.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError(http.StatusUnauthorized, "session_missing", MsgSessionMissing)
	}

	data, err := c.do(ctx, apiRequest{
		method: http.MethodGet,
		path:   authPath + "/user",
		bearer: token,
	})
	if err != nil {
		return nil, err
	}

	var identity entity.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, decodeFailure(err)
	}
	if identity.ID == "" {
		return nil, nil
	}

	return &identity, nil
}

func (c *supabaseClient) Select(ctx context.Context, q entity.Query) (json.RawMessage, error) {
	params := filterParams(q.Filters)
	params.Set("select", selectClause(q))
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req := apiRequest{
		method: http.MethodGet,
		path:   restPath + "/" + url.PathEscape(q.Table),
		query:  params,
	}
	if q.Single {
		req.header = map[string]string{"Accept": mediaSingleObject}
	}

	data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(data), nil
}

func (c *supabaseClient) Insert(ctx context.Context, table string, record any) error {
	_, err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   restPath + "/" + url.PathEscape(table),
		body:   record,
		header: map[string]string{"Prefer": "return=minimal"},
	})
	return err
}

func (c *supabaseClient) Update(ctx context.Context, table string, filters []entity.Filter, fields map[string]any) error {
	_, err := c.do(ctx, apiRequest{
		method: http.MethodPatch,
		path:   restPath + "/" + url.PathEscape(table),
		query:  filterParams(filters),
		body:   fields,
		header: map[string]string{"Prefer": "return=minimal"},
	})
	return err
}

func (c *supabaseClient) do(ctx context.Context, ar apiRequest) ([]byte, error) {
	var body io.Reader
	if ar.body != nil {
		payload, err := json.Marshal(ar.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + ar.path
	if len(ar.query) > 0 {
		target += "?" + ar.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, ar.method, target, body)
	if err != nil {
		return nil, err
	}

	bearer := ar.bearer
	if bearer == "" {
		bearer = c.key
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", mediaJSON)
	if body != nil {
		req.Header.Set("Content-Type", mediaJSON)
	}
	if cid := pkglog.CorrelationID(ctx); cid != "" {
		req.Header.Set("X-Request-ID", cid)
	}
	for k, v := range ar.header {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error(), cause: err}
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseError(resp.StatusCode, data)
	}

	return data, nil
}

// parseError reads both auth server and PostgREST error bodies.
func parseError(status int, data []byte) *Error {
	var body struct {
		Message          string          `json:"message"`
		Msg              string          `json:"msg"`
		ErrorDescription string          `json:"error_description"`
		Error            string          `json:"error"`
		ErrorCode        string          `json:"error_code"`
		Code             json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return newError(status, "", msg)
	}

	msg := firstNonEmpty(body.Message, body.Msg, body.ErrorDescription, body.Error, http.StatusText(status))
	code := body.ErrorCode
	if code == "" && len(body.Code) > 0 {
		code = strings.Trim(string(body.Code), `"`)
	}

	return newError(status, code, msg)
}

func decodeFailure(err error) *Error {
	return &Error{Status: http.StatusBadGateway, Message: "unexpected response from backend: " + err.Error(), cause: err}
}

func selectClause(q entity.Query) string {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ",")
	}

	var sb strings.Builder
	sb.WriteString(cols)
	for _, e := range q.Embeds {
		sb.WriteString(",")
		sb.WriteString(e.Table)
		sb.WriteString("(")
		if len(e.Columns) == 0 {
			sb.WriteString("*")
		} else {
			sb.WriteString(strings.Join(e.Columns, ","))
		}
		sb.WriteString(")")
	}

	return sb.String()
}

func filterParams(filters []entity.Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		params.Add(f.Column, "eq."+f.Value)
	}
	return params
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
