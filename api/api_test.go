package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sessionkit/core/auth/jwt"
	"github.com/kochabx/sessionkit/core/rate"
	middleware "github.com/kochabx/sessionkit/middleware/http"
	"github.com/kochabx/sessionkit/session"
	"github.com/kochabx/sessionkit/session/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testIssueKey = "issue-key-0123456789"

type env struct {
	router   *gin.Engine
	store    *session.Store
	auth     *jwt.Authenticator
	issueKey string
}

func newEnv(t *testing.T, cfg Config, backend session.Backend, guards ...gin.HandlerFunc) *env {
	t.Helper()
	if backend == nil {
		backend = memory.New()
	}
	if cfg.IssueKey == "" {
		cfg.IssueKey = testIssueKey
	}
	store, err := session.New(backend, session.WithTTL(time.Hour))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	auth, err := jwt.New(&jwt.Config{Secret: "api-test-secret-0123456789"})
	require.NoError(t, err)

	r := gin.New()
	sessionAuth := middleware.SessionAuth(middleware.SessionAuthConfig{
		Resolver: session.NewResolver(store, auth, nil),
	})
	New(store, auth, cfg, nil).Register(r, sessionAuth, guards...)
	return &env{router: r, store: store, auth: auth, issueKey: cfg.IssueKey}
}

func (e *env) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// create 携带 issue key 调用创建接口
func (e *env) create(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/v1/sessions", "", body, HeaderIssueKey, e.issueKey)
}

type envelope[T any] struct {
	Code     int               `json:"code"`
	Msg      string            `json:"msg"`
	Data     T                 `json:"data"`
	Metadata map[string]string `json:"metadata"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *env) login(t *testing.T, userID, role string) (string, string) {
	t.Helper()
	w := e.create(t, CreateRequest{UserID: userID, Email: userID + "@example.com", Role: role})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[CreateResponse](t, w)
	require.NotNil(t, resp.Data.Token)
	return resp.Data.SessionID, resp.Data.Token.AccessToken
}

func TestSessionLifecycle(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	id, token := e.login(t, "alice", "user")

	w := e.do(t, http.MethodGet, "/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cur := decode[session.Session](t, w).Data
	assert.Equal(t, id, cur.ID)
	assert.Equal(t, "alice", cur.UserID)
	assert.Equal(t, "alice@example.com", cur.Email)

	w = e.do(t, http.MethodPatch, "/v1/sessions/current", token, map[string]any{"data": map[string]any{"theme": "dark"}})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[session.Session](t, w).Data
	assert.Equal(t, map[string]any{"theme": "dark"}, updated.Data)
	assert.Equal(t, "user", updated.Role)

	w = e.do(t, http.MethodPost, "/v1/sessions/current/extend", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodDelete, "/v1/sessions/current", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// 凭证仍然有效，但会话已不存在
	w = e.do(t, http.MethodGet, "/v1/sessions/current", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	w := e.create(t, map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.create(t, map[string]any{"user_id": "u1", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStoreUnavailable(t *testing.T) {
	e := newEnv(t, Config{}, brokenBackend{memory.New()})

	w := e.create(t, CreateRequest{UserID: "u1"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, "u1", resp.Metadata["user_id"])
}

func TestIssueKey(t *testing.T) {
	e := newEnv(t, Config{IssueKey: "s3cret"}, nil)

	w := e.do(t, http.MethodPost, "/v1/sessions", "", CreateRequest{UserID: "u1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/v1/sessions", "", CreateRequest{UserID: "u1"}, HeaderIssueKey, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/v1/sessions", "", CreateRequest{UserID: "u1"}, HeaderIssueKey, "s3cret")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateDisabledWithoutIssueKey(t *testing.T) {
	store, err := session.New(memory.New())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	auth, err := jwt.New(&jwt.Config{Secret: "api-test-secret-0123456789"})
	require.NoError(t, err)

	r := gin.New()
	sessionAuth := middleware.SessionAuth(middleware.SessionAuthConfig{Resolver: session.NewResolver(store, auth, nil)})
	New(store, auth, Config{}, nil).Register(r, sessionAuth)

	for _, key := range []string{"", "anything"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"user_id":"x","role":"admin"}`))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(HeaderIssueKey, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "key %q", key)
	}
	assert.Empty(t, store.UserSessions(context.Background(), "x"))
}

func TestCreateGuards(t *testing.T) {
	limiter, err := rate.NewTokenBucket(rate.Config{Limit: 1, Window: time.Hour})
	require.NoError(t, err)
	e := newEnv(t, Config{}, nil, middleware.RateLimit(middleware.RateLimitConfig{Limiter: limiter}))

	w := e.create(t, CreateRequest{UserID: "u1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = e.create(t, CreateRequest{UserID: "u1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRoleCannotBePatched(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	_, token := e.login(t, "alice", "user")

	w := e.do(t, http.MethodPatch, "/v1/sessions/current", token, map[string]any{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user", decode[session.Session](t, w).Data.Role)
}

func TestUserSessions(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	a1, aliceToken := e.login(t, "alice", "user")
	a2, _ := e.login(t, "alice", "user")
	_, bobToken := e.login(t, "bob", "user")
	_, adminToken := e.login(t, "root", "admin")

	w := e.do(t, http.MethodGet, "/v1/users/alice/sessions", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[UserSessionsResponse](t, w).Data
	assert.Equal(t, "alice", list.UserID)
	assert.ElementsMatch(t, []string{a1, a2}, list.Sessions)

	w = e.do(t, http.MethodGet, "/v1/users/alice/sessions", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/v1/users/alice/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodDelete, "/v1/users/alice/sessions", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, "/v1/sessions/current", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(t, http.MethodGet, "/v1/sessions/current", bobToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/v1/users/nobody/sessions", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"msg":"success","data":{"user_id":"nobody","sessions":[]}}`, w.Body.String())
}

func TestInvalidToken(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	w := e.do(t, http.MethodGet, "/v1/sessions/current", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 签名有效但会话不存在
	tok, err := e.auth.Issue("no-such-session", "alice")
	require.NoError(t, err)
	w = e.do(t, http.MethodGet, "/v1/sessions/current", tok.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// brokenBackend 写入总是失败
type brokenBackend struct {
	*memory.Backend
}

func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
