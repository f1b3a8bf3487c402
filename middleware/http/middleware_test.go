package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type buffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// staticResolver 按 X-Session 头返回固定会话
type staticResolver map[string]*session.Session

func (r staticResolver) Resolve(req *http.Request) *session.Session {
	return r[req.Header.Get("X-Session")]
}

var resolver = staticResolver{
	"alice": {ID: "s-alice", UserID: "alice", Role: "user"},
	"root":  {ID: "s-root", UserID: "root", Role: "admin"},
}

func serve(r *gin.Engine, method, path, sess string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if sess != "" {
		req.Header.Set("X-Session", sess)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPathMatcher(t *testing.T) {
	pm := NewPathMatcher([]string{"/health", "/v1/public/**", "/v1/*/ping"})

	cases := map[string]bool{
		"/health":          true,
		"/health/x":        false,
		"/v1/public":       true,
		"/v1/public/a/b":   true,
		"/v1/publicity":    false,
		"/v1/users/ping":   true,
		"/v1/users/x/ping": false,
		"/metrics":         false,
	}
	for p, want := range cases {
		assert.Equal(t, want, pm.Match(p), p)
	}

	var nilMatcher *PathMatcher
	assert.False(t, nilMatcher.Match("/health"))
}

func TestSessionAuth(t *testing.T) {
	r := gin.New()
	r.Use(SessionAuth(SessionAuthConfig{Resolver: resolver, SkipPaths: []string{"/public"}}))
	r.GET("/me", func(c *gin.Context) {
		sess, ok := GetSession(c)
		require.True(t, ok)
		fromCtx, ok := session.FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Same(t, sess, fromCtx)
		c.String(http.StatusOK, sess.UserID)
	})
	r.GET("/public", func(c *gin.Context) {
		_, ok := GetSession(c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/me", "alice")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"code":401,"msg":"unauthorized"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionAuthOptional(t *testing.T) {
	r := gin.New()
	r.Use(SessionAuth(SessionAuthConfig{Resolver: resolver, Optional: true}))
	r.GET("/", func(c *gin.Context) {
		if sess, ok := GetSession(c); ok {
			c.String(http.StatusOK, sess.UserID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/", "").Body.String())
	assert.Equal(t, "root", serve(r, http.MethodGet, "/", "root").Body.String())
}

func TestSessionAuthRequiresResolver(t *testing.T) {
	assert.Panics(t, func() { SessionAuth(SessionAuthConfig{}) })
}

func TestPermission(t *testing.T) {
	r := gin.New()
	r.Use(SessionAuth(SessionAuthConfig{Resolver: resolver, Optional: true}))
	r.GET("/admin", Permission(PermissionConfig{Checker: RoleChecker("admin")}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/users/:id", Permission(PermissionConfig{Checker: OwnerChecker("id", "admin")}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", "alice").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin", "root").Code)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/users/alice", "alice").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/users/bob", "alice").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/users/bob", "root").Code)
}

func TestLogger(t *testing.T) {
	logs := &buffer{}
	r := gin.New()
	r.Use(Logger(LoggerConfig{Logger: log.NewWriter(logs), SkipPaths: []string{"/health"}}))
	r.Use(SessionAuth(SessionAuthConfig{Resolver: resolver, Optional: true}))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	w := serve(r, http.MethodGet, "/me", "alice")
	id := w.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)
	assert.Contains(t, logs.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, logs.String(), `"user_id":"alice"`)
	assert.Contains(t, logs.String(), `"path":"/me"`)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(HeaderRequestID))

	serve(r, http.MethodGet, "/boom", "")
	assert.Contains(t, logs.String(), `"level":"error"`)

	w = serve(r, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.NotContains(t, logs.String(), `"path":"/health"`)
}

func TestRecovery(t *testing.T) {
	logs := &buffer{}
	r := gin.New()
	r.Use(Recovery(RecoveryConfig{Logger: log.NewWriter(logs)}))
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"msg":"Internal Server Error"}`, w.Body.String())
	assert.Contains(t, logs.String(), "kaboom")
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestCors(t *testing.T) {
	r := gin.New()
	r.Use(Cors(CorsConfig{AllowOrigins: []string{"*.example.com"}, AllowCredentials: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

