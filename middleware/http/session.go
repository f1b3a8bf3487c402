package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/sessionkit/errors"
	"github.com/kochabx/sessionkit/session"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

// ContextKeySession gin.Context 中会话的 key
const ContextKeySession = "session"

var (
	ErrUnauthorized = errors.Unauthorized("unauthorized")
	ErrForbidden    = errors.Forbidden("forbidden")
)

// Resolver *session.Resolver 满足该接口
type Resolver interface {
	Resolve(r *http.Request) *session.Session
}

// SessionAuthConfig 会话认证中间件配置
type SessionAuthConfig struct {
	Resolver  Resolver                // 必需
	SkipPaths []string                // 跳过认证的路径
	SkipFunc  func(*gin.Context) bool // 动态跳过判断函数
	// Optional 为 true 时未认证请求也放行，只是不携带会话
	Optional bool
}

// SessionAuth 解析请求对应的会话并写入 request context 与 gin.Context，
// 未认证时返回 401
func SessionAuth(cfg SessionAuthConfig) gin.HandlerFunc {
	if cfg.Resolver == nil {
		panic("middleware: session resolver is required")
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		sess := cfg.Resolver.Resolve(c.Request)
		if sess == nil {
			if cfg.Optional {
				c.Next()
				return
			}
			transporthttp.GinError(c, ErrUnauthorized)
			return
		}

		c.Set(ContextKeySession, sess)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

// GetSession 取出 SessionAuth 写入的会话
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return session.FromContext(c.Request.Context())
	}
	sess, ok := v.(*session.Session)
	return sess, ok && sess != nil
}
