package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/sessionkit/log"
	"github.com/kochabx/sessionkit/session"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

// PermissionChecker 权限检查器，sess 为 SessionAuth 解析出的会话
type PermissionChecker interface {
	Check(c *gin.Context, sess *session.Session) error
}

// PermissionCheckerFunc 函数适配器
type PermissionCheckerFunc func(c *gin.Context, sess *session.Session) error

func (f PermissionCheckerFunc) Check(c *gin.Context, sess *session.Session) error {
	return f(c, sess)
}

// PermissionConfig 权限中间件配置
type PermissionConfig struct {
	Checker   PermissionChecker       // 必需
	SkipPaths []string                // 跳过检查的路径
	SkipFunc  func(*gin.Context) bool // 动态跳过判断函数
	Logger    *log.Logger
}

// Permission 需在 SessionAuth 之后使用，没有会话时返回 401，检查失败返回 403
func Permission(cfg PermissionConfig) gin.HandlerFunc {
	if cfg.Checker == nil {
		panic("middleware: permission checker is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		sess, ok := GetSession(c)
		if !ok {
			transporthttp.GinError(c, ErrUnauthorized)
			return
		}
		if err := cfg.Checker.Check(c, sess); err != nil {
			cfg.Logger.Warn().
				Str("user_id", sess.UserID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Err(err).
				Msg("permission denied")
			transporthttp.GinError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RoleChecker 会话角色属于 roles 之一时放行
func RoleChecker(roles ...string) PermissionChecker {
	return PermissionCheckerFunc(func(_ *gin.Context, sess *session.Session) error {
		if slices.Contains(roles, sess.Role) {
			return nil
		}
		return ErrForbidden
	})
}

// OwnerChecker 路由参数 param 等于会话用户 ID，或会话角色属于 bypassRoles 时放行
func OwnerChecker(param string, bypassRoles ...string) PermissionChecker {
	return PermissionCheckerFunc(func(c *gin.Context, sess *session.Session) error {
		if slices.Contains(bypassRoles, sess.Role) {
			return nil
		}
		if owner := c.Param(param); owner != "" && owner == sess.UserID {
			return nil
		}
		return ErrForbidden
	})
}
