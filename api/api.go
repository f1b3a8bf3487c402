// Package api 会话服务的 HTTP 接口。
//
//	@title		sessiond API
//	@version	1.0
//	@BasePath	/v1
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/sessionkit/core/auth/jwt"
	"github.com/kochabx/sessionkit/core/tag"
	"github.com/kochabx/sessionkit/errors"
	"github.com/kochabx/sessionkit/log"
	middleware "github.com/kochabx/sessionkit/middleware/http"
	"github.com/kochabx/sessionkit/session"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

// HeaderIssueKey 创建会话所需的共享密钥头
const HeaderIssueKey = "X-Issue-Key"

var (
	ErrSessionNotFound = errors.NotFound("session not found")
	ErrIssueKey        = errors.Unauthorized("invalid issue key")
	ErrIssueDisabled   = errors.Forbidden("session issuing is disabled")
)

// Store *session.Store 满足该接口
type Store interface {
	Create(ctx context.Context, userID, email, role string) (string, error)
	Update(ctx context.Context, id string, patch session.Patch) bool
	Lookup(ctx context.Context, id string) session.Result
	Delete(ctx context.Context, id string) bool
	Extend(ctx context.Context, id string) bool
	UserSessions(ctx context.Context, userID string) []string
	ClearUserSessions(ctx context.Context, userID string) bool
	TTL() time.Duration
}

// Issuer *jwt.Authenticator 满足该接口
type Issuer interface {
	Issue(sessionID, userID string) (*jwt.Token, error)
}

// Config 接口配置
type Config struct {
	// IssueKey 认证服务调用 POST /v1/sessions 时携带的 X-Issue-Key，为空时禁止创建会话
	IssueKey string `json:"issue_key" mapstructure:"issue_key" validate:"required,min=16"`
	// AdminRoles 可管理任意用户会话的角色
	AdminRoles []string `json:"admin_roles" mapstructure:"admin_roles" default:"admin"`
}

// Handler 会话接口
type Handler struct {
	store  Store
	issuer Issuer
	config Config
	logger *log.Logger
}

// New 创建 Handler，logger 为 nil 时使用 log.G
func New(store Store, issuer Issuer, cfg Config, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.G
	}
	_ = tag.ApplyDefaults(&cfg)
	return &Handler{store: store, issuer: issuer, config: cfg, logger: logger}
}

// Register 注册路由，auth 为会话认证中间件，guards 作用于创建会话（如限流）
func (h *Handler) Register(r gin.IRouter, auth gin.HandlerFunc, guards ...gin.HandlerFunc) {
	v1 := r.Group("/v1")
	create := append(slices.Clone(guards), h.requireIssueKey, h.create)
	v1.POST("/sessions", create...)

	current := v1.Group("/sessions/current", auth)
	current.GET("", h.current)
	current.PATCH("", h.update)
	current.POST("/extend", h.extend)
	current.DELETE("", h.logout)

	owner := middleware.Permission(middleware.PermissionConfig{
		Checker: middleware.OwnerChecker("id", h.config.AdminRoles...),
		Logger:  h.logger,
	})
	users := v1.Group("/users/:id/sessions", auth, owner)
	users.GET("", h.userSessions)
	users.DELETE("", h.clearUserSessions)
}

func (h *Handler) requireIssueKey(c *gin.Context) {
	if h.config.IssueKey == "" {
		transporthttp.GinError(c, ErrIssueDisabled)
		return
	}
	key := c.GetHeader(HeaderIssueKey)
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.config.IssueKey)) != 1 {
		transporthttp.GinError(c, ErrIssueKey)
		return
	}
	c.Next()
}

// create godoc
//
//	@Summary	创建会话并签发凭证
//	@Tags		sessions
//	@Accept		json
//	@Produce	json
//	@Param		X-Issue-Key	header		string			true	"issue key"
//	@Param		body		body		CreateRequest	true	"session owner"
//	@Success	201			{object}	CreateResponse
//	@Failure	400,401,403,503	{object}	transporthttp.Response[any]
//	@Router		/sessions [post]
func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		transporthttp.GinError(c, session.ErrInvalidArgument.WithCause(err))
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.Create(ctx, req.UserID, req.Email, req.Role)
	if err != nil {
		transporthttp.GinError(c, err)
		return
	}

	token, err := h.issuer.Issue(id, req.UserID)
	if err != nil {
		// 凭证签发失败时不保留无法使用的会话
		h.store.Delete(ctx, id)
		h.logger.Error().Str("user_id", req.UserID).Err(err).Msg("token issue failed")
		transporthttp.GinError(c, errors.Internal("token issue failed").WithCause(err))
		return
	}

	transporthttp.GinJSONStatus(c, http.StatusCreated, &CreateResponse{
		SessionID: id,
		ExpiresIn: int64(h.store.TTL().Seconds()),
		Token:     token,
	})
}

// current godoc
//
//	@Summary	当前会话
//	@Tags		sessions
//	@Produce	json
//	@Security	Bearer
//	@Success	200	{object}	session.Session
//	@Failure	401	{object}	transporthttp.Response[any]
//	@Router		/sessions/current [get]
func (h *Handler) current(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	transporthttp.GinJSON(c, sess)
}

// update godoc
//
//	@Summary	更新当前会话的邮箱或 data，data 整体替换
//	@Tags		sessions
//	@Accept		json
//	@Produce	json
//	@Security	Bearer
//	@Param		body	body		UpdateRequest	true	"patch"
//	@Success	200		{object}	session.Session
//	@Failure	400,401,404	{object}	transporthttp.Response[any]
//	@Router		/sessions/current [patch]
func (h *Handler) update(c *gin.Context) {
	sess, _ := middleware.GetSession(c)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		transporthttp.GinError(c, session.ErrInvalidArgument.WithCause(err))
		return
	}

	ctx := c.Request.Context()
	if !h.store.Update(ctx, sess.ID, req.patch()) {
		transporthttp.GinError(c, ErrSessionNotFound)
		return
	}
	res := h.store.Lookup(ctx, sess.ID)
	if !res.Found() {
		transporthttp.GinError(c, ErrSessionNotFound)
		return
	}
	transporthttp.GinJSON(c, res.Session)
}

// extend godoc
//
//	@Summary	延长当前会话有效期
//	@Tags		sessions
//	@Security	Bearer
//	@Success	204
//	@Failure	401,404	{object}	transporthttp.Response[any]
//	@Router		/sessions/current/extend [post]
func (h *Handler) extend(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	if !h.store.Extend(c.Request.Context(), sess.ID) {
		transporthttp.GinError(c, ErrSessionNotFound)
		return
	}
	transporthttp.GinJSONStatus(c, http.StatusNoContent, nil)
}

// logout godoc
//
//	@Summary	注销当前会话
//	@Tags		sessions
//	@Security	Bearer
//	@Success	204
//	@Failure	401	{object}	transporthttp.Response[any]
//	@Router		/sessions/current [delete]
func (h *Handler) logout(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	h.store.Delete(c.Request.Context(), sess.ID)
	transporthttp.GinJSONStatus(c, http.StatusNoContent, nil)
}

// userSessions godoc
//
//	@Summary	用户的全部会话 ID
//	@Tags		users
//	@Produce	json
//	@Security	Bearer
//	@Param		id	path		string	true	"user id"
//	@Success	200	{object}	UserSessionsResponse
//	@Failure	401,403	{object}	transporthttp.Response[any]
//	@Router		/users/{id}/sessions [get]
func (h *Handler) userSessions(c *gin.Context) {
	userID := c.Param("id")
	transporthttp.GinJSON(c, &UserSessionsResponse{
		UserID:   userID,
		Sessions: h.store.UserSessions(c.Request.Context(), userID),
	})
}

// clearUserSessions godoc
//
//	@Summary	清除用户的全部会话
//	@Tags		users
//	@Security	Bearer
//	@Param		id	path	string	true	"user id"
//	@Success	204
//	@Failure	401,403,503	{object}	transporthttp.Response[any]
//	@Router		/users/{id}/sessions [delete]
func (h *Handler) clearUserSessions(c *gin.Context) {
	if !h.store.ClearUserSessions(c.Request.Context(), c.Param("id")) {
		transporthttp.GinError(c, session.ErrStore)
		return
	}
	transporthttp.GinJSONStatus(c, http.StatusNoContent, nil)
}
