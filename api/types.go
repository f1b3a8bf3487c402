package api

import (
	"github.com/kochabx/sessionkit/core/auth/jwt"
	"github.com/kochabx/sessionkit/session"
)

// CreateRequest 创建会话请求
type CreateRequest struct {
	UserID string `json:"user_id" binding:"required,max=128"`
	Email  string `json:"email" binding:"omitempty,email"`
	Role   string `json:"role" binding:"max=64"`
}

// CreateResponse 创建会话响应
type CreateResponse struct {
	SessionID string     `json:"session_id"`
	ExpiresIn int64      `json:"expires_in"` // 秒
	Token     *jwt.Token `json:"token"`
}

// UpdateRequest 更新当前会话。角色不允许通过接口修改。
type UpdateRequest struct {
	Email *string        `json:"email" binding:"omitempty,email"`
	Data  map[string]any `json:"data"`
}

func (r UpdateRequest) patch() session.Patch {
	return session.Patch{Email: r.Email, Data: r.Data}
}

// UserSessionsResponse 用户会话列表
type UserSessionsResponse struct {
	UserID   string   `json:"user_id"`
	Sessions []string `json:"sessions"`
}
