package jwt

import "github.com/golang-jwt/jwt/v5"

// RegisteredClaims JWT 标准 Claims 类型别名
type RegisteredClaims = jwt.RegisteredClaims

// Claims 会话凭证。sid 指向会话仓库中的会话，sub 为用户 ID。
// 凭证只证明身份，会话是否仍然有效以仓库为准。
type Claims struct {
	RegisteredClaims
	Sid string `json:"sid"`
}

// SessionID 实现 session.Token
func (c *Claims) SessionID() string {
	return c.Sid
}

// UserID 返回 sub
func (c *Claims) UserID() string {
	return c.Subject
}
