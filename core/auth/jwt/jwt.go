// Package jwt 签发与校验携带会话 ID 的 JWT。
package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kochabx/sessionkit/session"
)

// Authenticator 会话凭证签发器与校验器，实现 session.TokenVerifier
type Authenticator struct {
	config *Config
	parser *jwt.Parser
	now    func() time.Time
	newID  func() string
}

var _ session.TokenVerifier = (*Authenticator)(nil)

// Token 签发结果
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// New 创建 Authenticator
func New(cfg *Config, opts ...Option) (*Authenticator, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	a := &Authenticator{
		config: cfg,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{cfg.signingMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(func() time.Time { return a.now() }),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	for _, aud := range cfg.Audience {
		parserOpts = append(parserOpts, jwt.WithAudience(aud))
	}
	a.parser = jwt.NewParser(parserOpts...)
	return a, nil
}

// Issue 为会话签发凭证
func (a *Authenticator) Issue(sessionID, userID string) (*Token, error) {
	if sessionID == "" || userID == "" {
		return nil, ErrInvalidClaims
	}

	now := a.now()
	expiresAt := now.Add(a.config.TTL)
	claims := &Claims{
		RegisteredClaims: RegisteredClaims{
			ID:        a.newID(),
			Subject:   userID,
			Issuer:    a.config.Issuer,
			Audience:  a.config.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Sid: sessionID,
	}

	signed, err := jwt.NewWithClaims(a.config.signingMethod(), claims).SignedString([]byte(a.config.Secret))
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Parse 校验签名与标准字段，返回 Claims
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(a.config.Secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.Sid == "" || claims.Subject == "":
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Verify 从请求中提取并校验凭证
func (a *Authenticator) Verify(r *http.Request) (session.Token, error) {
	claims, err := a.Parse(a.Extract(r))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Extract 依次从 Authorization: Bearer 与配置的 cookie 读取 token
func (a *Authenticator) Extract(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token, ok := bearer(r.Header.Get("Authorization")); ok {
		return token
	}
	if a.config.Cookie != "" {
		if c, err := r.Cookie(a.config.Cookie); err == nil {
			return c.Value
		}
	}
	return ""
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
