package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kochabx/sessionkit/log"
)

// Token 已通过校验的凭证
type Token interface {
	// SessionID 凭证携带的会话 ID，可能为空
	SessionID() string
}

// TokenVerifier 从请求中提取并校验凭证，没有有效凭证时返回错误
type TokenVerifier interface {
	Verify(r *http.Request) (Token, error)
}

// TokenVerifierFunc 函数适配器
type TokenVerifierFunc func(r *http.Request) (Token, error)

func (f TokenVerifierFunc) Verify(r *http.Request) (Token, error) {
	return f(r)
}

// Getter 按 ID 读取会话，*Store 实现了该接口
type Getter interface {
	Get(ctx context.Context, id string) (*Session, bool)
}

// Resolver 把请求解析为会话
type Resolver struct {
	sessions Getter
	verifier TokenVerifier
	logger   *log.Logger
}

// NewResolver 创建解析器，logger 为 nil 时使用 log.G
func NewResolver(sessions Getter, verifier TokenVerifier, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.G
	}
	return &Resolver{sessions: sessions, verifier: verifier, logger: logger}
}

// Resolve 返回请求对应的会话，未认证时返回 nil。
// 凭证无效或不含会话 ID 时不会访问存储；任何 panic 都会被恢复并返回 nil。
func (r *Resolver) Resolve(req *http.Request) (sess *Session) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error().Str("panic", fmt.Sprint(v)).Str("path", pathOf(req)).Msg("session resolve panicked")
			sess = nil
		}
	}()

	token, err := r.verifier.Verify(req)
	if err != nil || token == nil {
		return nil
	}
	id := token.SessionID()
	if id == "" {
		return nil
	}

	sess, ok := r.sessions.Get(req.Context(), id)
	if !ok {
		return nil
	}
	return sess
}

func pathOf(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.Path
}
