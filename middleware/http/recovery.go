package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/sessionkit/log"
	transporthttp "github.com/kochabx/sessionkit/transport/http"
)

// RecoveryConfig Recovery 中间件配置
type RecoveryConfig struct {
	StackTrace bool // 是否记录堆栈
	Logger     *log.Logger
}

// Recovery 恢复 panic 并返回 500
func Recovery(cfgs ...RecoveryConfig) gin.HandlerFunc {
	cfg := RecoveryConfig{StackTrace: true}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}

	return func(c *gin.Context) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			// 只记录请求行与头部，Authorization 由日志脱敏处理
			dump, _ := httputil.DumpRequest(c.Request, false)

			if brokenPipe(v) {
				cfg.Logger.Warn().Str("error", fmt.Sprint(v)).Bytes("request", dump).Msg("broken pipe")
				_ = c.Error(fmt.Errorf("%v", v))
				c.Abort()
				return
			}

			event := cfg.Logger.Error().Str("error", fmt.Sprint(v)).Bytes("request", dump)
			if cfg.StackTrace {
				event = event.Bytes("stack", debug.Stack())
			}
			event.Msg("panic recovered")

			transporthttp.GinError(c, fmt.Errorf("panic: %v", v))
		}()
		c.Next()
	}
}

func brokenPipe(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

