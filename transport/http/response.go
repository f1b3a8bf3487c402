package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/sessionkit/errors"
)

const defaultSuccessMsg = "success"

// Response 统一响应结构
type Response[T any] struct {
	Code     int               `json:"code"`
	Msg      string            `json:"msg,omitempty"`
	Data     T                 `json:"data,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GinJSON 写入 200 成功响应
//
//	GinJSON(c, gin.H{"id": 1})
//	// {"code":200,"msg":"success","data":{"id":1}}
func GinJSON(c *gin.Context, data any) {
	GinJSONStatus(c, http.StatusOK, data)
}

// GinJSONStatus 写入指定 HTTP 状态码的成功响应，204 时不写响应体
func GinJSONStatus(c *gin.Context, status int, data any) {
	if c == nil {
		return
	}
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	c.JSON(status, &Response[any]{Code: status, Msg: defaultSuccessMsg, Data: data})
}

// GinError 按错误码写入错误响应并中止后续处理。
// *errors.Error 的 code 为合法 HTTP 状态码时作为响应状态码，否则为 500；
// 非 *errors.Error 的内部细节不会暴露给调用方。
//
//	GinError(c, errors.NotFound("session not found"))
//	// 404 {"code":404,"msg":"session not found"}
func GinError(c *gin.Context, err error) {
	if c == nil {
		return
	}
	_ = c.Error(err)

	var e *errors.Error
	if !errors.As(err, &e) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, &Response[any]{
			Code: http.StatusInternalServerError,
			Msg:  http.StatusText(http.StatusInternalServerError),
		})
		return
	}

	status := e.Code
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, &Response[any]{
		Code:     e.Code,
		Msg:      e.Message,
		Metadata: e.GetMetadata(),
	})
}
