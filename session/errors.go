package session

import "github.com/kochabx/sessionkit/errors"

var (
	// ErrNotFound 会话不存在，Backend.Get 在 key 不存在时返回
	ErrNotFound = errors.NotFound("session: not found")
	// ErrMalformed 存储值无法解析为会话
	ErrMalformed = errors.UnprocessableEntity("session: malformed record")
	// ErrStore 后端不可用或超时
	ErrStore = errors.ServiceUnavailable("session: store unavailable")
	// ErrInvalidArgument 参数错误
	ErrInvalidArgument = errors.BadRequest("session: invalid argument")
)
