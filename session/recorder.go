package session

import "time"

// 操作名
const (
	OpCreate            = "create"
	OpGet               = "get"
	OpLookup            = "lookup"
	OpUpdate            = "update"
	OpDelete            = "delete"
	OpExtend            = "extend"
	OpUserSessions      = "user_sessions"
	OpClearUserSessions = "clear_user_sessions"
	OpCount             = "count"
)

// 操作结果
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
	OutcomeInvalid   = "invalid"
)

// Recorder 记录每次操作的结果与耗时
type Recorder interface {
	Observe(op, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, string, time.Duration) {}

func outcomeOf(s Status) string {
	switch s {
	case StatusFound:
		return OutcomeOK
	case StatusNotFound:
		return OutcomeNotFound
	case StatusMalformed:
		return OutcomeMalformed
	default:
		return OutcomeError
	}
}
