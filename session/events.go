package session

import "context"

// EventType 会话生命周期事件类型
type EventType string

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
	// EventCleared 某用户的全部会话被清除
	EventCleared EventType = "cleared"
)

// Event 会话生命周期事件，不包含邮箱、角色等用户信息
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Count     int       `json:"count,omitempty"`
	Time      int64     `json:"time"`
}

// Publisher 事件发布者。发布失败只记录日志，不影响会话操作。
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc 函数适配器
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
