// Package session 基于远程 KV 存储的 TTL 会话仓库。
//
// 会话以 <prefix><id> 为 key、JSON 为值写入后端，每次写入都会把过期时间
// 重置为完整的 TTL。读取即续期：Get 成功时会刷新 lastAccessed 并写回。
// 除 Create 外，所有失败都折叠为“不存在”或 false。
package session

import (
	"maps"
	"time"
)

// Session 会话记录，时间字段均为毫秒时间戳
type Session struct {
	ID           string         `json:"sessionId"`
	UserID       string         `json:"userId"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	CreatedAt    int64          `json:"createdAt"`
	LastAccessed int64          `json:"lastAccessed"`
	Data         map[string]any `json:"data"`
}

// Created 返回创建时间
func (s *Session) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// Accessed 返回最近访问时间
func (s *Session) Accessed() time.Time {
	return time.UnixMilli(s.LastAccessed)
}

// Patch 会话的局部更新。
//
// 非 nil 的字段覆盖原值；Data 非 nil 时整体替换 data（浅合并），
// 传入空 map 即清空。ID 与 CreatedAt 不可修改。
type Patch struct {
	UserID *string        `json:"userId,omitempty"`
	Email  *string        `json:"email,omitempty"`
	Role   *string        `json:"role,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

func (p Patch) apply(s *Session) {
	if p.UserID != nil {
		s.UserID = *p.UserID
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Role != nil {
		s.Role = *p.Role
	}
	if p.Data != nil {
		s.Data = maps.Clone(p.Data)
	}
}

// Status 查询结果类型
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusMalformed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusMalformed:
		return "malformed"
	default:
		return "failed"
	}
}

// Result Lookup 的结果。对外只有 Found 与否的区别，
// 其余状态用于日志与指标。
type Result struct {
	Status  Status
	Session *Session
	// Raw 仅在 StatusMalformed 时保留原始值
	Raw []byte
	Err error
}

// Found 是否读取到有效会话
func (r Result) Found() bool {
	return r.Status == StatusFound
}
