package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	kerrors "github.com/kochabx/sessionkit/errors"
	"github.com/kochabx/sessionkit/log"
)

// Store 会话仓库，可被多个请求并发使用
type Store struct {
	backend     Backend
	prefix      string
	ttl         time.Duration
	timeout     time.Duration
	concurrency int
	now         func() time.Time
	newID       func() (string, error)
	logger      *log.Logger
	recorder    Recorder
	publisher   Publisher

	pool *ants.Pool
}

// New 创建会话仓库
func New(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrInvalidArgument.WithMetadata(map[string]string{"field": "backend"})
	}

	s := &Store{
		backend:     backend,
		prefix:      DefaultPrefix,
		ttl:         DefaultTTL,
		timeout:     DefaultTimeout,
		concurrency: DefaultScanConcurrency,
		now:         time.Now,
		newID:       NewID,
		logger:      log.G,
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	switch {
	case s.ttl <= 0:
		return nil, ErrInvalidArgument.WithMetadata(map[string]string{"field": "ttl"})
	case s.timeout <= 0:
		return nil, ErrInvalidArgument.WithMetadata(map[string]string{"field": "timeout"})
	case s.concurrency <= 0:
		return nil, ErrInvalidArgument.WithMetadata(map[string]string{"field": "scan_concurrency"})
	}

	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Close 释放扫描协程池，不关闭后端
func (s *Store) Close() {
	s.pool.Release()
}

// TTL 返回会话有效期
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create 创建会话并返回 ID。这是唯一会返回错误的操作：
// 写入失败时返回包装了 ErrStore 的错误。
func (s *Store) Create(ctx context.Context, userID, email, role string) (string, error) {
	start := time.Now()
	if userID == "" {
		s.observe(OpCreate, OutcomeInvalid, start)
		return "", ErrInvalidArgument.WithMetadata(map[string]string{"field": "user_id"})
	}

	id, err := s.newID()
	if err != nil {
		s.logger.Error().Str("op", OpCreate).Str("user_id", userID).Err(err).Msg("session id generation failed")
		s.observe(OpCreate, OutcomeError, start)
		return "", kerrors.Wrap(err, 500, "session: id generation failed")
	}

	now := s.nowMillis()
	raw, err := encode(&Session{UserID: userID, Email: email, Role: role, CreatedAt: now, LastAccessed: now})
	if err != nil {
		s.observe(OpCreate, OutcomeError, start)
		return "", kerrors.Wrap(err, 500, "session: encode failed")
	}

	cctx, cancel := s.withTimeout(ctx)
	err = s.backend.Set(cctx, s.key(id), raw, s.ttl)
	cancel()
	if err != nil {
		s.logger.Error().Str("op", OpCreate).Str("user_id", userID).Err(err).Msg("session create failed")
		s.observe(OpCreate, OutcomeError, start)
		return "", ErrStore.WithCause(err).WithMetadata(map[string]string{"user_id": userID})
	}

	s.logger.Debug().Str("op", OpCreate).Str("user_id", userID).Str("session_id", id).Msg("session created")
	s.publish(ctx, Event{Type: EventCreated, SessionID: id, UserID: userID})
	s.observe(OpCreate, OutcomeOK, start)
	return id, nil
}

// Get 读取会话并续期：lastAccessed 刷新为当前时间（不回退），TTL 重置。
// 不存在、值损坏、后端失败均返回 false。
func (s *Store) Get(ctx context.Context, id string) (*Session, bool) {
	start := time.Now()
	res := s.load(ctx, OpGet, id)
	if !res.Found() {
		s.observe(OpGet, outcomeOf(res.Status), start)
		return nil, false
	}

	sess := res.Session
	sess.LastAccessed = max(sess.LastAccessed, s.nowMillis())
	ok, err := s.replace(ctx, sess)
	switch {
	case err != nil:
		// 读取已成功，续期失败不影响本次结果
		s.logger.Warn().Str("op", OpGet).Str("session_id", id).Err(err).Msg("session refresh failed")
	case !ok:
		// 读写之间被删除或过期
		s.observe(OpGet, OutcomeNotFound, start)
		return nil, false
	}
	s.observe(OpGet, OutcomeOK, start)
	return sess, true
}

// Lookup 只读查询，返回带状态的结果，不续期
func (s *Store) Lookup(ctx context.Context, id string) Result {
	start := time.Now()
	res := s.load(ctx, OpLookup, id)
	s.observe(OpLookup, outcomeOf(res.Status), start)
	return res
}

// Update 合并 patch 并续期，会话不存在时返回 false，不会创建会话。
// 合并结果无效（如 UserID 置空）时不写入，返回 false。
// 读改写不是原子的，并发更新以最后一次写入为准。
func (s *Store) Update(ctx context.Context, id string, patch Patch) bool {
	start := time.Now()
	res := s.load(ctx, OpUpdate, id)
	if !res.Found() {
		s.observe(OpUpdate, outcomeOf(res.Status), start)
		return false
	}

	sess := res.Session
	patch.apply(sess)
	sess.LastAccessed = max(sess.LastAccessed, s.nowMillis())

	ok, err := s.replace(ctx, sess)
	switch {
	case errors.Is(err, ErrInvalidArgument):
		s.logger.Warn().Str("op", OpUpdate).Str("session_id", id).Err(err).Msg("session update rejected")
		s.observe(OpUpdate, OutcomeInvalid, start)
		return false
	case err != nil:
		s.logger.Error().Str("op", OpUpdate).Str("session_id", id).Err(err).Msg("session update failed")
		s.observe(OpUpdate, OutcomeError, start)
		return false
	case !ok:
		s.observe(OpUpdate, OutcomeNotFound, start)
		return false
	}
	s.observe(OpUpdate, OutcomeOK, start)
	return true
}

// Delete 删除会话，返回是否确有删除
func (s *Store) Delete(ctx context.Context, id string) bool {
	start := time.Now()
	ok := s.del(ctx, OpDelete, id)
	if ok {
		s.publish(ctx, Event{Type: EventDeleted, SessionID: id})
		s.observe(OpDelete, OutcomeOK, start)
	} else {
		s.observe(OpDelete, OutcomeNotFound, start)
	}
	return ok
}

// Extend 仅重置会话 TTL，不修改内容。值损坏的会话视为不存在。
func (s *Store) Extend(ctx context.Context, id string) bool {
	start := time.Now()
	res := s.load(ctx, OpExtend, id)
	if !res.Found() {
		s.observe(OpExtend, outcomeOf(res.Status), start)
		return false
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.backend.Expire(cctx, s.key(id), s.ttl)
	switch {
	case err != nil:
		s.logger.Error().Str("op", OpExtend).Str("session_id", id).Err(err).Msg("session extend failed")
		s.observe(OpExtend, OutcomeError, start)
		return false
	case !ok:
		s.observe(OpExtend, OutcomeNotFound, start)
		return false
	}
	s.observe(OpExtend, OutcomeOK, start)
	return true
}

// UserSessions 返回用户的全部会话 ID。
// 需要扫描所有会话，单个会话读取失败时跳过。
func (s *Store) UserSessions(ctx context.Context, userID string) []string {
	start := time.Now()
	ids, err := s.userSessions(ctx, OpUserSessions, userID)
	if err != nil {
		s.observe(OpUserSessions, OutcomeError, start)
		return []string{}
	}
	s.observe(OpUserSessions, OutcomeOK, start)
	return ids
}

// ClearUserSessions 逐个删除用户的全部会话。
// 单个删除失败只记录日志；仅在无法枚举会话时返回 false。
// 实际删除了会话时才发布 cleared 事件。
func (s *Store) ClearUserSessions(ctx context.Context, userID string) bool {
	start := time.Now()
	ids, err := s.userSessions(ctx, OpClearUserSessions, userID)
	if err != nil {
		s.observe(OpClearUserSessions, OutcomeError, start)
		return false
	}

	var removed int
	for _, id := range ids {
		if s.del(ctx, OpClearUserSessions, id) {
			removed++
		}
	}

	s.logger.Info().Str("op", OpClearUserSessions).Str("user_id", userID).Int("found", len(ids)).Int("removed", removed).Msg("user sessions cleared")
	if removed > 0 {
		s.publish(ctx, Event{Type: EventCleared, UserID: userID, Count: removed})
	}
	s.observe(OpClearUserSessions, OutcomeOK, start)
	return true
}

// Count 返回当前会话数
func (s *Store) Count(ctx context.Context) (int, error) {
	start := time.Now()
	ids, err := s.ids(ctx, OpCount)
	if err != nil {
		s.observe(OpCount, OutcomeError, start)
		return 0, ErrStore.WithCause(err)
	}
	s.observe(OpCount, OutcomeOK, start)
	return len(ids), nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) observe(op, outcome string, start time.Time) {
	s.recorder.Observe(op, outcome, time.Since(start))
}

// load 读取并解析会话，值损坏时记录原始值
func (s *Store) load(ctx context.Context, op, id string) Result {
	if id == "" {
		return Result{Status: StatusNotFound}
	}

	cctx, cancel := s.withTimeout(ctx)
	raw, err := s.backend.Get(cctx, s.key(id))
	cancel()
	switch {
	case errors.Is(err, ErrNotFound):
		return Result{Status: StatusNotFound}
	case err != nil:
		s.logger.Error().Str("op", op).Str("session_id", id).Err(err).Msg("session read failed")
		return Result{Status: StatusFailed, Err: err}
	}

	sess, err := decode(id, raw)
	if err != nil {
		s.logger.Error().Str("op", op).Str("session_id", id).Bytes("raw", raw).Err(err).Msg("malformed session record")
		return Result{Status: StatusMalformed, Raw: raw, Err: err}
	}
	return Result{Status: StatusFound, Session: sess}
}

func (s *Store) replace(ctx context.Context, sess *Session) (bool, error) {
	raw, err := encode(sess)
	if err != nil {
		return false, err
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.backend.Replace(cctx, s.key(sess.ID), raw, s.ttl)
}

func (s *Store) del(ctx context.Context, op, id string) bool {
	if id == "" {
		return false
	}
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.backend.Del(cctx, s.key(id))
	if err != nil {
		s.logger.Error().Str("op", op).Str("session_id", id).Err(err).Msg("session delete failed")
		return false
	}
	if ok {
		s.logger.Info().Str("op", op).Str("session_id", id).Msg("session deleted")
	}
	return ok
}

// ids 列出所有会话 ID
func (s *Store) ids(ctx context.Context, op string) ([]string, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	keys, err := s.backend.Keys(cctx, s.prefix)
	if err != nil {
		s.logger.Error().Str("op", op).Err(err).Msg("session key enumeration failed")
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if id, ok := strings.CutPrefix(key, s.prefix); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) userSessions(ctx context.Context, op, userID string) ([]string, error) {
	ids, err := s.ids(ctx, op)
	if err != nil {
		return nil, err
	}

	matched := make([]string, 0)
	for i, res := range s.loadAll(ctx, op, ids) {
		if res.Found() && res.Session.UserID == userID {
			matched = append(matched, ids[i])
		}
	}
	return matched, nil
}

// loadAll 通过协程池并发读取，结果与 ids 一一对应
func (s *Store) loadAll(ctx context.Context, op string, ids []string) []Result {
	results := make([]Result, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.load(ctx, op, id)
		}
		if err := s.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return results
}

func (s *Store) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	ev.Time = s.nowMillis()

	cctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.publisher.Publish(cctx, ev); err != nil {
		s.logger.Warn().Str("event", string(ev.Type)).Str("user_id", ev.UserID).Err(err).Msg("session event publish failed")
	}
}
