// Package db 基于 store/db 的会话后端。
// 每个 key 一行，expires_at 保存过期时刻（Unix 毫秒），读取时过滤已过期的行，
// Keys 与 Purge 会顺带删除过期行。
package db

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kochabx/sessionkit/session"
	kitdb "github.com/kochabx/sessionkit/store/db"
)

// DefaultTable 默认表名
const DefaultTable = "sessions"

type row struct {
	ID        string `gorm:"column:id;primaryKey;size:191"`
	Value     []byte `gorm:"column:value;not null"`
	ExpiresAt int64  `gorm:"column:expires_at;not null;index"`
}

func (row) TableName() string {
	return DefaultTable
}

// Backend 数据库会话后端
type Backend struct {
	db    *gorm.DB
	table string
	now   func() time.Time
}

var _ session.Backend = (*Backend)(nil)

// Option 后端选项
type Option func(*Backend)

// WithTable 替换表名
func WithTable(table string) Option {
	return func(b *Backend) {
		if table != "" {
			b.table = table
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New 创建后端并自动建表，客户端的生命周期由调用方管理
func New(ctx context.Context, c *kitdb.Client, opts ...Option) (*Backend, error) {
	if c == nil || c.DB() == nil {
		return nil, kitdb.ErrNotInitialized
	}
	b := &Backend{db: c.DB(), table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.db.WithContext(ctx).Table(b.table).AutoMigrate(&row{}); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) tx(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx).Table(b.table)
}

func (b *Backend) nowMillis() int64 {
	return b.now().UnixMilli()
}

func (b *Backend) expiresAt(ttl time.Duration) int64 {
	return b.now().Add(ttl).UnixMilli()
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var r row
	err := b.tx(ctx).Where("id = ? AND expires_at > ?", key, b.nowMillis()).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

// Set 以 upsert 写入，同一 key 已过期的旧行直接覆盖
func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r := row{ID: key, Value: value, ExpiresAt: b.expiresAt(ttl)}
	return b.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&r).Error
}

func (b *Backend) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	res := b.tx(ctx).Where("id = ? AND expires_at > ?", key, b.nowMillis()).
		Updates(map[string]any{"value": value, "expires_at": b.expiresAt(ttl)})
	return res.RowsAffected > 0, res.Error
}

// Del 只有未过期的行算作删除，过期的残留行一并清掉
func (b *Backend) Del(ctx context.Context, key string) (bool, error) {
	var removed bool
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(b.table).Where("id = ? AND expires_at > ?", key, b.nowMillis()).Delete(&row{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return tx.Table(b.table).Where("id = ?", key).Delete(&row{}).Error
	})
	return removed, err
}

func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	res := b.tx(ctx).Where("id = ? AND expires_at > ?", key, b.nowMillis()).
		Update("expires_at", b.expiresAt(ttl))
	return res.RowsAffected > 0, res.Error
}

// Keys 先清除过期行，再按字节序返回 prefix 下的 key
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	if _, err := b.Purge(ctx); err != nil {
		return nil, err
	}

	var ids []string
	err := b.tx(ctx).Where("id LIKE ? ESCAPE '!' AND expires_at > ?", likePrefix(prefix), b.nowMillis()).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	// LIKE 受排序规则影响，再按字节比较一次
	ids = slices.DeleteFunc(ids, func(id string) bool { return !strings.HasPrefix(id, prefix) })
	slices.Sort(ids)
	return ids, nil
}

// Purge 删除所有已过期的行，返回删除数量
func (b *Backend) Purge(ctx context.Context) (int64, error) {
	res := b.tx(ctx).Where("expires_at <= ?", b.nowMillis()).Delete(&row{})
	return res.RowsAffected, res.Error
}

// likePrefix 以 ! 转义通配符
func likePrefix(prefix string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(prefix) + "%"
}
