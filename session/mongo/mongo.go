// Package mongo 基于 store/mongo 的会话后端。
// 每个 key 一个文档，expiresAt 上建 TTL 索引由服务端回收，
// 读取时按 expiresAt 过滤，不依赖回收的时效。
package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kochabx/sessionkit/session"
	kitmongo "github.com/kochabx/sessionkit/store/mongo"
)

// DefaultCollection 默认集合名
const DefaultCollection = "sessions"

type document struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// Backend MongoDB 会话后端
type Backend struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ session.Backend = (*Backend)(nil)

// Option 后端选项
type Option func(*backendOptions)

type backendOptions struct {
	collection string
	now        func() time.Time
}

// WithCollection 替换集合名
func WithCollection(name string) Option {
	return func(o *backendOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(o *backendOptions) {
		o.now = now
	}
}

// New 创建后端并确保 TTL 索引存在，客户端的生命周期由调用方管理
func New(ctx context.Context, c *kitmongo.Client, opts ...Option) (*Backend, error) {
	if c == nil || c.Database() == nil {
		return nil, kitmongo.ErrNotInitialized
	}
	o := &backendOptions{collection: DefaultCollection, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	b := &Backend{coll: c.Database().Collection(o.collection), now: o.now}
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// live 未过期的 key
func (b *Backend) live(key string) bson.D {
	return bson.D{{Key: "_id", Value: key}, {Key: "expiresAt", Value: bson.M{"$gt": b.now()}}}
}

func (b *Backend) expiresAt(ttl time.Duration) time.Time {
	return b.now().Add(ttl)
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var doc document
	err := b.coll.FindOne(ctx, b.live(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	doc := document{Key: key, Value: value, ExpiresAt: b.expiresAt(ttl)}
	_, err := b.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (b *Backend) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	res, err := b.coll.UpdateOne(ctx, b.live(key), bson.M{"$set": bson.M{"value": value, "expiresAt": b.expiresAt(ttl)}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Del 只有未过期的文档算作删除，尚未被回收的过期文档一并清掉
func (b *Backend) Del(ctx context.Context, key string) (bool, error) {
	res, err := b.coll.DeleteOne(ctx, b.live(key))
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return true, nil
	}
	_, err = b.coll.DeleteOne(ctx, bson.M{"_id": key})
	return false, err
}

func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	res, err := b.coll.UpdateOne(ctx, b.live(key), bson.M{"$set": bson.M{"expiresAt": b.expiresAt(ttl)}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Keys 按 _id 升序返回
func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{
		"_id":       bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
		"expiresAt": bson.M{"$gt": b.now()},
	}
	cur, err := b.coll.Find(ctx, filter, options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	keys := make([]string, 0)
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}
