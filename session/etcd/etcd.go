// Package etcd 基于 store/etcd 的会话后端，每个 key 绑定独立的租约实现 TTL。
package etcd

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/sessionkit/session"
	kitetcd "github.com/kochabx/sessionkit/store/etcd"
)

// Backend etcd 会话后端
type Backend struct {
	client *clientv3.Client
}

var _ session.Backend = (*Backend)(nil)

// New 创建后端，客户端的生命周期由调用方管理
func New(e *kitetcd.Etcd) *Backend {
	return &Backend{client: e.Client()}
}

// leaseSeconds 租约以秒为单位，不足一秒向上取整
func leaseSeconds(ttl time.Duration) int64 {
	return max(int64((ttl+time.Second-1)/time.Second), 1)
}

func (b *Backend) grant(ctx context.Context, ttl time.Duration) (clientv3.LeaseID, error) {
	resp, err := b.client.Grant(ctx, leaseSeconds(ttl))
	if err != nil {
		return clientv3.NoLease, err
	}
	return resp.ID, nil
}

func (b *Backend) revoke(ctx context.Context, id clientv3.LeaseID) {
	if id == clientv3.NoLease {
		return
	}
	_, _ = b.client.Revoke(ctx, id)
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, session.ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	lease, err := b.grant(ctx, ttl)
	if err != nil {
		return err
	}
	resp, err := b.client.Put(ctx, key, string(value), clientv3.WithLease(lease), clientv3.WithPrevKV())
	if err != nil {
		b.revoke(ctx, lease)
		return err
	}
	if resp.PrevKv != nil {
		b.revoke(ctx, clientv3.LeaseID(resp.PrevKv.Lease))
	}
	return nil
}

func (b *Backend) Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return b.swapLease(ctx, key, ttl, func(lease clientv3.LeaseID) clientv3.Op {
		return clientv3.OpPut(key, string(value), clientv3.WithLease(lease), clientv3.WithPrevKV())
	})
}

func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return b.swapLease(ctx, key, ttl, func(lease clientv3.LeaseID) clientv3.Op {
		return clientv3.OpPut(key, "", clientv3.WithIgnoreValue(), clientv3.WithLease(lease), clientv3.WithPrevKV())
	})
}

// swapLease 仅在 key 存在时执行 put 并换绑到新租约，旧租约随后撤销
func (b *Backend) swapLease(ctx context.Context, key string, ttl time.Duration, put func(clientv3.LeaseID) clientv3.Op) (bool, error) {
	lease, err := b.grant(ctx, ttl)
	if err != nil {
		return false, err
	}

	resp, err := b.client.Txn(ctx).
		If(clientv3.Compare(clientv3.Version(key), ">", 0)).
		Then(put(lease)).
		Commit()
	if err != nil {
		b.revoke(ctx, lease)
		return false, err
	}
	if !resp.Succeeded {
		b.revoke(ctx, lease)
		return false, nil
	}
	if prev := resp.Responses[0].GetResponsePut().GetPrevKv(); prev != nil {
		b.revoke(ctx, clientv3.LeaseID(prev.Lease))
	}
	return true, nil
}

func (b *Backend) Del(ctx context.Context, key string) (bool, error) {
	resp, err := b.client.Delete(ctx, key, clientv3.WithPrevKV())
	if err != nil {
		return false, err
	}
	for _, kv := range resp.PrevKvs {
		b.revoke(ctx, clientv3.LeaseID(kv.Lease))
	}
	return resp.Deleted > 0, nil
}

func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	resp, err := b.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, string(kv.Key))
	}
	return keys, nil
}
