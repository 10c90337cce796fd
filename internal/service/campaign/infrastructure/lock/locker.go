// Package lock 为活动配置的“先检查后写入”提供互斥。
package lock

import (
	"context"
	"sync"

	"storefront/internal/zookeeper"
)

// ZKLocker 使用 ZooKeeper 分布式锁，多实例部署时使用。
type ZKLocker struct {
	conn *zookeeper.Conn
}

func NewZKLocker(conn *zookeeper.Conn) *ZKLocker {
	return &ZKLocker{conn: conn}
}

func (l *ZKLocker) Lock(ctx context.Context, key string) (func(), error) {
	dl, err := zookeeper.NewDistributedLock(l.conn, key)
	if err != nil {
		return nil, err
	}
	if err := dl.Lock(ctx); err != nil {
		return nil, err
	}
	return func() { _ = dl.Unlock() }, nil
}

// LocalLocker 是进程内按 key 的互斥锁，单实例或测试时使用。
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
