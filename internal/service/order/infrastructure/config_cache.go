package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"storefront/internal/service/order/domain"
)

type snapshot map[int64]*domain.StoreConfig

// StoreConfigSnapshot 是门店配置的写时复制缓存。
// 读取只做一次原子加载；未命中通过 singleflight 合并加载；Refresh 之后不会再写入旧数据。
type StoreConfigSnapshot struct {
	repo  domain.StoreConfigRepository
	snap  atomic.Pointer[snapshot]
	group singleflight.Group

	mu  sync.Mutex
	gen map[int64]uint64
}

func NewStoreConfigSnapshot(repo domain.StoreConfigRepository) *StoreConfigSnapshot {
	c := &StoreConfigSnapshot{repo: repo, gen: make(map[int64]uint64)}
	c.snap.Store(&snapshot{})
	return c
}

func (c *StoreConfigSnapshot) Get(ctx context.Context, storeID int64) (*domain.StoreConfig, error) {
	if cfg, ok := (*c.snap.Load())[storeID]; ok {
		return cfg, nil
	}
	return c.load(ctx, storeID)
}

// Refresh 使门店的快照失效并立即重新加载。
func (c *StoreConfigSnapshot) Refresh(ctx context.Context, storeID int64) error {
	c.mu.Lock()
	c.gen[storeID]++
	c.replace(storeID, nil)
	c.mu.Unlock()
	_, err := c.load(ctx, storeID)
	return err
}

func (c *StoreConfigSnapshot) load(ctx context.Context, storeID int64) (*domain.StoreConfig, error) {
	c.mu.Lock()
	gen := c.gen[storeID]
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%d/%d", storeID, gen), func() (any, error) {
		cfg, err := c.repo.Load(ctx, storeID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		// 加载期间发生了 Refresh，丢弃这次结果
		if c.gen[storeID] == gen {
			c.replace(storeID, cfg)
		}
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.StoreConfig), nil
}

// replace 复制当前快照后替换一项，调用方持有 mu。cfg 为 nil 时删除。
func (c *StoreConfigSnapshot) replace(storeID int64, cfg *domain.StoreConfig) {
	old := *c.snap.Load()
	next := make(snapshot, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	if cfg == nil {
		delete(next, storeID)
	} else {
		next[storeID] = cfg
	}
	c.snap.Store(&next)
}
