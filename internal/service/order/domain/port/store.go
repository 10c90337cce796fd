package port

import (
	"context"
	"time"

	"storefront/internal/service/order/domain"
)

// StoreConfigProvider 提供门店配置快照。
type StoreConfigProvider interface {
	Get(ctx context.Context, storeID int64) (*domain.StoreConfig, error)
}

// OrderCodeGenerator 生成可读的订单号。
type OrderCodeGenerator interface {
	Next(ctx context.Context, storeID int64, at time.Time) (string, error)
}

// Transactor 在一个数据库事务中执行 fn。
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StoreConfigCache 是可以显式刷新的配置快照。
type StoreConfigCache interface {
	StoreConfigProvider
	Refresh(ctx context.Context, storeID int64) error
}

// StoreConfigPublisher 通知其他实例刷新门店配置。
type StoreConfigPublisher interface {
	PublishInvalidation(ctx context.Context, storeID int64) error
}
