// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 事务通过 context 传递，实现需要在事务内使用同一连接。
type OrderRepository interface {
	// Create 保存新订单及其明细、赠品、税费与日志
	Create(ctx context.Context, order *Order) error
	// Update 保存状态字段，并追加尚未持久化的日志
	Update(ctx context.Context, order *Order) error
	// GetByCode 按订单号读取完整订单，forUpdate 时加行锁
	GetByCode(ctx context.Context, storeID int64, code string, forUpdate bool) (*Order, error)
}

// StoreConfigRepository 读写门店的定价配置。
type StoreConfigRepository interface {
	Load(ctx context.Context, storeID int64) (*StoreConfig, error)
	Save(ctx context.Context, cfg *StoreConfig) error
}
