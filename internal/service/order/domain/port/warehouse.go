// internal/service/order/domain/port/warehouse.go
package port

import "context"

// StockLine 是一行需要仓库处理的商品。
type StockLine struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id,omitempty"`
	Quantity    int64 `json:"quantity"`
}

// Warehouse 是仓库库存服务的出站端口，与秒杀库存无关。
type Warehouse interface {
	// Reserve 为订单预占库存。
	Reserve(ctx context.Context, orderID string, storeID int64, lines []StockLine) error
	// Commit 在订单完成时扣减库存。
	Commit(ctx context.Context, orderID string) error
	// Release 是 Reserve 的补偿操作。
	Release(ctx context.Context, orderID string) error
	// Restock 把已扣减的库存退回。
	Restock(ctx context.Context, orderID string) error
}
