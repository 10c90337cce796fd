package adapter

import (
	"context"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/service/order/domain/port"
)

// 下游服务名，通过 Nacos 或静态配置解析
const (
	WarehouseService     = "warehouse"
	LedgerService        = "ledger"
	CustomerStatsService = "customer-stats"
)

type warehouseRequest struct {
	OrderID string           `json:"order_id"`
	StoreID int64            `json:"store_id,omitempty"`
	Lines   []port.StockLine `json:"lines,omitempty"`
}

// WarehouseHTTPAdapter 实现了 port.Warehouse 接口。
type WarehouseHTTPAdapter struct {
	client *httpclient.Client
}

func NewWarehouseHTTPAdapter(client *httpclient.Client) *WarehouseHTTPAdapter {
	return &WarehouseHTTPAdapter{client: client}
}

func (a *WarehouseHTTPAdapter) Reserve(ctx context.Context, orderID string, storeID int64, lines []port.StockLine) error {
	return a.client.PostJSON(ctx, WarehouseService, "/stock/reserve", warehouseRequest{OrderID: orderID, StoreID: storeID, Lines: lines}, nil)
}

func (a *WarehouseHTTPAdapter) Commit(ctx context.Context, orderID string) error {
	return a.client.PostJSON(ctx, WarehouseService, "/stock/commit", warehouseRequest{OrderID: orderID}, nil)
}

// Release 是 Reserve 的补偿操作。
func (a *WarehouseHTTPAdapter) Release(ctx context.Context, orderID string) error {
	return a.client.PostJSON(ctx, WarehouseService, "/stock/release", warehouseRequest{OrderID: orderID}, nil)
}

func (a *WarehouseHTTPAdapter) Restock(ctx context.Context, orderID string) error {
	return a.client.PostJSON(ctx, WarehouseService, "/stock/restock", warehouseRequest{OrderID: orderID}, nil)
}
