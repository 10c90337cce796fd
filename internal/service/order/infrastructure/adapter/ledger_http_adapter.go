package adapter

import (
	"context"

	"storefront/internal/pkg/httpclient"
	"storefront/internal/service/order/domain/port"
)

// LedgerHTTPAdapter 实现了 port.Ledger 接口。
type LedgerHTTPAdapter struct {
	client *httpclient.Client
}

func NewLedgerHTTPAdapter(client *httpclient.Client) *LedgerHTTPAdapter {
	return &LedgerHTTPAdapter{client: client}
}

func (a *LedgerHTTPAdapter) Credit(ctx context.Context, entry port.LedgerEntry) error {
	return a.client.PostJSON(ctx, LedgerService, "/ledger/credit", entry, nil)
}

func (a *LedgerHTTPAdapter) Debit(ctx context.Context, entry port.LedgerEntry) error {
	return a.client.PostJSON(ctx, LedgerService, "/ledger/debit", entry, nil)
}

// CustomerStatsHTTPAdapter 实现了 port.CustomerStats 接口。
type CustomerStatsHTTPAdapter struct {
	client *httpclient.Client
}

func NewCustomerStatsHTTPAdapter(client *httpclient.Client) *CustomerStatsHTTPAdapter {
	return &CustomerStatsHTTPAdapter{client: client}
}

func (a *CustomerStatsHTTPAdapter) RecomputePurchaseCycle(ctx context.Context, storeID, customerID int64) error {
	req := struct {
		StoreID    int64 `json:"store_id"`
		CustomerID int64 `json:"customer_id"`
	}{storeID, customerID}
	return a.client.PostJSON(ctx, CustomerStatsService, "/customers/purchase-cycle", req, nil)
}
