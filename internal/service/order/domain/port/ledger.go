package port

import "context"

// Account 是客户账户的类型。
type Account string

const (
	AccountBalance Account = "balance"
	AccountPoints  Account = "points"
)

// LedgerEntry 是一笔记账，OrderID 与 Reason 一起作为幂等键。
type LedgerEntry struct {
	CustomerID int64   `json:"customer_id"`
	Account    Account `json:"account"`
	Amount     int64   `json:"amount"`
	Reason     string  `json:"reason"`
	OrderID    string  `json:"order_id"`
}

// Ledger 是客户余额与积分账本的出站端口。
type Ledger interface {
	Credit(ctx context.Context, entry LedgerEntry) error
	Debit(ctx context.Context, entry LedgerEntry) error
}

// CustomerStats 重新计算客户的购买周期统计。
type CustomerStats interface {
	RecomputePurchaseCycle(ctx context.Context, storeID, customerID int64) error
}
