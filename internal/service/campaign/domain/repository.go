package domain

import (
	"context"
	"time"
)

// CouponRepository 管理优惠券活动与客户券。
type CouponRepository interface {
	GetCampaign(ctx context.Context, id int64) (*CouponCampaign, error)
	SaveCampaign(ctx context.Context, c *CouponCampaign) error
	GetCustomerCoupon(ctx context.Context, code string) (*CustomerCoupon, error)
	CreateCustomerCoupons(ctx context.Context, coupons []*CustomerCoupon) error
	// MarkUsed 仅当券未被使用时置为已用，否则返回 ErrCouponAlreadyUsed。
	MarkUsed(ctx context.Context, couponID int64, orderID string) error
	// RevertUsage 恢复该订单消费的券，返回是否有券被恢复；重复调用无副作用。
	RevertUsage(ctx context.Context, orderID string) (bool, error)
}

// PromotionRepository 管理促销活动，读取时总是带上全部明细。
type PromotionRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*PromotionCampaign, error)
	GetByDetailIDs(ctx context.Context, detailIDs []int64) ([]*PromotionCampaign, error)
	Save(ctx context.Context, p *PromotionCampaign) error
	// FindPercentOnProducts 查询门店内与窗口相交的按商品百分比促销。
	FindPercentOnProducts(ctx context.Context, storeID int64, w TimeWindow) ([]*PromotionCampaign, error)
}

// FlashSaleLedger 对单个明细行做原子的条件更新。
type FlashSaleLedger interface {
	Reserve(ctx context.Context, detailID, qty int64) error
	Commit(ctx context.Context, detailID, qty int64) error
	Release(ctx context.Context, detailID, qty int64) error
	ReverseCommit(ctx context.Context, detailID, qty int64) error
}

type FlashSaleRepository interface {
	FlashSaleLedger
	GetByDetailIDs(ctx context.Context, detailIDs []int64) ([]*FlashSaleCampaign, error)
	Save(ctx context.Context, f *FlashSaleCampaign) error
	// FindOverlapping 查询门店内与窗口相交的秒杀活动。
	FindOverlapping(ctx context.Context, storeID int64, w TimeWindow) ([]*FlashSaleCampaign, error)
}

// Locker 提供按 key 的互斥，用于先检查后写入的活动配置。
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// CustomerFact 是判断发券资格时可用的客户信息。
type CustomerFact struct {
	CustomerID   int64     `json:"customer_id"`
	Tier         string    `json:"tier"`
	TotalSpent   int64     `json:"total_spent"`
	OrderCount   int64     `json:"order_count"`
	BirthDate    time.Time `json:"birth_date"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RuleEngine 校验并执行发券资格表达式。
type RuleEngine interface {
	Compile(rule string) error
	Eligible(ctx context.Context, rule string, fact CustomerFact, now time.Time) (bool, error)
}
