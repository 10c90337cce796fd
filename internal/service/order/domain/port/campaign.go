package port

import (
	"context"

	campaign "storefront/internal/service/campaign/domain"
)

// FlashSaleLedger 是秒杀计数器的端口，所有操作都是单行原子条件更新。
type FlashSaleLedger = campaign.FlashSaleLedger

// CouponLedger 记录客户券的消费。
type CouponLedger interface {
	// MarkUsed 仅当券未使用时标记为已用。
	MarkUsed(ctx context.Context, couponID int64, orderID string) error
	// RevertUsage 恢复订单消费的券，重复调用不会产生效果。
	RevertUsage(ctx context.Context, orderID string) (bool, error)
}

// CouponGranter 向客户发放一张券。
type CouponGranter interface {
	// GrantCoupon 作为订单奖励发放券。
	GrantCoupon(ctx context.Context, campaignID, customerID int64, orderID string) error
}
