package port

import (
	"context"

	"github.com/shopspring/decimal"

	campaign "storefront/internal/service/campaign/domain"
)

// Product 是定价需要的商品信息。
type Product struct {
	ID      int64
	StoreID int64
	// Price 已经应用了规格价（如果传入了 variation）
	Price int64
	// CategoryRefPoint 是分类的推荐积分百分比
	CategoryRefPoint decimal.Decimal
	TaxRef           string
}

// ProductCatalog 是商品目录的出站端口。
type ProductCatalog interface {
	// GetProduct 读取门店内的商品，variationID 非 0 时用规格价覆盖单价。
	GetProduct(ctx context.Context, storeID, productID, variationID int64) (*Product, error)
}

// CampaignCatalog 是活动目录的只读端口。
type CampaignCatalog interface {
	// Promotions 按 ID 读取订单级促销。
	Promotions(ctx context.Context, ids []int64) ([]*campaign.PromotionCampaign, error)
	// PromotionsByDetail 读取包含这些明细行的促销。
	PromotionsByDetail(ctx context.Context, detailIDs []int64) ([]*campaign.PromotionCampaign, error)
	// FlashSalesByDetail 读取包含这些明细行的秒杀。
	FlashSalesByDetail(ctx context.Context, detailIDs []int64) ([]*campaign.FlashSaleCampaign, error)
	CouponCampaign(ctx context.Context, id int64) (*campaign.CouponCampaign, error)
	CustomerCoupon(ctx context.Context, code string) (*campaign.CustomerCoupon, error)
}
