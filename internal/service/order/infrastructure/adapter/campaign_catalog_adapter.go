package adapter

import (
	"context"

	campaign "storefront/internal/service/campaign/domain"
)

// CampaignCatalogAdapter 把活动仓储适配为 port.CampaignCatalog。
type CampaignCatalogAdapter struct {
	coupons    campaign.CouponRepository
	promotions campaign.PromotionRepository
	flashSales campaign.FlashSaleRepository
}

func NewCampaignCatalogAdapter(coupons campaign.CouponRepository, promotions campaign.PromotionRepository, flashSales campaign.FlashSaleRepository) *CampaignCatalogAdapter {
	return &CampaignCatalogAdapter{coupons: coupons, promotions: promotions, flashSales: flashSales}
}

func (a *CampaignCatalogAdapter) Promotions(ctx context.Context, ids []int64) ([]*campaign.PromotionCampaign, error) {
	return a.promotions.GetByIDs(ctx, ids)
}

func (a *CampaignCatalogAdapter) PromotionsByDetail(ctx context.Context, detailIDs []int64) ([]*campaign.PromotionCampaign, error) {
	return a.promotions.GetByDetailIDs(ctx, detailIDs)
}

func (a *CampaignCatalogAdapter) FlashSalesByDetail(ctx context.Context, detailIDs []int64) ([]*campaign.FlashSaleCampaign, error) {
	return a.flashSales.GetByDetailIDs(ctx, detailIDs)
}

func (a *CampaignCatalogAdapter) CouponCampaign(ctx context.Context, id int64) (*campaign.CouponCampaign, error) {
	return a.coupons.GetCampaign(ctx, id)
}

func (a *CampaignCatalogAdapter) CustomerCoupon(ctx context.Context, code string) (*campaign.CustomerCoupon, error) {
	return a.coupons.GetCustomerCoupon(ctx, code)
}

// CouponIssuer 是活动应用服务中单张发券的能力
type CouponIssuer interface {
	GrantCoupon(ctx context.Context, campaignID, customerID int64, orderID string) (*campaign.CustomerCoupon, error)
}

// CouponGranterAdapter 实现了 port.CouponGranter 接口。
type CouponGranterAdapter struct {
	issuer CouponIssuer
}

func NewCouponGranterAdapter(issuer CouponIssuer) *CouponGranterAdapter {
	return &CouponGranterAdapter{issuer: issuer}
}

func (a *CouponGranterAdapter) GrantCoupon(ctx context.Context, campaignID, customerID int64, orderID string) error {
	_, err := a.issuer.GrantCoupon(ctx, campaignID, customerID, orderID)
	return err
}
