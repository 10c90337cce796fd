package application

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/service/campaign/domain"
)

// DetailDTO 是活动明细的请求体，不同活动只使用其中一部分字段。
type DetailDTO struct {
	ID         int64 `json:"id,omitempty"`
	ProductID  int64 `json:"product_id"`
	IsGift     bool  `json:"is_gift,omitempty"`
	Needed     int64 `json:"needed,omitempty"`
	Quantity   int64 `json:"quantity,omitempty"`
	Price      int64 `json:"price,omitempty"`
	FinalPrice int64 `json:"final_price,omitempty"`
	Stock      int64 `json:"stock,omitempty"`
}

type SaveFlashSaleRequest struct {
	ID      int64       `json:"id,omitempty"`
	StoreID int64       `json:"store_id"`
	Name    string      `json:"name"`
	StartAt time.Time   `json:"start_at"`
	EndAt   time.Time   `json:"end_at"`
	Details []DetailDTO `json:"details"`
}

func (r *SaveFlashSaleRequest) toDomain() *domain.FlashSaleCampaign {
	f := &domain.FlashSaleCampaign{
		ID:      r.ID,
		StoreID: r.StoreID,
		Name:    r.Name,
		Window:  domain.TimeWindow{StartAt: r.StartAt, EndAt: r.EndAt},
	}
	for _, d := range r.Details {
		f.Details = append(f.Details, domain.FlashSaleCampaignDetail{
			ID: d.ID, ProductID: d.ProductID, Price: d.Price, Stock: d.Stock,
		})
	}
	return f
}

type SavePromotionRequest struct {
	ID               int64                `json:"id,omitempty"`
	StoreID          int64                `json:"store_id"`
	Name             string               `json:"name"`
	ConditionType    domain.ConditionType `json:"condition_type"`
	DiscountType     domain.DiscountType  `json:"discount_type"`
	StartAt          time.Time            `json:"start_at"`
	EndAt            time.Time            `json:"end_at"`
	ConditionValue   int64                `json:"condition_value"`
	DiscountValue    decimal.Decimal      `json:"discount_value"`
	DiscountMaxValue int64                `json:"discount_max_value"`
	CouponCampaignID int64                `json:"coupon_campaign_id,omitempty"`
	Details          []DetailDTO          `json:"details"`
}

func (r *SavePromotionRequest) toDomain() *domain.PromotionCampaign {
	p := &domain.PromotionCampaign{
		ID:               r.ID,
		StoreID:          r.StoreID,
		Name:             r.Name,
		ConditionType:    r.ConditionType,
		DiscountType:     r.DiscountType,
		Window:           domain.TimeWindow{StartAt: r.StartAt, EndAt: r.EndAt},
		ConditionValue:   r.ConditionValue,
		DiscountValue:    r.DiscountValue,
		DiscountMaxValue: r.DiscountMaxValue,
		CouponCampaignID: r.CouponCampaignID,
	}
	for _, d := range r.Details {
		p.Details = append(p.Details, domain.PromotionCampaignDetail{
			ProductID: d.ProductID, IsGift: d.IsGift, Needed: d.Needed,
			Quantity: d.Quantity, Price: d.Price, FinalPrice: d.FinalPrice,
		})
	}
	return p
}

type SaveCouponCampaignRequest struct {
	ID               int64                `json:"id,omitempty"`
	StoreID          int64                `json:"store_id"`
	Name             string               `json:"name"`
	Type             domain.CouponType    `json:"type"`
	ConditionType    domain.ConditionType `json:"condition_type"`
	DiscountType     domain.DiscountType  `json:"discount_type"`
	ApplyFor         domain.ApplyFor      `json:"apply_for"`
	StartAt          time.Time            `json:"start_at"`
	EndAt            time.Time            `json:"end_at"`
	ConditionValue   int64                `json:"condition_value"`
	DiscountValue    decimal.Decimal      `json:"discount_value"`
	DiscountMaxValue int64                `json:"discount_max_value"`
	EligibilityRule  string               `json:"eligibility_rule,omitempty"`
	Details          []DetailDTO          `json:"details"`
}

func (r *SaveCouponCampaignRequest) toDomain() *domain.CouponCampaign {
	c := &domain.CouponCampaign{
		ID:               r.ID,
		StoreID:          r.StoreID,
		Name:             r.Name,
		Type:             r.Type,
		ConditionType:    r.ConditionType,
		DiscountType:     r.DiscountType,
		ApplyFor:         r.ApplyFor,
		Window:           domain.TimeWindow{StartAt: r.StartAt, EndAt: r.EndAt},
		ConditionValue:   r.ConditionValue,
		DiscountValue:    r.DiscountValue,
		DiscountMaxValue: r.DiscountMaxValue,
		EligibilityRule:  r.EligibilityRule,
	}
	for _, d := range r.Details {
		c.Details = append(c.Details, domain.CouponCampaignDetail{
			ProductID: d.ProductID, IsGift: d.IsGift, Needed: d.Needed, Quantity: d.Quantity,
		})
	}
	return c
}

// IssueCouponsRequest 携带候选客户及其资格信息。
type IssueCouponsRequest struct {
	Customers []domain.CustomerFact `json:"customers"`
}

type IssueCouponsResponse struct {
	Issued  int      `json:"issued"`
	Skipped int      `json:"skipped"`
	Codes   []string `json:"codes"`
}

// SavedResponse 返回保存后的活动 ID。
type SavedResponse struct {
	ID int64 `json:"id"`
}
