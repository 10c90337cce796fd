package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PromotionCampaign 是门店级别自动生效的促销。
type PromotionCampaign struct {
	ID               int64
	StoreID          int64
	Name             string
	ConditionType    ConditionType
	DiscountType     DiscountType
	Window           TimeWindow
	ConditionValue   int64
	DiscountValue    decimal.Decimal
	DiscountMaxValue int64
	CouponCampaignID int64
	Details          []PromotionCampaignDetail
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PromotionCampaignDetail 中 IsGift=false 的行是被优惠的商品，IsGift=true 的行是赠品。
// 赠品行按 Needed 买满送 Quantity。
type PromotionCampaignDetail struct {
	ID         int64
	CampaignID int64
	ProductID  int64
	IsGift     bool
	Needed     int64
	Quantity   int64
	Price      int64
	FinalPrice int64
}

func (p *PromotionCampaign) Discount() (Discount, error) {
	return NewDiscount(p.DiscountType, p.DiscountValue, p.DiscountMaxValue, p.CouponCampaignID)
}

func (p *PromotionCampaign) Scope() Scope {
	s := Scope{Condition: p.ConditionType}
	for _, d := range p.Details {
		if !d.IsGift {
			s.add(d.ProductID)
		}
	}
	return s
}

func (p *PromotionCampaign) GiftRules() []GiftRule {
	var rules []GiftRule
	for _, d := range p.Details {
		if d.IsGift {
			rules = append(rules, GiftRule{DetailID: d.ID, ProductID: d.ProductID, Needed: d.Needed, Quantity: d.Quantity})
		}
	}
	return rules
}

// Detail 按 ID 查找明细行。
func (p *PromotionCampaign) Detail(id int64) (PromotionCampaignDetail, bool) {
	for _, d := range p.Details {
		if d.ID == id {
			return d, true
		}
	}
	return PromotionCampaignDetail{}, false
}

// IsPercentOnProducts 判断是否是与秒杀互斥的按商品百分比促销。
func (p *PromotionCampaign) IsPercentOnProducts() bool {
	return p.DiscountType == DiscountPercent && p.ConditionType == ConditionSomeProducts
}

func (p *PromotionCampaign) Validate() error {
	if p.StoreID <= 0 {
		return fmt.Errorf("%w: store is required", ErrInvalidDiscount)
	}
	if !p.ConditionType.Valid() {
		return fmt.Errorf("%w: unknown condition type %q", ErrInvalidDiscount, p.ConditionType)
	}
	if !p.Window.Valid() {
		return ErrInvalidWindow
	}
	if p.ConditionValue < 0 {
		return fmt.Errorf("%w: condition value must not be negative", ErrInvalidDiscount)
	}
	if _, err := p.Discount(); err != nil {
		return err
	}
	if p.ConditionType == ConditionSomeProducts && len(p.Scope().ProductIDs) == 0 {
		return ErrProductScopeRequired
	}
	for _, d := range p.Details {
		if d.IsGift {
			if d.Needed <= 0 || d.Quantity <= 0 {
				return ErrInvalidGiftRatio
			}
			continue
		}
		if d.FinalPrice < 0 || d.FinalPrice > d.Price {
			return fmt.Errorf("%w: detail final price must be within [0, price]", ErrInvalidDiscount)
		}
	}
	if p.DiscountType == DiscountGift && len(p.GiftRules()) == 0 {
		return fmt.Errorf("%w: gift promotion needs gift details", ErrInvalidDiscount)
	}
	return nil
}
