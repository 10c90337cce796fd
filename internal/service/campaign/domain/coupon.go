package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CouponCampaign 是可复用的优惠券模板，发放后生成 CustomerCoupon。
type CouponCampaign struct {
	ID               int64
	StoreID          int64
	Name             string
	Type             CouponType
	ConditionType    ConditionType
	DiscountType     DiscountType
	ApplyFor         ApplyFor
	Window           TimeWindow
	ConditionValue   int64
	DiscountValue    decimal.Decimal
	DiscountMaxValue int64
	// EligibilityRule 是 CEL 表达式，ApplyFor=some 时必填
	EligibilityRule string
	Details         []CouponCampaignDetail
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CouponCampaignDetail 在 SomeProducts 时限定商品；Gift 类型时 IsGift 行描述赠品。
type CouponCampaignDetail struct {
	ID         int64
	CampaignID int64
	ProductID  int64
	IsGift     bool
	Needed     int64
	Quantity   int64
}

// Discount 构造优惠变体，优惠券只允许 Fixed、Percent 和 Gift。
func (c *CouponCampaign) Discount() (Discount, error) {
	switch c.DiscountType {
	case DiscountFixed, DiscountPercent, DiscountGift:
		return NewDiscount(c.DiscountType, c.DiscountValue, c.DiscountMaxValue, 0)
	}
	return nil, fmt.Errorf("%w: coupon cannot use discount type %q", ErrInvalidDiscount, c.DiscountType)
}

// Scope 返回非赠品明细构成的商品范围。
func (c *CouponCampaign) Scope() Scope {
	s := Scope{Condition: c.ConditionType}
	for _, d := range c.Details {
		if !d.IsGift {
			s.add(d.ProductID)
		}
	}
	return s
}

// GiftRules 返回赠品规则。
func (c *CouponCampaign) GiftRules() []GiftRule {
	var rules []GiftRule
	for _, d := range c.Details {
		if d.IsGift {
			rules = append(rules, GiftRule{ProductID: d.ProductID, Needed: d.Needed, Quantity: d.Quantity})
		}
	}
	return rules
}

// Validate 校验活动配置本身，不涉及其他活动。
func (c *CouponCampaign) Validate() error {
	if c.StoreID <= 0 {
		return fmt.Errorf("%w: store is required", ErrInvalidDiscount)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown coupon type %q", ErrInvalidDiscount, c.Type)
	}
	if !c.ConditionType.Valid() {
		return fmt.Errorf("%w: unknown condition type %q", ErrInvalidDiscount, c.ConditionType)
	}
	if !c.Window.Valid() {
		return ErrInvalidWindow
	}
	if c.ConditionValue < 0 {
		return fmt.Errorf("%w: condition value must not be negative", ErrInvalidDiscount)
	}
	if _, err := c.Discount(); err != nil {
		return err
	}
	if c.ConditionType == ConditionSomeProducts && len(c.Scope().ProductIDs) == 0 {
		return ErrProductScopeRequired
	}
	if c.DiscountType == DiscountGift && len(c.GiftRules()) == 0 {
		return fmt.Errorf("%w: gift coupon needs gift details", ErrInvalidDiscount)
	}
	for _, r := range c.GiftRules() {
		if r.Needed <= 0 || r.Quantity <= 0 {
			return ErrInvalidGiftRatio
		}
	}
	switch c.ApplyFor {
	case ApplyForAll:
	case ApplyForSome:
		if c.EligibilityRule == "" {
			return ErrCouponRuleRequired
		}
	default:
		return fmt.Errorf("%w: unknown apply_for %q", ErrInvalidDiscount, c.ApplyFor)
	}
	return nil
}

// CustomerCoupon 是发给某个客户的券。
type CustomerCoupon struct {
	ID         int64
	Code       string
	CampaignID int64
	CustomerID int64
	IsUsed     bool
	// UsedOrderID 是消费这张券的订单
	UsedOrderID string
	// OrderID 是作为奖励发放这张券的订单，可为空
	OrderID   string
	ExpiredAt time.Time
	CreatedAt time.Time
}

func (c *CustomerCoupon) Expired(now time.Time) bool {
	return c.ExpiredAt.Before(now)
}
