package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Discount 是各类优惠的标签联合，每个变体只携带自己需要的字段。
type Discount interface {
	Type() DiscountType
	isDiscount()
}

type FixedDiscount struct {
	Value int64
}

// PercentDiscount 的 Cap 为 0 表示不封顶
type PercentDiscount struct {
	Percent decimal.Decimal
	Cap     int64
}

type GiftDiscount struct{}

type ShipFeeDiscount struct{}

type CouponGrantDiscount struct {
	CouponCampaignID int64
}

func (FixedDiscount) Type() DiscountType       { return DiscountFixed }
func (PercentDiscount) Type() DiscountType     { return DiscountPercent }
func (GiftDiscount) Type() DiscountType        { return DiscountGift }
func (ShipFeeDiscount) Type() DiscountType     { return DiscountShipFee }
func (CouponGrantDiscount) Type() DiscountType { return DiscountCoupon }

func (FixedDiscount) isDiscount()       {}
func (PercentDiscount) isDiscount()     {}
func (GiftDiscount) isDiscount()        {}
func (ShipFeeDiscount) isDiscount()     {}
func (CouponGrantDiscount) isDiscount() {}

var hundred = decimal.NewFromInt(100)

// NewDiscount 根据存储的字段构造优惠变体并校验。
func NewDiscount(t DiscountType, value decimal.Decimal, maxValue int64, couponCampaignID int64) (Discount, error) {
	switch t {
	case DiscountFixed:
		if !value.IsPositive() || !value.Equal(value.Truncate(0)) {
			return nil, fmt.Errorf("%w: fixed value must be a positive integer amount", ErrInvalidDiscount)
		}
		return FixedDiscount{Value: value.IntPart()}, nil
	case DiscountPercent:
		if !value.IsPositive() || value.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percent must be in (0, 100]", ErrInvalidDiscount)
		}
		if maxValue < 0 {
			return nil, fmt.Errorf("%w: max value must not be negative", ErrInvalidDiscount)
		}
		return PercentDiscount{Percent: value, Cap: maxValue}, nil
	case DiscountGift:
		return GiftDiscount{}, nil
	case DiscountShipFee:
		return ShipFeeDiscount{}, nil
	case DiscountCoupon:
		if couponCampaignID <= 0 {
			return nil, fmt.Errorf("%w: coupon promotion needs a linked coupon campaign", ErrInvalidDiscount)
		}
		return CouponGrantDiscount{CouponCampaignID: couponCampaignID}, nil
	}
	return nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, t)
}

// PercentOf 返回 floor(amount * percent / 100)。
func PercentOf(amount int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(percent).Div(hundred).Floor().IntPart()
}
