// internal/service/campaign/domain/types.go
package domain

import "time"

// ConditionType 决定活动作用于哪些商品
type ConditionType string

const (
	ConditionAllProducts  ConditionType = "all_products"
	ConditionSomeProducts ConditionType = "some_products"
)

func (c ConditionType) Valid() bool {
	return c == ConditionAllProducts || c == ConditionSomeProducts
}

// DiscountType 是活动的优惠方式
type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percent"
	DiscountGift    DiscountType = "gift"
	DiscountShipFee DiscountType = "ship_fee"
	DiscountCoupon  DiscountType = "coupon" // 满足条件后赠送一张优惠券
)

// CouponType 是优惠券活动的发放场景
type CouponType string

const (
	CouponDOB           CouponType = "dob"
	CouponFirstRegister CouponType = "first_register"
	CouponEvent         CouponType = "event"
	CouponGift          CouponType = "gift"
)

func (c CouponType) Valid() bool {
	switch c {
	case CouponDOB, CouponFirstRegister, CouponEvent, CouponGift:
		return true
	}
	return false
}

// ApplyFor 决定优惠券发给哪些客户
type ApplyFor string

const (
	ApplyForAll  ApplyFor = "all"
	ApplyForSome ApplyFor = "some"
)

// TimeWindow 是闭区间 [StartAt, EndAt]
type TimeWindow struct {
	StartAt time.Time
	EndAt   time.Time
}

func (w TimeWindow) Valid() bool {
	return !w.StartAt.IsZero() && !w.EndAt.IsZero() && !w.EndAt.Before(w.StartAt)
}

// Contains 判断 t 是否落在窗口内（包含两端）。
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.StartAt) && !t.After(w.EndAt)
}

// Expired 对应 endAt < now。
func (w TimeWindow) Expired(now time.Time) bool {
	return w.EndAt.Before(now)
}

// Overlaps 判断两个闭区间是否相交。
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return !w.EndAt.Before(o.StartAt) && !o.EndAt.Before(w.StartAt)
}
