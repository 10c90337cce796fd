package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/pkg/bizerr"
)

// 软拒绝的原因代码
const (
	RejectProductScope = "product_scope"
	RejectBelowMinimum = "below_minimum"
	RejectExpired      = "expired"
)

// Scope 是活动的商品范围。
type Scope struct {
	Condition  ConditionType
	ProductIDs map[int64]struct{}
}

func (s *Scope) add(id int64) {
	if s.ProductIDs == nil {
		s.ProductIDs = make(map[int64]struct{})
	}
	s.ProductIDs[id] = struct{}{}
}

// Includes 判断商品是否在范围内，AllProducts 包含一切商品。
func (s Scope) Includes(productID int64) bool {
	if s.Condition != ConditionSomeProducts {
		return true
	}
	_, ok := s.ProductIDs[productID]
	return ok
}

// Line 是计算优惠时关心的订单行信息。
type Line struct {
	LineNo     int
	ProductID  int64
	FinalPrice int64
	Quantity   int64
	IsGift     bool
}

func (l Line) Amount() int64 {
	return l.FinalPrice * l.Quantity
}

// Outcome 是一次优惠计算的结果；Rejection 非空时 Amount 为 0。
type Outcome struct {
	Amount             int64
	QualifyingSubtotal int64
	QualifyingLines    []int
	QualifyingQuantity int64
	Rejection          *bizerr.Rejection
}

// Qualify 筛选出适用的订单行，赠品行永远不参与。
func Qualify(scope Scope, lines []Line) Outcome {
	var out Outcome
	for _, l := range lines {
		if l.IsGift || !scope.Includes(l.ProductID) {
			continue
		}
		out.QualifyingLines = append(out.QualifyingLines, l.LineNo)
		out.QualifyingSubtotal += l.Amount()
		out.QualifyingQuantity += l.Quantity
	}
	return out
}

// Compute 计算一个优惠在给定订单行上的金额。
// 商品范围或门槛不满足时返回软拒绝而不是错误，由调用方决定如何处理。
func Compute(d Discount, scope Scope, conditionValue int64, lines []Line) Outcome {
	out := Qualify(scope, lines)
	if len(out.QualifyingLines) == 0 {
		out.Rejection = bizerr.Reject(RejectProductScope, "product list invalid for this discount")
		return out
	}
	if out.QualifyingSubtotal < conditionValue {
		out.Rejection = bizerr.Reject(RejectBelowMinimum,
			fmt.Sprintf("qualifying subtotal %d is below the minimum %d", out.QualifyingSubtotal, conditionValue))
		return out
	}

	switch v := d.(type) {
	case FixedDiscount:
		out.Amount = v.Value
	case PercentDiscount:
		out.Amount = PercentOf(out.QualifyingSubtotal, v.Percent)
		if v.Cap > 0 && out.Amount > v.Cap {
			out.Amount = v.Cap
		}
	case GiftDiscount, ShipFeeDiscount, CouponGrantDiscount:
		// 没有直接的金额优惠
	default:
		panic(fmt.Sprintf("campaign: unhandled discount variant %T", d))
	}
	return out
}

// Allocate 把 amount 按金额比例分摊到 lines 上，余数落在最后一行。
// 返回与 lines 同序的分摊值。
func Allocate(amount int64, lines []Line) []int64 {
	shares := make([]int64, len(lines))
	var total int64
	for _, l := range lines {
		total += l.Amount()
	}
	if amount <= 0 || total <= 0 {
		return shares
	}
	var used int64
	for i, l := range lines {
		if i == len(lines)-1 {
			shares[i] = amount - used
			break
		}
		shares[i] = decimal.NewFromInt(amount).Mul(decimal.NewFromInt(l.Amount())).
			Div(decimal.NewFromInt(total)).Floor().IntPart()
		used += shares[i]
	}
	return shares
}
