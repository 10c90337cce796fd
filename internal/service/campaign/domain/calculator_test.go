package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func someProducts(ids ...int64) Scope {
	s := Scope{Condition: ConditionSomeProducts}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func TestComputePercentCapped(t *testing.T) {
	lines := []Line{{LineNo: 1, ProductID: 7, FinalPrice: 100000, Quantity: 3}}
	d := PercentDiscount{Percent: decimal.NewFromInt(10), Cap: 20000}

	out := Compute(d, Scope{Condition: ConditionAllProducts}, 0, lines)

	require.Nil(t, out.Rejection)
	assert.Equal(t, int64(300000), out.QualifyingSubtotal)
	assert.Equal(t, int64(20000), out.Amount)
}

func TestComputePercentFloors(t *testing.T) {
	lines := []Line{{LineNo: 1, ProductID: 1, FinalPrice: 33333, Quantity: 1}}
	out := Compute(PercentDiscount{Percent: decimal.NewFromInt(7)}, Scope{Condition: ConditionAllProducts}, 0, lines)
	// 2333.31 向下取整
	assert.Equal(t, int64(2333), out.Amount)

	out = Compute(PercentDiscount{Percent: decimal.RequireFromString("12.5")}, Scope{Condition: ConditionAllProducts}, 0,
		[]Line{{LineNo: 1, ProductID: 1, FinalPrice: 999, Quantity: 1}})
	assert.Equal(t, int64(124), out.Amount)
}

func TestComputeScopeAndMinimum(t *testing.T) {
	lines := []Line{
		{LineNo: 1, ProductID: 1, FinalPrice: 50000, Quantity: 2},
		{LineNo: 2, ProductID: 2, FinalPrice: 80000, Quantity: 1},
		{LineNo: 3, ProductID: 2, FinalPrice: 0, Quantity: 1, IsGift: true},
	}

	tests := []struct {
		name      string
		scope     Scope
		condition int64
		amount    int64
		subtotal  int64
		reject    string
	}{
		{name: "all products", scope: Scope{Condition: ConditionAllProducts}, amount: 30000, subtotal: 180000},
		{name: "scoped to product 2", scope: someProducts(2), amount: 30000, subtotal: 80000},
		{name: "no line in scope", scope: someProducts(9), reject: RejectProductScope},
		{name: "below minimum", scope: someProducts(1), condition: 150000, subtotal: 100000, reject: RejectBelowMinimum},
		{name: "minimum is inclusive", scope: someProducts(1), condition: 100000, amount: 30000, subtotal: 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Compute(FixedDiscount{Value: 30000}, tt.scope, tt.condition, lines)
			if tt.reject != "" {
				require.NotNil(t, out.Rejection)
				assert.Equal(t, tt.reject, out.Rejection.Code)
				assert.Zero(t, out.Amount)
				return
			}
			require.Nil(t, out.Rejection)
			assert.Equal(t, tt.amount, out.Amount)
			assert.Equal(t, tt.subtotal, out.QualifyingSubtotal)
		})
	}
}

func TestComputeGiftHasNoAmount(t *testing.T) {
	lines := []Line{{LineNo: 1, ProductID: 1, FinalPrice: 10, Quantity: 5}}
	out := Compute(GiftDiscount{}, Scope{Condition: ConditionAllProducts}, 0, lines)
	require.Nil(t, out.Rejection)
	assert.Zero(t, out.Amount)
	assert.Equal(t, int64(5), out.QualifyingQuantity)
}

func TestNewDiscountValidation(t *testing.T) {
	_, err := NewDiscount(DiscountPercent, decimal.NewFromInt(120), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = NewDiscount(DiscountFixed, decimal.RequireFromString("10.5"), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = NewDiscount(DiscountCoupon, decimal.Zero, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	d, err := NewDiscount(DiscountCoupon, decimal.Zero, 0, 42)
	require.NoError(t, err)
	assert.Equal(t, CouponGrantDiscount{CouponCampaignID: 42}, d)

	c := &CouponCampaign{DiscountType: DiscountShipFee}
	_, err = c.Discount()
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestAllocate(t *testing.T) {
	lines := []Line{
		{LineNo: 1, FinalPrice: 100, Quantity: 1},
		{LineNo: 2, FinalPrice: 100, Quantity: 1},
		{LineNo: 3, FinalPrice: 100, Quantity: 1},
	}
	shares := Allocate(100, lines)
	assert.Equal(t, []int64{33, 33, 34}, shares)

	assert.Equal(t, []int64{0, 0, 0}, Allocate(0, lines))
}
