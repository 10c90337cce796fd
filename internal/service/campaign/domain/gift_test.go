package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGiftQuantity(t *testing.T) {
	tests := []struct {
		purchased, needed, per, want int64
	}{
		{purchased: 1, needed: 2, per: 1, want: 0},
		{purchased: 2, needed: 2, per: 1, want: 1},
		{purchased: 5, needed: 2, per: 3, want: 6},
		{purchased: 7, needed: 0, per: 1, want: 0},
		{purchased: 0, needed: 1, per: 1, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GiftQuantity(tt.purchased, tt.needed, tt.per),
			"purchased=%d needed=%d per=%d", tt.purchased, tt.needed, tt.per)
	}
}

func TestGenerateGifts(t *testing.T) {
	rule := GiftRule{DetailID: 9, ProductID: 100, Needed: 3, Quantity: 1}

	g, ok := GenerateLineGift(rule, 2, 6)
	assert.True(t, ok)
	assert.Equal(t, Gift{ProductID: 100, Quantity: 2, ParentLineNo: 2, DetailID: 9}, g)

	_, ok = GenerateLineGift(rule, 2, 2)
	assert.False(t, ok)

	gifts := GenerateOrderGifts([]GiftRule{rule, {ProductID: 101, Needed: 10, Quantity: 1}}, 4)
	assert.Equal(t, []Gift{{ProductID: 100, Quantity: 1, DetailID: 9}}, gifts)
}
