package domain

import (
	"errors"
	"fmt"

	"storefront/internal/pkg/bizerr"
)

var (
	ErrInvalidTransition     = fmt.Errorf("%w: invalid order status transition", bizerr.ErrValidation)
	ErrOrderNotFound         = fmt.Errorf("%w: order", bizerr.ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("%w: product", bizerr.ErrNotFound)
	ErrEmptyOrder            = fmt.Errorf("%w: order has no lines", bizerr.ErrValidation)
	ErrInvalidLine           = fmt.Errorf("%w: invalid order line", bizerr.ErrValidation)
	ErrPromotionExpired      = fmt.Errorf("%w: promotion is not active", bizerr.ErrValidation)
	ErrPromotionForeign      = fmt.Errorf("%w: promotion belongs to another store", bizerr.ErrValidation)
	ErrDuplicatePromotion    = fmt.Errorf("%w: more than one promotion of the same type", bizerr.ErrValidation)
	ErrPromotionBelowMinimum = fmt.Errorf("%w: order does not reach the promotion minimum", bizerr.ErrValidation)
	ErrFlashSaleInvalid      = fmt.Errorf("%w: flash sale detail is not usable for this line", bizerr.ErrValidation)
	ErrCouponInvalid         = fmt.Errorf("%w: coupon cannot be used for this order", bizerr.ErrValidation)
	ErrOutOfStockFlashSale   = fmt.Errorf("%w: flash sale stock exceeded", bizerr.ErrValidation)
	ErrAmountOverflow        = fmt.Errorf("%w: amount out of range", bizerr.ErrValidation)

	// ErrUnbalanced 表示金额恒等式被破坏，属于程序错误
	ErrUnbalanced = errors.New("order money fields do not balance")
)
