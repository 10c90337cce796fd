package domain

import (
	"fmt"

	"storefront/internal/pkg/bizerr"
)

var (
	ErrInvalidDiscount       = fmt.Errorf("%w: invalid discount definition", bizerr.ErrValidation)
	ErrInvalidWindow         = fmt.Errorf("%w: campaign window is invalid", bizerr.ErrValidation)
	ErrFlashSaleOutOfStock   = fmt.Errorf("%w: flash sale stock exceeded", bizerr.ErrValidation)
	ErrFlashSaleCounter      = fmt.Errorf("%w: flash sale counter underflow", bizerr.ErrValidation)
	ErrFlashSaleOverlap      = fmt.Errorf("%w: flash sale window overlaps another campaign", bizerr.ErrValidation)
	ErrPromotionOverlap      = fmt.Errorf("%w: promotion window overlaps a flash sale", bizerr.ErrValidation)
	ErrCouponAlreadyUsed     = fmt.Errorf("%w: coupon already used", bizerr.ErrValidation)
	ErrCouponRuleRequired    = fmt.Errorf("%w: coupon campaign for some customers needs an eligibility rule", bizerr.ErrValidation)
	ErrProductScopeRequired  = fmt.Errorf("%w: some_products campaign needs product details", bizerr.ErrValidation)
	ErrInvalidGiftRatio      = fmt.Errorf("%w: gift detail needs positive needed and quantity", bizerr.ErrValidation)
	ErrCampaignNotFound      = fmt.Errorf("%w: campaign", bizerr.ErrNotFound)
	ErrCustomerCouponMissing = fmt.Errorf("%w: customer coupon", bizerr.ErrNotFound)
)
