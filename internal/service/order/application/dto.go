// internal/service/order/application/dto.go
package application

import (
	"fmt"
	"time"

	"storefront/internal/service/order/domain"
)

// LineInput 是购物车中的一行
type LineInput struct {
	ProductID             int64 `json:"product_id"`
	VariationID           int64 `json:"variation_id,omitempty"`
	Quantity              int64 `json:"quantity"`
	FlashSaleDetailID     int64 `json:"flash_sale_detail_id,omitempty"`
	PromotionDetailID     int64 `json:"promotion_detail_id,omitempty"`
	PromotionGiftDetailID int64 `json:"promotion_gift_detail_id,omitempty"`
}

// ReceiptInput 是开票信息
type ReceiptInput struct {
	CompanyName string `json:"company_name"`
	TaxCode     string `json:"tax_code"`
	Address     string `json:"address"`
	Email       string `json:"email"`
}

// PriceOrderRequest 是报价与下单共用的输入
type PriceOrderRequest struct {
	StoreID          int64                 `json:"store_id"`
	CustomerID       int64                 `json:"customer_id"`
	PaymentMethod    domain.PaymentMethod  `json:"payment_method"`
	DeliveryMethod   domain.DeliveryMethod `json:"delivery_method"`
	City             string                `json:"city"`
	District         string                `json:"district"`
	Address          string                `json:"address"`
	Note             string                `json:"note"`
	PromotionIDs     []int64               `json:"promotion_ids,omitempty"`
	CouponCampaignID int64                 `json:"coupon_campaign_id,omitempty"`
	CouponCode       string                `json:"coupon_code,omitempty"`
	Receipt          *ReceiptInput         `json:"receipt,omitempty"`
	Lines            []LineInput           `json:"lines"`
}

// MaxLineQuantity 是单行允许的最大购买数量
const MaxLineQuantity int64 = 100000

func (r *PriceOrderRequest) validate() error {
	if r.StoreID <= 0 || r.CustomerID <= 0 {
		return fmt.Errorf("%w: store and customer are required", domain.ErrInvalidLine)
	}
	if len(r.Lines) == 0 {
		return domain.ErrEmptyOrder
	}
	if !r.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidLine, r.PaymentMethod)
	}
	if !r.DeliveryMethod.Valid() {
		return fmt.Errorf("%w: unknown delivery method %q", domain.ErrInvalidLine, r.DeliveryMethod)
	}
	for i, l := range r.Lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return fmt.Errorf("%w: line %d needs a product and a positive quantity", domain.ErrInvalidLine, i+1)
		}
		if l.Quantity > MaxLineQuantity {
			return fmt.Errorf("%w: line %d quantity exceeds %d", domain.ErrInvalidLine, i+1, MaxLineQuantity)
		}
		if l.FlashSaleDetailID > 0 && l.PromotionDetailID > 0 {
			return fmt.Errorf("%w: line %d cannot use a flash sale and a promotion price together", domain.ErrInvalidLine, i+1)
		}
	}
	return nil
}

func (r *PriceOrderRequest) flashSaleDetailIDs() []int64 {
	var ids []int64
	for _, l := range r.Lines {
		if l.FlashSaleDetailID > 0 {
			ids = append(ids, l.FlashSaleDetailID)
		}
	}
	return ids
}

func (r *PriceOrderRequest) promotionDetailIDs() []int64 {
	var ids []int64
	for _, l := range r.Lines {
		if l.PromotionDetailID > 0 {
			ids = append(ids, l.PromotionDetailID)
		}
		if l.PromotionGiftDetailID > 0 {
			ids = append(ids, l.PromotionGiftDetailID)
		}
	}
	return ids
}

// TransitionRequest 是状态流转的输入
type TransitionRequest struct {
	StoreID int64  `json:"store_id"`
	Code    string `json:"-"`
	Note    string `json:"note"`
}

// OrderLineDTO 是返回给调用方的订单行
type OrderLineDTO struct {
	LineNo                int   `json:"line_no"`
	ParentLineNo          int   `json:"parent_line_no,omitempty"`
	ProductID             int64 `json:"product_id"`
	VariationID           int64 `json:"variation_id,omitempty"`
	Price                 int64 `json:"price"`
	FinalPrice            int64 `json:"final_price"`
	Discount              int64 `json:"discount"`
	DiscountCoupon        int64 `json:"discount_coupon"`
	DiscountFlashSale     int64 `json:"discount_flash_sale"`
	Quantity              int64 `json:"quantity"`
	IsGift                bool  `json:"is_gift"`
	IsOutOfStockFlashSale bool  `json:"is_out_of_stock_flash_sale,omitempty"`
}

type OrderTaxDTO struct {
	Name   string `json:"name"`
	Rate   string `json:"rate"`
	Amount int64  `json:"amount"`
}

// OrderResponse 是报价、下单与状态流转的输出
type OrderResponse struct {
	ID                     string         `json:"id,omitempty"`
	Code                   string         `json:"code,omitempty"`
	StoreID                int64          `json:"store_id"`
	CustomerID             int64          `json:"customer_id"`
	Status                 domain.Status  `json:"status"`
	PaymentStatus          string         `json:"payment_status"`
	DeliveryStatus         string         `json:"delivery_status,omitempty"`
	MoneyProductOrigin     int64          `json:"money_product_origin"`
	MoneyProduct           int64          `json:"money_product"`
	MoneyVat               int64          `json:"money_vat"`
	ShipFee                int64          `json:"ship_fee"`
	MoneyDiscount          int64          `json:"money_discount"`
	MoneyDiscountCoupon    int64          `json:"money_discount_coupon"`
	MoneyDiscountShipFee   int64          `json:"money_discount_ship_fee"`
	MoneyDiscountFlashSale int64          `json:"money_discount_flash_sale"`
	TotalMoneyDiscount     int64          `json:"total_money_discount"`
	MoneyFinal             int64          `json:"money_final"`
	TotalPoints            int64          `json:"total_points"`
	TotalRefPoints         int64          `json:"total_ref_points"`
	RewardPoints           int64          `json:"reward_points"`
	CouponMsg              string         `json:"coupon_msg,omitempty"`
	IsExpiredCoupon        bool           `json:"is_expired_coupon,omitempty"`
	Lines                  []OrderLineDTO `json:"lines"`
	Gifts                  []OrderLineDTO `json:"gifts,omitempty"`
	Taxes                  []OrderTaxDTO  `json:"taxes,omitempty"`
	UpdatedAt              *time.Time     `json:"updated_at,omitempty"`
}

func toLineDTOs(details []domain.OrderDetail) []OrderLineDTO {
	out := make([]OrderLineDTO, 0, len(details))
	for _, d := range details {
		out = append(out, OrderLineDTO{
			LineNo:                d.LineNo,
			ParentLineNo:          d.ParentLineNo,
			ProductID:             d.ProductID,
			VariationID:           d.VariationID,
			Price:                 d.Price,
			FinalPrice:            d.FinalPrice,
			Discount:              d.Discount,
			DiscountCoupon:        d.DiscountCoupon,
			DiscountFlashSale:     d.DiscountFlashSale,
			Quantity:              d.Quantity,
			IsGift:                d.IsGift,
			IsOutOfStockFlashSale: d.IsOutOfStockFlashSale,
		})
	}
	return out
}

// NewOrderResponse 把订单实体转换为输出 DTO。
func NewOrderResponse(o *domain.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:                     o.ID,
		Code:                   o.Code,
		StoreID:                o.StoreID,
		CustomerID:             o.CustomerID,
		Status:                 o.Status,
		PaymentStatus:          string(o.PaymentStatus),
		DeliveryStatus:         string(o.DeliveryStatus),
		MoneyProductOrigin:     o.MoneyProductOrigin,
		MoneyProduct:           o.MoneyProduct,
		MoneyVat:               o.MoneyVat,
		ShipFee:                o.ShipFee,
		MoneyDiscount:          o.MoneyDiscount,
		MoneyDiscountCoupon:    o.MoneyDiscountCoupon,
		MoneyDiscountShipFee:   o.MoneyDiscountShipFee,
		MoneyDiscountFlashSale: o.MoneyDiscountFlashSale,
		TotalMoneyDiscount:     o.TotalMoneyDiscount,
		MoneyFinal:             o.MoneyFinal,
		TotalPoints:            o.TotalPoints,
		TotalRefPoints:         o.TotalRefPoints,
		RewardPoints:           o.RewardPoints,
		CouponMsg:              o.CouponMsg,
		IsExpiredCoupon:        o.IsExpiredCoupon,
		Lines:                  toLineDTOs(o.Details),
	}
	if len(o.Gifts) > 0 {
		resp.Gifts = toLineDTOs(o.Gifts)
	}
	for _, t := range o.Taxes {
		resp.Taxes = append(resp.Taxes, OrderTaxDTO{Name: t.Name, Rate: t.Rate, Amount: t.Amount})
	}
	if !o.UpdatedAt.IsZero() {
		at := o.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}

// TaxInput 是一个税种，Value 为百分比字符串
type TaxInput struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Active bool   `json:"active"`
}

type ShipFeeInput struct {
	City     string `json:"city"`
	District string `json:"district"`
	Fee      int64  `json:"fee"`
}

// StoreConfigRequest 是门店定价配置的全量更新
type StoreConfigRequest struct {
	Taxes    []TaxInput        `json:"taxes"`
	ShipFees []ShipFeeInput    `json:"ship_fees"`
	Params   map[string]string `json:"params"`
}
