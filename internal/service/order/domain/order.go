// internal/service/order/domain/order.go
package domain

import (
	"fmt"
	"sort"
	"time"
)

// Order 是订单聚合的根实体，金额均为最小货币单位的整数。
type Order struct {
	ID             string
	Code           string
	StoreID        int64
	CustomerID     int64
	Status         Status
	PaymentStatus  PaymentStatus
	DeliveryStatus DeliveryStatus
	PaymentMethod  PaymentMethod
	DeliveryMethod DeliveryMethod
	City           string
	District       string
	Address        string
	Note           string

	MoneyProductOrigin     int64
	MoneyProduct           int64
	MoneyVat               int64
	ShipFee                int64
	MoneyDiscount          int64
	MoneyDiscountCoupon    int64
	MoneyDiscountShipFee   int64
	MoneyDiscountFlashSale int64
	TotalMoneyDiscount     int64
	MoneyFinal             int64

	TotalPoints    int64
	TotalRefPoints int64
	PointRate      string
	RewardPoints   int64

	// 以下两个字段只用于展示优惠券不适用的原因
	CouponMsg       string
	IsExpiredCoupon bool

	CouponCampaignID   int64
	CustomerCouponID   int64
	CustomerCouponCode string
	PromotionIDs       []int64
	// RewardCouponCampaignIDs 是订单完成时要发放的奖励券活动
	RewardCouponCampaignIDs []int64

	Details []OrderDetail
	Gifts   []OrderDetail
	Receipt *OrderReceipt
	Taxes   []OrderTax
	Logs    []OrderLog

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderDetail 是订单行。赠品行的 ParentLineNo 指向产生它的购买行，订单级赠品为 0。
type OrderDetail struct {
	ID                    int64
	LineNo                int
	ParentLineNo          int
	ProductID             int64
	VariationID           int64
	Price                 int64
	FinalPrice            int64
	Discount              int64
	DiscountCoupon        int64
	DiscountFlashSale     int64
	Quantity              int64
	IsGift                bool
	FlashSaleDetailID     int64
	PromotionDetailID     int64
	PromotionGiftDetailID int64
	IsOutOfStockFlashSale bool
	RefPoints             int64
}

func (d OrderDetail) Amount() int64 {
	return d.FinalPrice * d.Quantity
}

// OrderReceipt 是开票信息
type OrderReceipt struct {
	CompanyName string
	TaxCode     string
	Address     string
	Email       string
}

// OrderTax 是单个税种的计算结果
type OrderTax struct {
	TaxID  int64
	Name   string
	Rate   string
	Amount int64
}

// OrderLog 记录每一次状态流转
type OrderLog struct {
	ID   int64
	From Status
	To   Status
	Note string
	At   time.Time
}

// Reservation 是一个秒杀明细上的预占数量
type Reservation struct {
	DetailID int64
	Quantity int64
}

// Transition 校验并执行状态流转；非法流转返回 ErrInvalidTransition 且不修改订单。
func (o *Order) Transition(to Status, note string, at time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	from := o.Status
	o.Status = to
	switch to {
	case StatusConfirm:
		if o.PaymentMethod == PaymentOnline {
			o.PaymentStatus = PaymentComplete
		}
	case StatusProcessing:
		o.DeliveryStatus = DeliveryPreparing
	case StatusDelivering:
		o.DeliveryStatus = DeliveryShipping
	case StatusComplete:
		o.DeliveryStatus = DeliveryDelivered
		if o.PaymentMethod == PaymentCOD {
			o.PaymentStatus = PaymentComplete
		}
	case StatusReturnRefund:
		o.DeliveryStatus = DeliveryReturned
	}
	o.Logs = append(o.Logs, OrderLog{From: from, To: to, Note: note, At: at})
	o.UpdatedAt = at
	return nil
}

// NeedsBalanceRefund 判断取消或退货时是否需要退回余额。
func (o *Order) NeedsBalanceRefund() bool {
	return o.PaymentMethod == PaymentBalance && o.PaymentStatus == PaymentComplete
}

func (o *Order) MarkRefunded() {
	o.PaymentStatus = PaymentRefunded
}

// FlashSaleReservations 按明细 ID 汇总秒杀数量，按 ID 排序以固定加锁顺序。
func (o *Order) FlashSaleReservations() []Reservation {
	qty := make(map[int64]int64)
	for _, d := range o.Details {
		if d.FlashSaleDetailID > 0 && !d.IsGift {
			qty[d.FlashSaleDetailID] += d.Quantity
		}
	}
	out := make([]Reservation, 0, len(qty))
	for id, q := range qty {
		out = append(out, Reservation{DetailID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetailID < out[j].DetailID })
	return out
}

// FlagOutOfStock 标记使用该秒杀明细的订单行。
func (o *Order) FlagOutOfStock(detailID int64) {
	for i := range o.Details {
		if o.Details[i].FlashSaleDetailID == detailID {
			o.Details[i].IsOutOfStockFlashSale = true
		}
	}
}

// CheckBalance 校验 moneyFinal == moneyProduct + moneyVat + shipFee - totalMoneyDiscount。
func (o *Order) CheckBalance() error {
	want := o.MoneyProduct + o.MoneyVat + o.ShipFee - o.TotalMoneyDiscount
	if o.MoneyFinal != want {
		return fmt.Errorf("%w: final %d, expected %d", ErrUnbalanced, o.MoneyFinal, want)
	}
	return nil
}

// AllLines 返回购买行与赠品行。
func (o *Order) AllLines() []OrderDetail {
	out := make([]OrderDetail, 0, len(o.Details)+len(o.Gifts))
	out = append(out, o.Details...)
	return append(out, o.Gifts...)
}
