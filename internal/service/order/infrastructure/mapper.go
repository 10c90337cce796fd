package infrastructure

import (
	"storefront/internal/service/order/domain"
)

func toDetailModel(orderID string, d domain.OrderDetail) OrderDetailModel {
	return OrderDetailModel{
		ID:                    d.ID,
		OrderID:               orderID,
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
		FlashSaleDetailID:     d.FlashSaleDetailID,
		PromotionDetailID:     d.PromotionDetailID,
		PromotionGiftDetailID: d.PromotionGiftDetailID,
		IsOutOfStockFlashSale: d.IsOutOfStockFlashSale,
		RefPoints:             d.RefPoints,
	}
}

func toDetail(m OrderDetailModel) domain.OrderDetail {
	return domain.OrderDetail{
		ID:                    m.ID,
		LineNo:                m.LineNo,
		ParentLineNo:          m.ParentLineNo,
		ProductID:             m.ProductID,
		VariationID:           m.VariationID,
		Price:                 m.Price,
		FinalPrice:            m.FinalPrice,
		Discount:              m.Discount,
		DiscountCoupon:        m.DiscountCoupon,
		DiscountFlashSale:     m.DiscountFlashSale,
		Quantity:              m.Quantity,
		IsGift:                m.IsGift,
		FlashSaleDetailID:     m.FlashSaleDetailID,
		PromotionDetailID:     m.PromotionDetailID,
		PromotionGiftDetailID: m.PromotionGiftDetailID,
		IsOutOfStockFlashSale: m.IsOutOfStockFlashSale,
		RefPoints:             m.RefPoints,
	}
}

func toLogModel(orderID string, l domain.OrderLog) OrderLogModel {
	return OrderLogModel{
		ID:         l.ID,
		OrderID:    orderID,
		FromStatus: string(l.From),
		ToStatus:   string(l.To),
		Note:       l.Note,
		CreatedAt:  l.At,
	}
}

// FromDomainOrder 把订单聚合转换为带关联的模型。
func FromDomainOrder(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:                      o.ID,
		Code:                    o.Code,
		StoreID:                 o.StoreID,
		CustomerID:              o.CustomerID,
		Status:                  string(o.Status),
		PaymentStatus:           string(o.PaymentStatus),
		DeliveryStatus:          string(o.DeliveryStatus),
		PaymentMethod:           string(o.PaymentMethod),
		DeliveryMethod:          string(o.DeliveryMethod),
		City:                    o.City,
		District:                o.District,
		Address:                 o.Address,
		Note:                    o.Note,
		MoneyProductOrigin:      o.MoneyProductOrigin,
		MoneyProduct:            o.MoneyProduct,
		MoneyVat:                o.MoneyVat,
		ShipFee:                 o.ShipFee,
		MoneyDiscount:           o.MoneyDiscount,
		MoneyDiscountCoupon:     o.MoneyDiscountCoupon,
		MoneyDiscountShipFee:    o.MoneyDiscountShipFee,
		MoneyDiscountFlashSale:  o.MoneyDiscountFlashSale,
		TotalMoneyDiscount:      o.TotalMoneyDiscount,
		MoneyFinal:              o.MoneyFinal,
		TotalPoints:             o.TotalPoints,
		TotalRefPoints:          o.TotalRefPoints,
		PointRate:               o.PointRate,
		RewardPoints:            o.RewardPoints,
		CouponMsg:               o.CouponMsg,
		IsExpiredCoupon:         o.IsExpiredCoupon,
		CouponCampaignID:        o.CouponCampaignID,
		CustomerCouponID:        o.CustomerCouponID,
		CustomerCouponCode:      o.CustomerCouponCode,
		PromotionIDs:            o.PromotionIDs,
		RewardCouponCampaignIDs: o.RewardCouponCampaignIDs,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,
	}
	for _, d := range o.AllLines() {
		m.Details = append(m.Details, toDetailModel(o.ID, d))
	}
	if r := o.Receipt; r != nil {
		m.Receipt = &OrderReceiptModel{OrderID: o.ID, CompanyName: r.CompanyName, TaxCode: r.TaxCode, Address: r.Address, Email: r.Email}
	}
	for _, t := range o.Taxes {
		m.Taxes = append(m.Taxes, OrderTaxModel{OrderID: o.ID, TaxID: t.TaxID, Name: t.Name, Rate: t.Rate, Amount: t.Amount})
	}
	for _, l := range o.Logs {
		m.Logs = append(m.Logs, toLogModel(o.ID, l))
	}
	return m
}

// ToDomainOrder 把模型还原为订单聚合，赠品行按 IsGift 拆分。
func ToDomainOrder(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID:                      m.ID,
		Code:                    m.Code,
		StoreID:                 m.StoreID,
		CustomerID:              m.CustomerID,
		Status:                  domain.Status(m.Status),
		PaymentStatus:           domain.PaymentStatus(m.PaymentStatus),
		DeliveryStatus:          domain.DeliveryStatus(m.DeliveryStatus),
		PaymentMethod:           domain.PaymentMethod(m.PaymentMethod),
		DeliveryMethod:          domain.DeliveryMethod(m.DeliveryMethod),
		City:                    m.City,
		District:                m.District,
		Address:                 m.Address,
		Note:                    m.Note,
		MoneyProductOrigin:      m.MoneyProductOrigin,
		MoneyProduct:            m.MoneyProduct,
		MoneyVat:                m.MoneyVat,
		ShipFee:                 m.ShipFee,
		MoneyDiscount:           m.MoneyDiscount,
		MoneyDiscountCoupon:     m.MoneyDiscountCoupon,
		MoneyDiscountShipFee:    m.MoneyDiscountShipFee,
		MoneyDiscountFlashSale:  m.MoneyDiscountFlashSale,
		TotalMoneyDiscount:      m.TotalMoneyDiscount,
		MoneyFinal:              m.MoneyFinal,
		TotalPoints:             m.TotalPoints,
		TotalRefPoints:          m.TotalRefPoints,
		PointRate:               m.PointRate,
		RewardPoints:            m.RewardPoints,
		CouponMsg:               m.CouponMsg,
		IsExpiredCoupon:         m.IsExpiredCoupon,
		CouponCampaignID:        m.CouponCampaignID,
		CustomerCouponID:        m.CustomerCouponID,
		CustomerCouponCode:      m.CustomerCouponCode,
		PromotionIDs:            m.PromotionIDs,
		RewardCouponCampaignIDs: m.RewardCouponCampaignIDs,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
	for _, d := range m.Details {
		if d.IsGift {
			o.Gifts = append(o.Gifts, toDetail(d))
		} else {
			o.Details = append(o.Details, toDetail(d))
		}
	}
	if r := m.Receipt; r != nil {
		o.Receipt = &domain.OrderReceipt{CompanyName: r.CompanyName, TaxCode: r.TaxCode, Address: r.Address, Email: r.Email}
	}
	for _, t := range m.Taxes {
		o.Taxes = append(o.Taxes, domain.OrderTax{TaxID: t.TaxID, Name: t.Name, Rate: t.Rate, Amount: t.Amount})
	}
	for _, l := range m.Logs {
		o.Logs = append(o.Logs, domain.OrderLog{ID: l.ID, From: domain.Status(l.FromStatus), To: domain.Status(l.ToStatus), Note: l.Note, At: l.CreatedAt})
	}
	return o
}
