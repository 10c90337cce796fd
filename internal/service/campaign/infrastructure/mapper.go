package infrastructure

import (
	"storefront/internal/service/campaign/domain"
)

func ToDomainCouponCampaign(m *CouponCampaignModel) *domain.CouponCampaign {
	if m == nil {
		return nil
	}
	c := &domain.CouponCampaign{
		ID:               m.ID,
		StoreID:          m.StoreID,
		Name:             m.Name,
		Type:             domain.CouponType(m.Type),
		ConditionType:    domain.ConditionType(m.ConditionType),
		DiscountType:     domain.DiscountType(m.DiscountType),
		ApplyFor:         domain.ApplyFor(m.ApplyFor),
		Window:           domain.TimeWindow{StartAt: m.StartAt, EndAt: m.EndAt},
		ConditionValue:   m.ConditionValue,
		DiscountValue:    m.DiscountValue,
		DiscountMaxValue: m.DiscountMaxValue,
		EligibilityRule:  m.EligibilityRule,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	for _, d := range m.Details {
		c.Details = append(c.Details, domain.CouponCampaignDetail{
			ID: d.ID, CampaignID: d.CampaignID, ProductID: d.ProductID,
			IsGift: d.IsGift, Needed: d.Needed, Quantity: d.Quantity,
		})
	}
	return c
}

func FromDomainCouponCampaign(c *domain.CouponCampaign) *CouponCampaignModel {
	m := &CouponCampaignModel{
		ID:               c.ID,
		StoreID:          c.StoreID,
		Name:             c.Name,
		Type:             string(c.Type),
		ConditionType:    string(c.ConditionType),
		DiscountType:     string(c.DiscountType),
		ApplyFor:         string(c.ApplyFor),
		StartAt:          c.Window.StartAt,
		EndAt:            c.Window.EndAt,
		ConditionValue:   c.ConditionValue,
		DiscountValue:    c.DiscountValue,
		DiscountMaxValue: c.DiscountMaxValue,
		EligibilityRule:  c.EligibilityRule,
		CreatedAt:        c.CreatedAt,
	}
	for _, d := range c.Details {
		m.Details = append(m.Details, CouponCampaignDetailModel{
			ID: d.ID, CampaignID: c.ID, ProductID: d.ProductID,
			IsGift: d.IsGift, Needed: d.Needed, Quantity: d.Quantity,
		})
	}
	return m
}

func ToDomainCustomerCoupon(m *CustomerCouponModel) *domain.CustomerCoupon {
	if m == nil {
		return nil
	}
	return &domain.CustomerCoupon{
		ID:          m.ID,
		Code:        m.Code,
		CampaignID:  m.CampaignID,
		CustomerID:  m.CustomerID,
		IsUsed:      m.IsUsed,
		UsedOrderID: m.UsedOrderID,
		OrderID:     m.OrderID,
		ExpiredAt:   m.ExpiredAt,
		CreatedAt:   m.CreatedAt,
	}
}

func FromDomainCustomerCoupon(c *domain.CustomerCoupon) *CustomerCouponModel {
	return &CustomerCouponModel{
		ID:          c.ID,
		Code:        c.Code,
		CampaignID:  c.CampaignID,
		CustomerID:  c.CustomerID,
		IsUsed:      c.IsUsed,
		UsedOrderID: c.UsedOrderID,
		OrderID:     c.OrderID,
		ExpiredAt:   c.ExpiredAt,
	}
}

func ToDomainPromotion(m *PromotionCampaignModel) *domain.PromotionCampaign {
	if m == nil {
		return nil
	}
	p := &domain.PromotionCampaign{
		ID:               m.ID,
		StoreID:          m.StoreID,
		Name:             m.Name,
		ConditionType:    domain.ConditionType(m.ConditionType),
		DiscountType:     domain.DiscountType(m.DiscountType),
		Window:           domain.TimeWindow{StartAt: m.StartAt, EndAt: m.EndAt},
		ConditionValue:   m.ConditionValue,
		DiscountValue:    m.DiscountValue,
		DiscountMaxValue: m.DiscountMaxValue,
		CouponCampaignID: m.CouponCampaignID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	for _, d := range m.Details {
		p.Details = append(p.Details, domain.PromotionCampaignDetail{
			ID: d.ID, CampaignID: d.CampaignID, ProductID: d.ProductID, IsGift: d.IsGift,
			Needed: d.Needed, Quantity: d.Quantity, Price: d.Price, FinalPrice: d.FinalPrice,
		})
	}
	return p
}

func FromDomainPromotion(p *domain.PromotionCampaign) *PromotionCampaignModel {
	m := &PromotionCampaignModel{
		ID:               p.ID,
		StoreID:          p.StoreID,
		Name:             p.Name,
		ConditionType:    string(p.ConditionType),
		DiscountType:     string(p.DiscountType),
		StartAt:          p.Window.StartAt,
		EndAt:            p.Window.EndAt,
		ConditionValue:   p.ConditionValue,
		DiscountValue:    p.DiscountValue,
		DiscountMaxValue: p.DiscountMaxValue,
		CouponCampaignID: p.CouponCampaignID,
		CreatedAt:        p.CreatedAt,
	}
	for _, d := range p.Details {
		m.Details = append(m.Details, PromotionCampaignDetailModel{
			ID: d.ID, CampaignID: p.ID, ProductID: d.ProductID, IsGift: d.IsGift,
			Needed: d.Needed, Quantity: d.Quantity, Price: d.Price, FinalPrice: d.FinalPrice,
		})
	}
	return m
}

func ToDomainFlashSale(m *FlashSaleCampaignModel) *domain.FlashSaleCampaign {
	if m == nil {
		return nil
	}
	f := &domain.FlashSaleCampaign{
		ID:        m.ID,
		StoreID:   m.StoreID,
		Name:      m.Name,
		Window:    domain.TimeWindow{StartAt: m.StartAt, EndAt: m.EndAt},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for _, d := range m.Details {
		f.Details = append(f.Details, domain.FlashSaleCampaignDetail{
			ID: d.ID, CampaignID: d.CampaignID, ProductID: d.ProductID, Price: d.Price,
			Stock: d.Stock, Pending: d.Pending, Sold: d.Sold,
		})
	}
	return f
}

// FromDomainFlashSale 只映射头部字段，明细由仓储单独处理以保护计数器。
func FromDomainFlashSale(f *domain.FlashSaleCampaign) *FlashSaleCampaignModel {
	return &FlashSaleCampaignModel{
		ID:        f.ID,
		StoreID:   f.StoreID,
		Name:      f.Name,
		StartAt:   f.Window.StartAt,
		EndAt:     f.Window.EndAt,
		CreatedAt: f.CreatedAt,
	}
}
