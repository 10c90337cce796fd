package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/campaign/domain"
)

// GormPromotionRepository 是 domain.PromotionRepository 的 GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

func (r *GormPromotionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.PromotionCampaign, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []PromotionCampaignModel
	if err := database.Conn(ctx, r.db).Preload("Details").Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "get promotions")
	}
	out := make([]*domain.PromotionCampaign, 0, len(models))
	for i := range models {
		out = append(out, ToDomainPromotion(&models[i]))
	}
	return out, nil
}

func (r *GormPromotionRepository) GetByDetailIDs(ctx context.Context, detailIDs []int64) ([]*domain.PromotionCampaign, error) {
	if len(detailIDs) == 0 {
		return nil, nil
	}
	var campaignIDs []int64
	err := database.Conn(ctx, r.db).Model(&PromotionCampaignDetailModel{}).
		Where("id IN ?", detailIDs).Distinct().Pluck("campaign_id", &campaignIDs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "resolve promotion details")
	}
	return r.GetByIDs(ctx, campaignIDs)
}

func (r *GormPromotionRepository) Save(ctx context.Context, p *domain.PromotionCampaign) error {
	m := FromDomainPromotion(p)
	details := m.Details
	m.Details = nil
	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveHeader(tx, m, m.ID); err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", m.ID).Delete(&PromotionCampaignDetailModel{}).Error; err != nil {
			return err
		}
		for i := range details {
			details[i].ID = 0
			details[i].CampaignID = m.ID
		}
		if len(details) > 0 {
			return tx.Create(&details).Error
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(err, "save promotion")
	}
	p.ID = m.ID
	for i := range details {
		p.Details[i].ID = details[i].ID
		p.Details[i].CampaignID = m.ID
	}
	return nil
}

func (r *GormPromotionRepository) FindPercentOnProducts(ctx context.Context, storeID int64, w domain.TimeWindow) ([]*domain.PromotionCampaign, error) {
	var models []PromotionCampaignModel
	err := database.Conn(ctx, r.db).Preload("Details").
		Where("store_id = ? AND discount_type = ? AND condition_type = ?",
			storeID, string(domain.DiscountPercent), string(domain.ConditionSomeProducts)).
		Where("start_at <= ? AND end_at >= ?", w.EndAt, w.StartAt).
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find percent promotions")
	}
	out := make([]*domain.PromotionCampaign, 0, len(models))
	for i := range models {
		out = append(out, ToDomainPromotion(&models[i]))
	}
	return out, nil
}
