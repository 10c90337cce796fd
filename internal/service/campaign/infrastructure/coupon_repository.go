package infrastructure

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/pkg/database"
	"storefront/internal/service/campaign/domain"
)

// GormCouponRepository 是 domain.CouponRepository 的 GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) GetCampaign(ctx context.Context, id int64) (*domain.CouponCampaign, error) {
	var m CouponCampaignModel
	err := database.Conn(ctx, r.db).Preload("Details").First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, pkgerrors.Wrapf(err, "get coupon campaign %d", id)
	}
	return ToDomainCouponCampaign(&m), nil
}

// SaveCampaign 写入头部并整体替换明细。
func (r *GormCouponRepository) SaveCampaign(ctx context.Context, c *domain.CouponCampaign) error {
	m := FromDomainCouponCampaign(c)
	details := m.Details
	m.Details = nil
	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveHeader(tx, m, m.ID); err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", m.ID).Delete(&CouponCampaignDetailModel{}).Error; err != nil {
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
		return pkgerrors.Wrap(err, "save coupon campaign")
	}
	c.ID = m.ID
	for i := range details {
		c.Details[i].ID = details[i].ID
		c.Details[i].CampaignID = m.ID
	}
	return nil
}

// saveHeader 新建时插入，更新时保留 created_at。
func saveHeader(tx *gorm.DB, model any, id int64) error {
	if id == 0 {
		return tx.Omit(clause.Associations).Create(model).Error
	}
	return tx.Omit(clause.Associations, "CreatedAt").Save(model).Error
}

func (r *GormCouponRepository) GetCustomerCoupon(ctx context.Context, code string) (*domain.CustomerCoupon, error) {
	var m CustomerCouponModel
	err := database.Conn(ctx, r.db).First(&m, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerCouponMissing
		}
		return nil, pkgerrors.Wrapf(err, "get customer coupon %s", code)
	}
	return ToDomainCustomerCoupon(&m), nil
}

func (r *GormCouponRepository) CreateCustomerCoupons(ctx context.Context, coupons []*domain.CustomerCoupon) error {
	if len(coupons) == 0 {
		return nil
	}
	models := make([]*CustomerCouponModel, 0, len(coupons))
	for _, c := range coupons {
		models = append(models, FromDomainCustomerCoupon(c))
	}
	if err := database.Conn(ctx, r.db).CreateInBatches(models, 200).Error; err != nil {
		return pkgerrors.Wrap(err, "create customer coupons")
	}
	for i, m := range models {
		coupons[i].ID = m.ID
		coupons[i].CreatedAt = m.CreatedAt
	}
	return nil
}

// MarkUsed 用条件更新保证同一张券不会被两个订单同时消费。
func (r *GormCouponRepository) MarkUsed(ctx context.Context, couponID int64, orderID string) error {
	res := database.Conn(ctx, r.db).Model(&CustomerCouponModel{}).
		Where("id = ? AND is_used = ?", couponID, false).
		Updates(map[string]any{"is_used": true, "used_order_id": orderID})
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "mark coupon %d used", couponID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponAlreadyUsed
	}
	return nil
}

func (r *GormCouponRepository) RevertUsage(ctx context.Context, orderID string) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&CustomerCouponModel{}).
		Where("used_order_id = ? AND is_used = ?", orderID, true).
		Updates(map[string]any{"is_used": false, "used_order_id": ""})
	if res.Error != nil {
		return false, pkgerrors.Wrapf(res.Error, "revert coupon of order %s", orderID)
	}
	return res.RowsAffected > 0, nil
}
