package infrastructure

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/campaign/domain"
)

// GormFlashSaleRepository 实现 domain.FlashSaleRepository。
// 计数器的每次变更都是带条件的单行 UPDATE，与外层订单写入共享同一个事务。
type GormFlashSaleRepository struct {
	db *gorm.DB
}

func NewGormFlashSaleRepository(db *gorm.DB) *GormFlashSaleRepository {
	return &GormFlashSaleRepository{db: db}
}

// Reserve: pending += qty，条件 pending + sold + qty <= stock。
func (r *GormFlashSaleRepository) Reserve(ctx context.Context, detailID, qty int64) error {
	if qty <= 0 {
		return domain.ErrFlashSaleCounter
	}
	res := database.Conn(ctx, r.db).Model(&FlashSaleCampaignDetailModel{}).
		Where("id = ? AND pending + sold + ? <= stock", detailID, qty).
		UpdateColumn("pending", gorm.Expr("pending + ?", qty))
	return r.checkAffected(ctx, res, detailID, domain.ErrFlashSaleOutOfStock)
}

// Commit: pending -= qty, sold += qty。
func (r *GormFlashSaleRepository) Commit(ctx context.Context, detailID, qty int64) error {
	if qty <= 0 {
		return domain.ErrFlashSaleCounter
	}
	res := database.Conn(ctx, r.db).Model(&FlashSaleCampaignDetailModel{}).
		Where("id = ? AND pending >= ?", detailID, qty).
		UpdateColumns(map[string]any{
			"pending": gorm.Expr("pending - ?", qty),
			"sold":    gorm.Expr("sold + ?", qty),
		})
	return r.checkAffected(ctx, res, detailID, domain.ErrFlashSaleCounter)
}

func (r *GormFlashSaleRepository) Release(ctx context.Context, detailID, qty int64) error {
	if qty <= 0 {
		return domain.ErrFlashSaleCounter
	}
	res := database.Conn(ctx, r.db).Model(&FlashSaleCampaignDetailModel{}).
		Where("id = ? AND pending >= ?", detailID, qty).
		UpdateColumn("pending", gorm.Expr("pending - ?", qty))
	return r.checkAffected(ctx, res, detailID, domain.ErrFlashSaleCounter)
}

func (r *GormFlashSaleRepository) ReverseCommit(ctx context.Context, detailID, qty int64) error {
	if qty <= 0 {
		return domain.ErrFlashSaleCounter
	}
	res := database.Conn(ctx, r.db).Model(&FlashSaleCampaignDetailModel{}).
		Where("id = ? AND sold >= ?", detailID, qty).
		UpdateColumn("sold", gorm.Expr("sold - ?", qty))
	return r.checkAffected(ctx, res, detailID, domain.ErrFlashSaleCounter)
}

// checkAffected 区分条件不满足与行不存在。
func (r *GormFlashSaleRepository) checkAffected(ctx context.Context, res *gorm.DB, detailID int64, conditionErr error) error {
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "update flash sale detail %d", detailID)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := database.Conn(ctx, r.db).Model(&FlashSaleCampaignDetailModel{}).Where("id = ?", detailID).Count(&n).Error; err != nil {
		return pkgerrors.Wrapf(err, "count flash sale detail %d", detailID)
	}
	if n == 0 {
		return fmt.Errorf("%w: flash sale detail %d", domain.ErrCampaignNotFound, detailID)
	}
	return conditionErr
}

func (r *GormFlashSaleRepository) GetByDetailIDs(ctx context.Context, detailIDs []int64) ([]*domain.FlashSaleCampaign, error) {
	if len(detailIDs) == 0 {
		return nil, nil
	}
	conn := database.Conn(ctx, r.db)
	var campaignIDs []int64
	err := conn.Model(&FlashSaleCampaignDetailModel{}).Where("id IN ?", detailIDs).Distinct().Pluck("campaign_id", &campaignIDs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "resolve flash sale details")
	}
	if len(campaignIDs) == 0 {
		return nil, nil
	}
	var models []FlashSaleCampaignModel
	if err := database.Conn(ctx, r.db).Preload("Details").Where("id IN ?", campaignIDs).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "get flash sales")
	}
	return toDomainFlashSales(models), nil
}

func (r *GormFlashSaleRepository) FindOverlapping(ctx context.Context, storeID int64, w domain.TimeWindow) ([]*domain.FlashSaleCampaign, error) {
	var models []FlashSaleCampaignModel
	err := database.Conn(ctx, r.db).Preload("Details").
		Where("store_id = ? AND start_at <= ? AND end_at >= ?", storeID, w.EndAt, w.StartAt).
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find overlapping flash sales")
	}
	return toDomainFlashSales(models), nil
}

// Save 新建时写入全部明细；更新时只改价格与库存，已有预占或销量的明细不能删除，
// 库存也不能调到 pending + sold 以下。
func (r *GormFlashSaleRepository) Save(ctx context.Context, f *domain.FlashSaleCampaign) error {
	m := FromDomainFlashSale(f)
	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := saveHeader(tx, m, m.ID); err != nil {
			return err
		}
		var existing []FlashSaleCampaignDetailModel
		if err := tx.Where("campaign_id = ?", m.ID).Find(&existing).Error; err != nil {
			return err
		}
		keep := make(map[int64]bool, len(f.Details))
		for i := range f.Details {
			d := &f.Details[i]
			d.CampaignID = m.ID
			if d.ID == 0 {
				row := FlashSaleCampaignDetailModel{CampaignID: m.ID, ProductID: d.ProductID, Price: d.Price, Stock: d.Stock}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				d.ID, d.Pending, d.Sold = row.ID, 0, 0
				keep[row.ID] = true
				continue
			}
			keep[d.ID] = true
			res := tx.Model(&FlashSaleCampaignDetailModel{}).
				Where("id = ? AND campaign_id = ? AND pending + sold <= ?", d.ID, m.ID, d.Stock).
				Updates(map[string]any{"product_id": d.ProductID, "price": d.Price, "stock": d.Stock})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: detail %d stock below reserved quantity", domain.ErrInvalidDiscount, d.ID)
			}
		}
		for _, e := range existing {
			if keep[e.ID] {
				continue
			}
			if e.Pending > 0 || e.Sold > 0 {
				return fmt.Errorf("%w: detail %d has reservations and cannot be removed", domain.ErrInvalidDiscount, e.ID)
			}
			if err := tx.Delete(&FlashSaleCampaignDetailModel{}, e.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDiscount) {
			return err
		}
		return pkgerrors.Wrap(err, "save flash sale")
	}
	f.ID = m.ID
	return nil
}

func toDomainFlashSales(models []FlashSaleCampaignModel) []*domain.FlashSaleCampaign {
	out := make([]*domain.FlashSaleCampaign, 0, len(models))
	for i := range models {
		out = append(out, ToDomainFlashSale(&models[i]))
	}
	return out
}
