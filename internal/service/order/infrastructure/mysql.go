package infrastructure

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/pkg/database"
	"storefront/internal/service/order/domain"
)

// MysqlRepository 是 domain.OrderRepository 的 GORM 实现
type MysqlRepository struct {
	db *gorm.DB
}

func NewMysqlRepository(db *gorm.DB) *MysqlRepository {
	return &MysqlRepository{db: db}
}

// Create 连同明细、开票信息、税费与日志一起插入。
func (r *MysqlRepository) Create(ctx context.Context, order *domain.Order) error {
	m := FromDomainOrder(order)
	if err := database.Conn(ctx, r.db).Create(m).Error; err != nil {
		return pkgerrors.Wrapf(err, "create order %s", order.Code)
	}
	// 回写自增 ID，后续 Update 只追加新日志
	var lines, gifts int
	for _, d := range m.Details {
		if d.IsGift {
			order.Gifts[gifts].ID = d.ID
			gifts++
		} else {
			order.Details[lines].ID = d.ID
			lines++
		}
	}
	for i := range m.Logs {
		order.Logs[i].ID = m.Logs[i].ID
	}
	return nil
}

// Update 只写状态相关字段，并插入 ID 为 0 的新日志。
func (r *MysqlRepository) Update(ctx context.Context, order *domain.Order) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&OrderModel{ID: order.ID}).Updates(map[string]any{
			"status":          string(order.Status),
			"payment_status":  string(order.PaymentStatus),
			"delivery_status": string(order.DeliveryStatus),
			"updated_at":      order.UpdatedAt,
		})
		if res.Error != nil {
			return pkgerrors.Wrapf(res.Error, "update order %s", order.Code)
		}
		if res.RowsAffected == 0 {
			return domain.ErrOrderNotFound
		}
		for i := range order.Logs {
			if order.Logs[i].ID != 0 {
				continue
			}
			l := toLogModel(order.ID, order.Logs[i])
			if err := tx.Create(&l).Error; err != nil {
				return pkgerrors.Wrap(err, "append order log")
			}
			order.Logs[i].ID = l.ID
		}
		return nil
	})
}

func (r *MysqlRepository) GetByCode(ctx context.Context, storeID int64, code string, forUpdate bool) (*domain.Order, error) {
	q := database.Conn(ctx, r.db)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m OrderModel
	err := q.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Preload("Receipt").
		Preload("Taxes").
		Preload("Logs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&m, "store_id = ? AND code = ?", storeID, code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, pkgerrors.Wrapf(err, "get order %s", code)
	}
	return ToDomainOrder(&m), nil
}
