package infrastructure

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/order/domain"
)

// GormStoreConfigRepository 读写 store_params、product_taxes 与 ship_fees。
type GormStoreConfigRepository struct {
	db *gorm.DB
}

func NewGormStoreConfigRepository(db *gorm.DB) *GormStoreConfigRepository {
	return &GormStoreConfigRepository{db: db}
}

// Load 读取门店配置；没有任何配置的门店返回空快照而不是错误。
func (r *GormStoreConfigRepository) Load(ctx context.Context, storeID int64) (*domain.StoreConfig, error) {
	db := database.Conn(ctx, r.db)
	var (
		params []StoreParamModel
		taxes  []ProductTaxModel
		fees   []ShipFeeModel
	)
	if err := db.Where("store_id = ?", storeID).Find(&params).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load store params")
	}
	if err := db.Where("store_id = ?", storeID).Order("id").Find(&taxes).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load product taxes")
	}
	if err := db.Where("store_id = ?", storeID).Order("id").Find(&fees).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load ship fees")
	}

	cfg := &domain.StoreConfig{StoreID: storeID, Params: make(map[string]string, len(params)), LoadedAt: time.Now().UTC()}
	for _, p := range params {
		cfg.Params[p.Name] = p.Value
	}
	for _, t := range taxes {
		cfg.Taxes = append(cfg.Taxes, domain.ProductTax{ID: t.ID, Name: t.Name, Value: t.Value, Active: t.Active})
	}
	for _, f := range fees {
		cfg.ShipFees = append(cfg.ShipFees, domain.ShipFeeRule{City: f.City, District: f.District, Fee: f.Fee})
	}
	return cfg, nil
}

// Save 整体替换门店配置。
func (r *GormStoreConfigRepository) Save(ctx context.Context, cfg *domain.StoreConfig) error {
	err := database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&StoreParamModel{}, &ProductTaxModel{}, &ShipFeeModel{}} {
			if err := tx.Where("store_id = ?", cfg.StoreID).Delete(m).Error; err != nil {
				return err
			}
		}
		var params []StoreParamModel
		for k, v := range cfg.Params {
			params = append(params, StoreParamModel{StoreID: cfg.StoreID, Name: k, Value: v})
		}
		var taxes []ProductTaxModel
		for _, t := range cfg.Taxes {
			taxes = append(taxes, ProductTaxModel{StoreID: cfg.StoreID, Name: t.Name, Value: t.Value, Active: t.Active})
		}
		var fees []ShipFeeModel
		for _, f := range cfg.ShipFees {
			fees = append(fees, ShipFeeModel{StoreID: cfg.StoreID, City: f.City, District: f.District, Fee: f.Fee})
		}
		if len(params) > 0 {
			if err := tx.Create(&params).Error; err != nil {
				return err
			}
		}
		if len(taxes) > 0 {
			if err := tx.Create(&taxes).Error; err != nil {
				return err
			}
		}
		if len(fees) > 0 {
			return tx.Create(&fees).Error
		}
		return nil
	})
	return pkgerrors.Wrapf(err, "save store config %d", cfg.StoreID)
}
