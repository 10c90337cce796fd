package adapter

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// ProductModel 对应商品服务的 products 表，这里只读
type ProductModel struct {
	ID         int64  `gorm:"primaryKey"`
	StoreID    int64  `gorm:"index"`
	Name       string `gorm:"size:255"`
	Price      int64
	CategoryID int64
	TaxRef     string `gorm:"size:32"`
	Active     bool
}

func (ProductModel) TableName() string {
	return "products"
}

type ProductVariationModel struct {
	ID        int64 `gorm:"primaryKey"`
	ProductID int64 `gorm:"index"`
	Price     int64
}

func (ProductVariationModel) TableName() string {
	return "product_variations"
}

// CategoryModel 中 RefPoint 是推荐积分百分比
type CategoryModel struct {
	ID       int64           `gorm:"primaryKey"`
	RefPoint decimal.Decimal `gorm:"type:decimal(5,2)"`
}

func (CategoryModel) TableName() string {
	return "categories"
}

// CatalogModels 返回商品目录的表，测试中用于建表。
func CatalogModels() []any {
	return []any{&ProductModel{}, &ProductVariationModel{}, &CategoryModel{}}
}

// ProductCatalogGormAdapter 直接读取商品库实现 port.ProductCatalog。
type ProductCatalogGormAdapter struct {
	db *gorm.DB
}

func NewProductCatalogGormAdapter(db *gorm.DB) *ProductCatalogGormAdapter {
	return &ProductCatalogGormAdapter{db: db}
}

func (a *ProductCatalogGormAdapter) GetProduct(ctx context.Context, storeID, productID, variationID int64) (*port.Product, error) {
	db := database.Conn(ctx, a.db)
	var p ProductModel
	err := db.First(&p, "id = ? AND store_id = ? AND active = ?", productID, storeID, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrProductNotFound, productID)
		}
		return nil, pkgerrors.Wrapf(err, "get product %d", productID)
	}
	out := &port.Product{ID: p.ID, StoreID: p.StoreID, Price: p.Price, TaxRef: p.TaxRef}

	if variationID > 0 {
		var v ProductVariationModel
		err := db.First(&v, "id = ? AND product_id = ?", variationID, productID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: variation %d of product %d", domain.ErrProductNotFound, variationID, productID)
			}
			return nil, pkgerrors.Wrapf(err, "get variation %d", variationID)
		}
		out.Price = v.Price
	}

	if p.CategoryID > 0 {
		var c CategoryModel
		err := db.First(&c, "id = ?", p.CategoryID).Error
		switch {
		case err == nil:
			out.CategoryRefPoint = c.RefPoint
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrapf(err, "get category %d", p.CategoryID)
		}
	}
	return out, nil
}
