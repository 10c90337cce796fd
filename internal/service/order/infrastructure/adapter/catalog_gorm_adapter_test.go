package adapter

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/service/order/domain"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(CatalogModels()...))

	require.NoError(t, db.Create(&CategoryModel{ID: 4, RefPoint: decimal.RequireFromString("1.5")}).Error)
	require.NoError(t, db.Create(&[]ProductModel{
		{ID: 1, StoreID: 1, Name: "tea", Price: 100000, CategoryID: 4, TaxRef: "vat", Active: true},
		{ID: 2, StoreID: 1, Name: "retired", Price: 5000, Active: false},
	}).Error)
	require.NoError(t, db.Create(&ProductVariationModel{ID: 11, ProductID: 1, Price: 120000}).Error)
	return db
}

func TestGetProduct(t *testing.T) {
	a := NewProductCatalogGormAdapter(newCatalogDB(t))
	ctx := context.Background()

	p, err := a.GetProduct(ctx, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), p.Price)
	assert.Equal(t, "vat", p.TaxRef)
	assert.True(t, decimal.RequireFromString("1.5").Equal(p.CategoryRefPoint))

	v, err := a.GetProduct(ctx, 1, 1, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), v.Price)
}

func TestGetProductNotFound(t *testing.T) {
	a := NewProductCatalogGormAdapter(newCatalogDB(t))
	ctx := context.Background()

	cases := []struct {
		name                 string
		store, id, variation int64
	}{
		{name: "other store", store: 2, id: 1},
		{name: "inactive", store: 1, id: 2},
		{name: "unknown variation", store: 1, id: 1, variation: 99},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := a.GetProduct(ctx, c.store, c.id, c.variation)
			assert.ErrorIs(t, err, domain.ErrProductNotFound)
		})
	}
}
