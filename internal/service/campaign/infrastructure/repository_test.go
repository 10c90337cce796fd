package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/pkg/database"
	"storefront/internal/service/campaign/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(context.Background(), db, Models()...))
	return db
}

var testWindow = domain.TimeWindow{
	StartAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	EndAt:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
}

func seedFlashSale(t *testing.T, repo *GormFlashSaleRepository, stock, pending int64) int64 {
	t.Helper()
	fs := &domain.FlashSaleCampaign{
		StoreID: 1,
		Name:    "midnight",
		Window:  testWindow,
		Details: []domain.FlashSaleCampaignDetail{{ProductID: 10, Price: 50000, Stock: stock}},
	}
	require.NoError(t, repo.Save(context.Background(), fs))
	detailID := fs.Details[0].ID
	if pending > 0 {
		require.NoError(t, repo.Reserve(context.Background(), detailID, pending))
	}
	return detailID
}

func loadDetail(t *testing.T, db *gorm.DB, id int64) FlashSaleCampaignDetailModel {
	t.Helper()
	var m FlashSaleCampaignDetailModel
	require.NoError(t, db.First(&m, id).Error)
	return m
}

func TestFlashSaleReserveRejectsOversell(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFlashSaleRepository(db)
	id := seedFlashSale(t, repo, 10, 8)

	err := repo.Reserve(context.Background(), id, 3)

	assert.ErrorIs(t, err, domain.ErrFlashSaleOutOfStock)
	m := loadDetail(t, db, id)
	assert.Equal(t, int64(8), m.Pending)
	assert.Equal(t, int64(0), m.Sold)
}

func TestFlashSaleCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFlashSaleRepository(db)
	ctx := context.Background()
	id := seedFlashSale(t, repo, 10, 0)

	require.NoError(t, repo.Reserve(ctx, id, 2))
	require.NoError(t, repo.Reserve(ctx, id, 3))
	require.NoError(t, repo.Commit(ctx, id, 2))
	require.NoError(t, repo.Release(ctx, id, 3))
	m := loadDetail(t, db, id)
	assert.Equal(t, int64(0), m.Pending)
	assert.Equal(t, int64(2), m.Sold)

	require.NoError(t, repo.ReverseCommit(ctx, id, 2))
	assert.ErrorIs(t, repo.ReverseCommit(ctx, id, 1), domain.ErrFlashSaleCounter)
	assert.ErrorIs(t, repo.Release(ctx, 9999, 1), bizerr.ErrNotFound)
}

func TestFlashSaleReserveRollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFlashSaleRepository(db)
	id := seedFlashSale(t, repo, 10, 0)

	boom := errors.New("persist failed")
	err := database.NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, repo.Reserve(ctx, id, 4))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), loadDetail(t, db, id).Pending)
}

func TestFlashSaleSaveProtectsCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFlashSaleRepository(db)
	ctx := context.Background()
	id := seedFlashSale(t, repo, 10, 6)

	fs, err := repo.GetByDetailIDs(ctx, []int64{id})
	require.NoError(t, err)
	require.Len(t, fs, 1)

	fs[0].Details[0].Stock = 5
	assert.ErrorIs(t, repo.Save(ctx, fs[0]), domain.ErrInvalidDiscount)

	fs[0].Details[0].Stock = 20
	require.NoError(t, repo.Save(ctx, fs[0]))
	m := loadDetail(t, db, id)
	assert.Equal(t, int64(20), m.Stock)
	assert.Equal(t, int64(6), m.Pending)

	overlapping, err := repo.FindOverlapping(ctx, 1, domain.TimeWindow{StartAt: testWindow.EndAt, EndAt: testWindow.EndAt.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
}

func TestCustomerCouponUsage(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCouponRepository(db)
	ctx := context.Background()

	campaign := &domain.CouponCampaign{
		StoreID: 1, Name: "welcome", Type: domain.CouponFirstRegister,
		ConditionType: domain.ConditionAllProducts, DiscountType: domain.DiscountFixed,
		ApplyFor: domain.ApplyForAll, Window: testWindow, DiscountValue: decimal.NewFromInt(20000),
	}
	require.NoError(t, repo.SaveCampaign(ctx, campaign))
	coupon := &domain.CustomerCoupon{Code: "WELCOME-1", CampaignID: campaign.ID, CustomerID: 3, ExpiredAt: testWindow.EndAt}
	require.NoError(t, repo.CreateCustomerCoupons(ctx, []*domain.CustomerCoupon{coupon}))

	require.NoError(t, repo.MarkUsed(ctx, coupon.ID, "order-a"))
	assert.ErrorIs(t, repo.MarkUsed(ctx, coupon.ID, "order-b"), domain.ErrCouponAlreadyUsed)

	got, err := repo.GetCustomerCoupon(ctx, "WELCOME-1")
	require.NoError(t, err)
	assert.True(t, got.IsUsed)
	assert.Equal(t, "order-a", got.UsedOrderID)

	reverted, err := repo.RevertUsage(ctx, "order-a")
	require.NoError(t, err)
	assert.True(t, reverted)
	reverted, err = repo.RevertUsage(ctx, "order-a")
	require.NoError(t, err)
	assert.False(t, reverted)

	got, err = repo.GetCustomerCoupon(ctx, "WELCOME-1")
	require.NoError(t, err)
	assert.False(t, got.IsUsed)

	_, err = repo.GetCustomerCoupon(ctx, "missing")
	assert.ErrorIs(t, err, bizerr.ErrNotFound)
}

func TestPromotionLookupByDetail(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPromotionRepository(db)
	ctx := context.Background()

	p := &domain.PromotionCampaign{
		StoreID: 1, Name: "10% shoes", ConditionType: domain.ConditionSomeProducts,
		DiscountType: domain.DiscountPercent, Window: testWindow, DiscountValue: decimal.NewFromInt(10),
		Details: []domain.PromotionCampaignDetail{{ProductID: 5, Price: 100000, FinalPrice: 90000}},
	}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.GetByDetailIDs(ctx, []int64{p.Details[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.True(t, got[0].DiscountValue.Equal(decimal.NewFromInt(10)))

	found, err := repo.FindPercentOnProducts(ctx, 1, testWindow)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = repo.FindPercentOnProducts(ctx, 2, testWindow)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFlashSaleLedgerMatchesDetailRules(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFlashSaleRepository(db)
	ctx := context.Background()
	id := seedFlashSale(t, repo, 10, 0)
	mem := &domain.FlashSaleCampaignDetail{Stock: 10}

	steps := []struct {
		op  string
		qty int64
	}{
		{"reserve", 4}, {"reserve", 7}, {"commit", 3}, {"release", 2}, {"reserve", 8},
		{"reverse", 4}, {"release", 1}, {"reverse", 3}, {"commit", 9}, {"reserve", 0},
	}
	for i, s := range steps {
		var sqlErr, memErr error
		switch s.op {
		case "reserve":
			sqlErr, memErr = repo.Reserve(ctx, id, s.qty), mem.Reserve(s.qty)
		case "commit":
			sqlErr, memErr = repo.Commit(ctx, id, s.qty), mem.Commit(s.qty)
		case "release":
			sqlErr, memErr = repo.Release(ctx, id, s.qty), mem.Release(s.qty)
		case "reverse":
			sqlErr, memErr = repo.ReverseCommit(ctx, id, s.qty), mem.ReverseCommit(s.qty)
		}
		assert.Equal(t, memErr == nil, sqlErr == nil, "step %d %s(%d)", i, s.op, s.qty)
		m := loadDetail(t, db, id)
		assert.Equal(t, mem.Pending, m.Pending, "step %d pending", i)
		assert.Equal(t, mem.Sold, m.Sold, "step %d sold", i)
	}
}
