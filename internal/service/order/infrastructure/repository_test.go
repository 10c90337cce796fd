package infrastructure

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/pkg/database"
	"storefront/internal/service/order/domain"
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

var createdAt = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:                      "8f1c0b0e-0000-4000-8000-000000000001",
		Code:                    "OD260501100001",
		StoreID:                 1,
		CustomerID:              7,
		Status:                  domain.StatusPending,
		PaymentStatus:           domain.PaymentPending,
		PaymentMethod:           domain.PaymentCOD,
		DeliveryMethod:          domain.DeliveryStandard,
		City:                    "hanoi",
		MoneyProductOrigin:      200000,
		MoneyProduct:            160000,
		MoneyVat:                16000,
		ShipFee:                 30000,
		MoneyDiscountFlashSale:  40000,
		MoneyFinal:              206000,
		PointRate:               "0.01",
		TotalPoints:             2060,
		PromotionIDs:            []int64{16},
		RewardCouponCampaignIDs: []int64{22},
		Details: []domain.OrderDetail{
			{LineNo: 1, ProductID: 1, Price: 100000, FinalPrice: 80000, DiscountFlashSale: 20000, Quantity: 2, FlashSaleDetailID: 31},
		},
		Gifts: []domain.OrderDetail{
			{LineNo: 2, ProductID: 3, Quantity: 1, IsGift: true, PromotionGiftDetailID: 161},
		},
		Receipt:   &domain.OrderReceipt{CompanyName: "ACME", TaxCode: "0101"},
		Taxes:     []domain.OrderTax{{TaxID: 1, Name: "vat", Rate: "10", Amount: 16000}},
		Logs:      []domain.OrderLog{{To: domain.StatusPending, Note: "order created", At: createdAt}},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMysqlRepository(newTestDB(t))
	o := sampleOrder()

	require.NoError(t, repo.Create(ctx, o))
	assert.NotZero(t, o.Details[0].ID)
	assert.NotZero(t, o.Gifts[0].ID)
	assert.NotZero(t, o.Logs[0].ID)

	got, err := repo.GetByCode(ctx, 1, o.Code, false)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, int64(206000), got.MoneyFinal)
	assert.Equal(t, []int64{16}, got.PromotionIDs)
	assert.Equal(t, []int64{22}, got.RewardCouponCampaignIDs)
	require.Len(t, got.Details, 1)
	require.Len(t, got.Gifts, 1)
	assert.Equal(t, int64(31), got.Details[0].FlashSaleDetailID)
	assert.True(t, got.Gifts[0].IsGift)
	require.NotNil(t, got.Receipt)
	assert.Equal(t, "ACME", got.Receipt.CompanyName)
	require.Len(t, got.Taxes, 1)
	assert.Equal(t, "10", got.Taxes[0].Rate)
	assert.Equal(t, []domain.Reservation{{DetailID: 31, Quantity: 2}}, got.FlashSaleReservations())

	_, err = repo.GetByCode(ctx, 2, o.Code, false)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepositoryUpdateAppendsLogs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewMysqlRepository(db)
	tx := database.NewTransactor(db)
	require.NoError(t, repo.Create(ctx, sampleOrder()))

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := repo.GetByCode(ctx, 1, "OD260501100001", true)
		if err != nil {
			return err
		}
		if err := o.Transition(domain.StatusConfirm, "ok", createdAt.Add(time.Hour)); err != nil {
			return err
		}
		return repo.Update(ctx, o)
	})
	require.NoError(t, err)

	got, err := repo.GetByCode(ctx, 1, "OD260501100001", false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirm, got.Status)
	require.Len(t, got.Logs, 2)
	assert.Equal(t, domain.StatusPending, got.Logs[1].From)
	assert.Equal(t, domain.StatusConfirm, got.Logs[1].To)
	assert.Equal(t, "ok", got.Logs[1].Note)
}

func TestOrderRepositoryUpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewMysqlRepository(db)
	tx := database.NewTransactor(db)
	require.NoError(t, repo.Create(ctx, sampleOrder()))
	boom := errors.New("ledger unavailable")

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := repo.GetByCode(ctx, 1, "OD260501100001", true)
		if err != nil {
			return err
		}
		if err := o.Transition(domain.StatusCancel, "", createdAt); err != nil {
			return err
		}
		if err := repo.Update(ctx, o); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByCode(ctx, 1, "OD260501100001", false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Len(t, got.Logs, 1)
}

func TestOrderRepositoryUpdateMissing(t *testing.T) {
	repo := NewMysqlRepository(newTestDB(t))
	err := repo.Update(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestStoreConfigRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormStoreConfigRepository(newTestDB(t))

	empty, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Taxes)
	assert.Equal(t, int64(30000), empty.ShipFeeFor("hanoi", "", 30000))

	cfg := &domain.StoreConfig{
		StoreID:  1,
		Taxes:    []domain.ProductTax{{Name: "vat", Value: decimal.RequireFromString("8.5"), Active: true}},
		ShipFees: []domain.ShipFeeRule{{City: "hanoi", District: "ba-dinh", Fee: 15000}},
		Params:   map[string]string{domain.ParamRewardPoints: "20"},
	}
	require.NoError(t, repo.Save(ctx, cfg))

	// 第二次保存整体替换
	cfg.Taxes = append(cfg.Taxes, domain.ProductTax{Name: "env", Value: decimal.NewFromInt(1)})
	require.NoError(t, repo.Save(ctx, cfg))

	got, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Taxes, 2)
	assert.True(t, decimal.RequireFromString("8.5").Equal(got.Taxes[0].Value))
	assert.Len(t, got.ActiveTaxes(), 1)
	assert.Equal(t, int64(15000), got.ShipFeeFor("hanoi", "ba-dinh", 30000))
	assert.Equal(t, int64(20), got.RewardPoints())

	other, err := repo.Load(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other.Params)
}

type countingRepo struct {
	loads atomic.Int32
	gate  chan struct{}
	cfg   *domain.StoreConfig
}

func (r *countingRepo) Load(_ context.Context, storeID int64) (*domain.StoreConfig, error) {
	r.loads.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	return &domain.StoreConfig{StoreID: storeID, Params: r.cfg.Params}, nil
}

func (r *countingRepo) Save(context.Context, *domain.StoreConfig) error { return nil }

func TestStoreConfigSnapshotCachesAndRefreshes(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{cfg: &domain.StoreConfig{Params: map[string]string{domain.ParamRewardPoints: "1"}}}
	cache := NewStoreConfigSnapshot(repo)

	first, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	second, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), repo.loads.Load())

	repo.cfg = &domain.StoreConfig{Params: map[string]string{domain.ParamRewardPoints: "2"}}
	require.NoError(t, cache.Refresh(ctx, 1))

	third, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.RewardPoints())
	assert.Equal(t, int32(2), repo.loads.Load())
}

func TestStoreConfigSnapshotCoalescesMisses(t *testing.T) {
	repo := &countingRepo{gate: make(chan struct{}), cfg: &domain.StoreConfig{}}
	cache := NewStoreConfigSnapshot(repo)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	// 等所有请求都进入 singleflight 后再放行
	require.Eventually(t, func() bool { return repo.loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	assert.Equal(t, int32(1), repo.loads.Load())
}
