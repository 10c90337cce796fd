package application

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	campaign "storefront/internal/service/campaign/domain"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

var (
	testNow    = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	openWindow = campaign.TimeWindow{StartAt: testNow.Add(-24 * time.Hour), EndAt: testNow.Add(24 * time.Hour)}
	pastWindow = campaign.TimeWindow{StartAt: testNow.Add(-48 * time.Hour), EndAt: testNow.Add(-24 * time.Hour)}
	testTracer = otel.Tracer("order-test")
)

const testStore int64 = 1

// rollbacker 在 memTx 回滚时恢复内存状态
type rollbacker interface {
	snapshot() (restore func())
}

type memTx struct {
	parts []rollbacker
}

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), 0, len(t.parts))
	for _, p := range t.parts {
		restores = append(restores, p.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, r := range restores {
			r()
		}
		return err
	}
	return nil
}

type memProducts map[int64]*port.Product

func (m memProducts) GetProduct(_ context.Context, storeID, productID, _ int64) (*port.Product, error) {
	p, ok := m[productID]
	if !ok || p.StoreID != storeID {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

type memCampaigns struct {
	promotions      []*campaign.PromotionCampaign
	flashSales      []*campaign.FlashSaleCampaign
	couponCampaigns map[int64]*campaign.CouponCampaign
	coupons         map[string]*campaign.CustomerCoupon
}

func (m *memCampaigns) Promotions(_ context.Context, ids []int64) ([]*campaign.PromotionCampaign, error) {
	var out []*campaign.PromotionCampaign
	for _, p := range m.promotions {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCampaigns) PromotionsByDetail(_ context.Context, detailIDs []int64) ([]*campaign.PromotionCampaign, error) {
	var out []*campaign.PromotionCampaign
	for _, p := range m.promotions {
		for _, id := range detailIDs {
			if _, ok := p.Detail(id); ok {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (m *memCampaigns) FlashSalesByDetail(context.Context, []int64) ([]*campaign.FlashSaleCampaign, error) {
	return m.flashSales, nil
}

func (m *memCampaigns) CouponCampaign(_ context.Context, id int64) (*campaign.CouponCampaign, error) {
	c, ok := m.couponCampaigns[id]
	if !ok {
		return nil, campaign.ErrCampaignNotFound
	}
	return c, nil
}

func (m *memCampaigns) CustomerCoupon(_ context.Context, code string) (*campaign.CustomerCoupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return nil, campaign.ErrCustomerCouponMissing
	}
	cp := *c
	return &cp, nil
}

type staticConfig struct{ cfg *domain.StoreConfig }

func (s staticConfig) Get(context.Context, int64) (*domain.StoreConfig, error) {
	return s.cfg, nil
}

// memFlashSales 用领域对象的计数器方法模拟原子条件更新
type memFlashSales struct {
	mu      sync.Mutex
	details map[int64]*campaign.FlashSaleCampaignDetail
}

func (m *memFlashSales) apply(detailID int64, op func(d *campaign.FlashSaleCampaignDetail) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[detailID]
	if !ok {
		return campaign.ErrCampaignNotFound
	}
	return op(d)
}

func (m *memFlashSales) Reserve(_ context.Context, id, qty int64) error {
	return m.apply(id, func(d *campaign.FlashSaleCampaignDetail) error { return d.Reserve(qty) })
}
func (m *memFlashSales) Commit(_ context.Context, id, qty int64) error {
	return m.apply(id, func(d *campaign.FlashSaleCampaignDetail) error { return d.Commit(qty) })
}
func (m *memFlashSales) Release(_ context.Context, id, qty int64) error {
	return m.apply(id, func(d *campaign.FlashSaleCampaignDetail) error { return d.Release(qty) })
}
func (m *memFlashSales) ReverseCommit(_ context.Context, id, qty int64) error {
	return m.apply(id, func(d *campaign.FlashSaleCampaignDetail) error { return d.ReverseCommit(qty) })
}

func (m *memFlashSales) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[int64]campaign.FlashSaleCampaignDetail, len(m.details))
	for id, d := range m.details {
		saved[id] = *d
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for id, d := range saved {
			*m.details[id] = d
		}
	}
}

type memCoupons struct {
	mu      sync.Mutex
	coupons map[int64]*campaign.CustomerCoupon
}

func (m *memCoupons) MarkUsed(_ context.Context, couponID int64, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[couponID]
	if !ok {
		return campaign.ErrCustomerCouponMissing
	}
	if c.IsUsed {
		return campaign.ErrCouponAlreadyUsed
	}
	c.IsUsed, c.UsedOrderID = true, orderID
	return nil
}

func (m *memCoupons) RevertUsage(_ context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.IsUsed && c.UsedOrderID == orderID {
			c.IsUsed, c.UsedOrderID = false, ""
			return true, nil
		}
	}
	return false, nil
}

func (m *memCoupons) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[int64]campaign.CustomerCoupon, len(m.coupons))
	for id, c := range m.coupons {
		saved[id] = *c
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for id, c := range saved {
			*m.coupons[id] = c
		}
	}
}

type memOrders struct {
	mu     sync.Mutex
	byCode map[string]*domain.Order
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Details = slices.Clone(o.Details)
	cp.Gifts = slices.Clone(o.Gifts)
	cp.Taxes = slices.Clone(o.Taxes)
	cp.Logs = slices.Clone(o.Logs)
	cp.PromotionIDs = slices.Clone(o.PromotionIDs)
	cp.RewardCouponCampaignIDs = slices.Clone(o.RewardCouponCampaignIDs)
	return &cp
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCode[o.Code] = cloneOrder(o)
	return nil
}

func (m *memOrders) Update(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[o.Code]; !ok {
		return domain.ErrOrderNotFound
	}
	m.byCode[o.Code] = cloneOrder(o)
	return nil
}

func (m *memOrders) GetByCode(_ context.Context, storeID int64, code string, _ bool) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byCode[code]
	if !ok || o.StoreID != storeID {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *memOrders) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*domain.Order, len(m.byCode))
	for k, o := range m.byCode {
		saved[k] = cloneOrder(o)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.byCode = saved
	}
}

type seqCodes struct{ n int }

func (s *seqCodes) Next(_ context.Context, storeID int64, at time.Time) (string, error) {
	s.n++
	return fmt.Sprintf("OD%s%d%05d", at.Format("060102"), storeID, s.n), nil
}

type memWarehouse struct {
	reserveErr error
	calls      []string
}

func (w *memWarehouse) Reserve(_ context.Context, orderID string, _ int64, _ []port.StockLine) error {
	w.calls = append(w.calls, "reserve:"+orderID)
	return w.reserveErr
}
func (w *memWarehouse) Commit(_ context.Context, orderID string) error {
	w.calls = append(w.calls, "commit:"+orderID)
	return nil
}
func (w *memWarehouse) Release(_ context.Context, orderID string) error {
	w.calls = append(w.calls, "release:"+orderID)
	return nil
}
func (w *memWarehouse) Restock(_ context.Context, orderID string) error {
	w.calls = append(w.calls, "restock:"+orderID)
	return nil
}

// memLedger 按 订单+原因 去重
type memLedger struct {
	debitErr error
	entries  []port.LedgerEntry
	credits  int
}

func (l *memLedger) post(e port.LedgerEntry) {
	for _, prev := range l.entries {
		if prev.OrderID == e.OrderID && prev.Reason == e.Reason {
			return
		}
	}
	l.entries = append(l.entries, e)
}

func (l *memLedger) Credit(_ context.Context, e port.LedgerEntry) error {
	l.credits++
	l.post(e)
	return nil
}

func (l *memLedger) Debit(_ context.Context, e port.LedgerEntry) error {
	if l.debitErr != nil {
		return l.debitErr
	}
	e.Amount = -e.Amount
	l.post(e)
	return nil
}

func (l *memLedger) sum(customerID int64, account port.Account) int64 {
	var total int64
	for _, e := range l.entries {
		if e.CustomerID == customerID && e.Account == account {
			total += e.Amount
		}
	}
	return total
}

type countStats struct{ calls int }

func (c *countStats) RecomputePurchaseCycle(context.Context, int64, int64) error {
	c.calls++
	return nil
}

type memGranter struct{ granted []int64 }

func (g *memGranter) GrantCoupon(_ context.Context, campaignID, _ int64, _ string) error {
	g.granted = append(g.granted, campaignID)
	return nil
}

type memNotifier struct{ events []domain.OrderEvent }

func (n *memNotifier) NotifyOrderEvent(_ context.Context, _ *domain.Order, e domain.OrderEvent) error {
	n.events = append(n.events, e)
	return nil
}

// fixture 是一个门店的完整测试环境：单价 100,000 的商品 1 与 2，10% 税，默认运费 30,000。
type fixture struct {
	products   memProducts
	campaigns  *memCampaigns
	config     *domain.StoreConfig
	flashSales *memFlashSales
	coupons    *memCoupons
	orders     *memOrders
	warehouse  *memWarehouse
	ledger     *memLedger
	stats      *countStats
	granter    *memGranter
	notifier   *memNotifier
}

func newFixture() *fixture {
	return &fixture{
		products: memProducts{
			1: {ID: 1, StoreID: testStore, Price: 100000, CategoryRefPoint: decimal.NewFromInt(5)},
			2: {ID: 2, StoreID: testStore, Price: 100000},
			3: {ID: 3, StoreID: testStore, Price: 0},
		},
		campaigns: &memCampaigns{
			couponCampaigns: map[int64]*campaign.CouponCampaign{},
			coupons:         map[string]*campaign.CustomerCoupon{},
		},
		config: &domain.StoreConfig{
			StoreID: testStore,
			Taxes:   []domain.ProductTax{{ID: 1, Name: "vat", Value: decimal.NewFromInt(10), Active: true}},
			Params:  map[string]string{},
		},
		flashSales: &memFlashSales{details: map[int64]*campaign.FlashSaleCampaignDetail{}},
		coupons:    &memCoupons{coupons: map[int64]*campaign.CustomerCoupon{}},
		orders:     &memOrders{byCode: map[string]*domain.Order{}},
		warehouse:  &memWarehouse{},
		ledger:     &memLedger{},
		stats:      &countStats{},
		granter:    &memGranter{},
		notifier:   &memNotifier{},
	}
}

func (f *fixture) engine() *PricingEngine {
	e := NewPricingEngine(f.products, f.campaigns, staticConfig{f.config}, 30000, testTracer)
	e.now = func() time.Time { return testNow }
	return e
}

func (f *fixture) service() *OrderApplicationService {
	s := NewOrderApplicationService(Ports{
		Orders:     f.orders,
		Tx:         &memTx{parts: []rollbacker{f.flashSales, f.coupons, f.orders}},
		Codes:      &seqCodes{},
		FlashSales: f.flashSales,
		Coupons:    f.coupons,
		Granter:    f.granter,
		Warehouse:  f.warehouse,
		Ledger:     f.ledger,
		Stats:      f.stats,
		Notifier:   f.notifier,
	}, f.engine(), time.Second, testTracer)
	s.now = func() time.Time { return testNow }
	return s
}

// addFlashSale 注册一个商品 1 的秒杀明细，秒杀价 80,000。
func (f *fixture) addFlashSale(detailID, stock, pending int64) {
	d := campaign.FlashSaleCampaignDetail{ID: detailID, CampaignID: 50, ProductID: 1, Price: 80000, Stock: stock, Pending: pending}
	f.campaigns.flashSales = append(f.campaigns.flashSales, &campaign.FlashSaleCampaign{
		ID: 50, StoreID: testStore, Window: openWindow, Details: []campaign.FlashSaleCampaignDetail{d},
	})
	f.flashSales.details[detailID] = &d
}

// addCoupon 注册一张客户券，同时放入目录与券账本。
func (f *fixture) addCoupon(c *campaign.CustomerCoupon) {
	f.campaigns.coupons[c.Code] = c
	f.coupons.coupons[c.ID] = c
}

func cart(lines ...LineInput) *PriceOrderRequest {
	return &PriceOrderRequest{
		StoreID:        testStore,
		CustomerID:     7,
		PaymentMethod:  domain.PaymentCOD,
		DeliveryMethod: domain.DeliveryStandard,
		City:           "hanoi",
		Lines:          lines,
	}
}
