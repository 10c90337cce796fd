package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaign "storefront/internal/service/campaign/domain"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

func transition(t *testing.T, svc *OrderApplicationService, code string, to domain.Status) *OrderResponse {
	t.Helper()
	resp, err := svc.Transition(context.Background(), &TransitionRequest{StoreID: testStore, Code: code}, to)
	require.NoError(t, err, "transition to %s", to)
	return resp
}

func TestCancelReleasesFlashSaleAndCoupon(t *testing.T) {
	f := newFixture()
	f.addFlashSale(31, 10, 1)
	f.campaigns.couponCampaigns[21] = percentCoupon(21, 10, 0, 0)
	f.addCoupon(&campaign.CustomerCoupon{ID: 5, Code: "C1", CampaignID: 21, CustomerID: 7, ExpiredAt: openWindow.EndAt})
	svc := f.service()
	req := cart(LineInput{ProductID: 1, Quantity: 2, FlashSaleDetailID: 31})
	req.CouponCode = "C1"

	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(3), f.flashSales.details[31].Pending)
	require.True(t, f.coupons.coupons[5].IsUsed)

	resp := transition(t, svc, created.Code, domain.StatusCancel)

	assert.Equal(t, domain.StatusCancel, resp.Status)
	assert.Equal(t, int64(1), f.flashSales.details[31].Pending)
	assert.False(t, f.coupons.coupons[5].IsUsed)
	assert.Contains(t, f.warehouse.calls, "release:"+created.ID)
	assert.Equal(t, 1, f.stats.calls)
	assert.Equal(t, []domain.OrderEvent{domain.EventCreated, domain.EventCancelled}, f.notifier.events)

	// 再次取消被状态机拒绝，计数器不会被重复释放
	_, err = svc.Transition(context.Background(), &TransitionRequest{StoreID: testStore, Code: created.Code}, domain.StatusCancel)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(1), f.flashSales.details[31].Pending)
	assert.False(t, f.coupons.coupons[5].IsUsed)
}

func TestCompleteAndReturn(t *testing.T) {
	f := newFixture()
	f.addFlashSale(31, 10, 0)
	f.config.Params[domain.ParamPointRefundRate] = "0.01"
	f.campaigns.promotions = []*campaign.PromotionCampaign{{
		ID: 18, StoreID: testStore, ConditionType: campaign.ConditionAllProducts,
		DiscountType: campaign.DiscountCoupon, CouponCampaignID: 22, Window: openWindow,
	}}
	svc := f.service()
	req := cart(LineInput{ProductID: 1, Quantity: 2, FlashSaleDetailID: 31})
	req.PromotionIDs = []int64{18}

	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	// 160,000 + 16,000 + 30,000
	require.Equal(t, int64(206000), created.MoneyFinal)
	require.Equal(t, int64(2060), created.TotalPoints)

	for _, to := range []domain.Status{domain.StatusConfirm, domain.StatusProcessing, domain.StatusDelivering} {
		transition(t, svc, created.Code, to)
	}
	done := transition(t, svc, created.Code, domain.StatusComplete)

	assert.Equal(t, string(domain.PaymentComplete), done.PaymentStatus)
	assert.Equal(t, string(domain.DeliveryDelivered), done.DeliveryStatus)
	d := f.flashSales.details[31]
	assert.Equal(t, int64(0), d.Pending)
	assert.Equal(t, int64(2), d.Sold)
	assert.Equal(t, []int64{22}, f.granter.granted)
	assert.Equal(t, int64(2060), f.ledger.sum(7, port.AccountPoints))
	assert.Contains(t, f.warehouse.calls, "commit:"+created.ID)

	returned := transition(t, svc, created.Code, domain.StatusReturnRefund)

	assert.Equal(t, string(domain.DeliveryReturned), returned.DeliveryStatus)
	assert.Equal(t, int64(0), d.Sold)
	assert.Equal(t, int64(0), f.ledger.sum(7, port.AccountPoints))
	assert.Contains(t, f.warehouse.calls, "restock:"+created.ID)

	stored, err := f.orders.GetByCode(context.Background(), testStore, created.Code, false)
	require.NoError(t, err)
	assert.Len(t, stored.Logs, 6)
}

func TestReturnBeforeCompleteReleasesReservation(t *testing.T) {
	f := newFixture()
	f.addFlashSale(31, 10, 0)
	svc := f.service()

	created, err := svc.Create(context.Background(), cart(LineInput{ProductID: 1, Quantity: 2, FlashSaleDetailID: 31}))
	require.NoError(t, err)
	for _, to := range []domain.Status{domain.StatusConfirm, domain.StatusProcessing, domain.StatusDelivering} {
		transition(t, svc, created.Code, to)
	}

	transition(t, svc, created.Code, domain.StatusReturnRefund)

	d := f.flashSales.details[31]
	assert.Equal(t, int64(0), d.Pending)
	assert.Equal(t, int64(0), d.Sold)
	assert.Contains(t, f.warehouse.calls, "release:"+created.ID)
	assert.NotContains(t, f.warehouse.calls, "restock:"+created.ID)
}

func TestCancelRefundsBalance(t *testing.T) {
	f := newFixture()
	svc := f.service()
	req := cart(LineInput{ProductID: 2, Quantity: 1})
	req.PaymentMethod = domain.PaymentBalance

	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, -created.MoneyFinal, f.ledger.sum(7, port.AccountBalance))

	resp := transition(t, svc, created.Code, domain.StatusCancel)

	assert.Equal(t, string(domain.PaymentRefunded), resp.PaymentStatus)
	assert.Equal(t, int64(0), f.ledger.sum(7, port.AccountBalance))
}

func TestTransitionRejected(t *testing.T) {
	f := newFixture()
	svc := f.service()
	created, err := svc.Create(context.Background(), cart(LineInput{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), &TransitionRequest{StoreID: testStore, Code: created.Code}, domain.StatusComplete)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.orders.GetByCode(context.Background(), testStore, created.Code, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Len(t, stored.Logs, 1)

	_, err = svc.Transition(context.Background(), &TransitionRequest{StoreID: 2, Code: created.Code}, domain.StatusConfirm)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
