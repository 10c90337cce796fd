package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// OrderContext 在下单 Saga 中传递上下文数据。
// 所有外部依赖都是出站端口。
type OrderContext struct {
	Ctx     context.Context
	OrderID string
	Now     time.Time
	Order   *domain.Order // 由 PricingHandler 写入
	Tracer  trace.Tracer

	// Quote 对购物车定价，软拒绝同样以错误返回
	Quote func(ctx context.Context) (*domain.Order, error)

	Tx         port.Transactor
	Repo       domain.OrderRepository
	Codes      port.OrderCodeGenerator
	FlashSales port.FlashSaleLedger
	Coupons    port.CouponLedger
	Warehouse  port.Warehouse
	Ledger     port.Ledger
	Notifier   port.Notifier

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 注册补偿操作，按后进先出执行。
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().Str("order_id", c.OrderID).Int("count", len(c.compensations)).Msg("executing compensations")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

// SetNext 返回传入的 handler，便于链式构造。
func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
