// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/application/saga"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// Ports 是订单服务依赖的出站端口。
type Ports struct {
	Orders     domain.OrderRepository
	Tx         port.Transactor
	Codes      port.OrderCodeGenerator
	FlashSales port.FlashSaleLedger
	Coupons    port.CouponLedger
	Granter    port.CouponGranter
	Warehouse  port.Warehouse
	Ledger     port.Ledger
	Stats      port.CustomerStats
	Notifier   port.Notifier
}

// OrderApplicationService 只负责业务流程编排。
type OrderApplicationService struct {
	Ports
	pricing       *PricingEngine
	tracer        trace.Tracer
	createTimeout time.Duration
	now           func() time.Time
}

func NewOrderApplicationService(ports Ports, pricing *PricingEngine, createTimeout time.Duration, tracer trace.Tracer) *OrderApplicationService {
	return &OrderApplicationService{
		Ports:         ports,
		pricing:       pricing,
		tracer:        tracer,
		createTimeout: createTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Quote 只定价不落库；优惠券不适用时返回带 CouponMsg 的报价。
func (s *OrderApplicationService) Quote(ctx context.Context, req *PriceOrderRequest) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.Quote")
	defer span.End()

	order, err := s.pricing.Price(ctx, req)
	if err != nil {
		if _, soft := bizerr.AsRejection(err); !soft {
			return nil, fail(span, err)
		}
	}
	return NewOrderResponse(order), nil
}

// Create 执行下单 Saga：定价、预占秒杀、消费优惠券、预占库存、余额扣款、落库，最后通知门店。
// 秒杀库存不足时同时返回标记了缺货行的订单与错误。
func (s *OrderApplicationService) Create(ctx context.Context, req *PriceOrderRequest) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("store.id", req.StoreID), attribute.Int64("customer.id", req.CustomerID))

	if s.createTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.createTimeout)
		defer cancel()
	}

	orderCtx := &saga.OrderContext{
		Ctx:     ctx,
		OrderID: uuid.NewString(),
		Now:     s.now(),
		Tracer:  s.tracer,
		Quote: func(ctx context.Context) (*domain.Order, error) {
			return s.pricing.Price(ctx, req)
		},
		Tx:         s.Tx,
		Repo:       s.Orders,
		Codes:      s.Codes,
		FlashSales: s.FlashSales,
		Coupons:    s.Coupons,
		Warehouse:  s.Warehouse,
		Ledger:     s.Ledger,
		Notifier:   s.Notifier,
	}
	log := logger.Ctx(ctx).With().Str("order_id", orderCtx.OrderID).Int64("store_id", req.StoreID).Logger()
	log.Info().Int("lines", len(req.Lines)).Msg("order creation started")

	if err := s.buildChain().Handle(orderCtx); err != nil {
		log.Error().Err(err).Msg("order creation failed")
		if errors.Is(err, domain.ErrOutOfStockFlashSale) && orderCtx.Order != nil {
			// 带回被标记的订单行
			return NewOrderResponse(orderCtx.Order), fail(span, err)
		}
		return nil, fail(span, err)
	}

	o := orderCtx.Order
	ordersCreated.WithLabelValues(strconv.FormatInt(o.StoreID, 10)).Inc()
	span.SetAttributes(attribute.String("order.code", o.Code))
	log.Info().Str("order_code", o.Code).Int64("money_final", o.MoneyFinal).Msg("order created")
	return NewOrderResponse(o), nil
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	inner := new(saga.PricingHandler)
	inner.
		SetNext(new(saga.FlashSaleReserveHandler)).
		SetNext(new(saga.CouponConsumeHandler)).
		SetNext(new(saga.WarehouseReserveHandler)).
		SetNext(new(saga.BalancePaymentHandler)).
		SetNext(new(saga.PersistHandler))

	chain := saga.NewTransactionHandler(inner)
	chain.SetNext(new(saga.NotificationHandler))
	return chain
}
