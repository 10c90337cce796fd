package saga

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	campaign "storefront/internal/service/campaign/domain"
	"storefront/internal/service/order/domain"
)

var flashSaleReservations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_flash_sale_reservations_total",
	Help: "Flash sale reservation attempts by result.",
}, []string{"result"})

// FlashSaleReserveHandler 在订单事务内预占秒杀库存。
// 预占失败时标记对应订单行并拒绝下单，已做的预占随事务回滚。
type FlashSaleReserveHandler struct {
	NextHandler
}

func (h *FlashSaleReserveHandler) Handle(orderCtx *OrderContext) error {
	reservations := orderCtx.Order.FlashSaleReservations()
	if len(reservations) == 0 {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.FlashSaleReserve")
	defer span.End()

	for _, r := range reservations {
		span.AddEvent("reserve", trace.WithAttributes(
			attribute.Int64("flash_sale.detail_id", r.DetailID),
			attribute.Int64("quantity", r.Quantity),
		))
		if err := orderCtx.FlashSales.Reserve(ctx, r.DetailID, r.Quantity); err != nil {
			if errors.Is(err, campaign.ErrFlashSaleOutOfStock) {
				flashSaleReservations.WithLabelValues("out_of_stock").Inc()
				orderCtx.Order.FlagOutOfStock(r.DetailID)
				return fail(span, fmt.Errorf("%w: detail %d", domain.ErrOutOfStockFlashSale, r.DetailID))
			}
			flashSaleReservations.WithLabelValues("error").Inc()
			return fail(span, err)
		}
		flashSaleReservations.WithLabelValues("ok").Inc()
	}
	return h.executeNext(orderCtx)
}
