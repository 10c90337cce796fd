package saga

import (
	"go.opentelemetry.io/otel/attribute"
)

// PricingHandler 对购物车定价。下单时优惠券的软拒绝同样会中断流程。
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Pricing")
	defer span.End()

	order, err := orderCtx.Quote(ctx)
	if err != nil {
		return fail(span, err)
	}
	order.ID = orderCtx.OrderID
	order.CreatedAt = orderCtx.Now
	order.UpdatedAt = orderCtx.Now
	orderCtx.Order = order

	span.SetAttributes(
		attribute.Int64("order.money_final", order.MoneyFinal),
		attribute.Int("order.gifts", len(order.Gifts)),
	)
	return h.executeNext(orderCtx)
}
