package saga

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"storefront/internal/service/order/domain"
)

// PersistHandler 生成订单号并在事务内保存订单。
type PersistHandler struct {
	NextHandler
}

func (h *PersistHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Persist")
	defer span.End()

	o := orderCtx.Order
	code, err := orderCtx.Codes.Next(ctx, o.StoreID, orderCtx.Now)
	if err != nil {
		return fail(span, fmt.Errorf("generate order code: %w", err))
	}
	o.Code = code
	o.Logs = append(o.Logs, domain.OrderLog{To: domain.StatusPending, Note: "order created", At: orderCtx.Now})

	if err := orderCtx.Repo.Create(ctx, o); err != nil {
		return fail(span, err)
	}
	span.SetAttributes(attribute.String("order.code", code))
	return h.executeNext(orderCtx)
}
