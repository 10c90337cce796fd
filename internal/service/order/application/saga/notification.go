package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

// NotificationHandler 是链的最后一步，在事务提交后通知门店。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()
	span.SetAttributes(attribute.String("messaging.system", "kafka"))

	// 通知失败不影响已经提交的订单
	if err := orderCtx.Notifier.NotifyOrderEvent(ctx, orderCtx.Order, domain.EventCreated); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_code", orderCtx.Order.Code).Msg("failed to publish order notification")
		span.RecordError(err)
	}
	return h.executeNext(orderCtx)
}
