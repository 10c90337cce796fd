// internal/service/order/domain/port/notification.go
package port

import (
	"context"

	"storefront/internal/service/order/domain"
)

// Notifier 是通知分发的出站端口，发送失败不影响订单。
type Notifier interface {
	// NotifyOrderEvent 发送订单事件。
	NotifyOrderEvent(ctx context.Context, order *domain.Order, event domain.OrderEvent) error
}
