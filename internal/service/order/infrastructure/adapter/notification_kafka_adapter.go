package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/order/domain"
)

// OrderEventMessage 是写入 order-events topic 的消息体
type OrderEventMessage struct {
	EventID    string            `json:"event_id"`
	Event      domain.OrderEvent `json:"event"`
	Audience   domain.Audience   `json:"audience"`
	OrderID    string            `json:"order_id"`
	OrderCode  string            `json:"order_code"`
	StoreID    int64             `json:"store_id"`
	CustomerID int64             `json:"customer_id"`
	Status     domain.Status     `json:"status"`
	MoneyFinal int64             `json:"money_final"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NotificationKafkaAdapter 实现了 port.Notifier 接口。
type NotificationKafkaAdapter struct {
	writer mq.MessageWriter
}

func NewNotificationKafkaAdapter(writer mq.MessageWriter) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// NotifyOrderEvent 以订单 ID 为 key 发送，同一订单的事件落在同一分区。
func (a *NotificationKafkaAdapter) NotifyOrderEvent(ctx context.Context, order *domain.Order, event domain.OrderEvent) error {
	msg := OrderEventMessage{
		EventID:    uuid.NewString(),
		Event:      event,
		Audience:   event.Audience(),
		OrderID:    order.ID,
		OrderCode:  order.Code,
		StoreID:    order.StoreID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		MoneyFinal: order.MoneyFinal,
		OccurredAt: time.Now().UTC(),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(order.ID), b)
}
