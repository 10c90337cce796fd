// internal/service/order/domain/event.go
package domain

// OrderEvent 是发往通知服务的订单事件
type OrderEvent string

const (
	EventCreated    OrderEvent = "order.created"
	EventConfirmed  OrderEvent = "order.confirmed"
	EventProcessing OrderEvent = "order.processing"
	EventDelivering OrderEvent = "order.delivering"
	EventCompleted  OrderEvent = "order.completed"
	EventCancelled  OrderEvent = "order.cancelled"
	EventReturned   OrderEvent = "order.returned"
)

// Audience 是事件的接收方
type Audience string

const (
	AudienceStore    Audience = "store"
	AudienceCustomer Audience = "customer"
)

var statusEvents = map[Status]OrderEvent{
	StatusPending:      EventCreated,
	StatusConfirm:      EventConfirmed,
	StatusProcessing:   EventProcessing,
	StatusDelivering:   EventDelivering,
	StatusComplete:     EventCompleted,
	StatusCancel:       EventCancelled,
	StatusReturnRefund: EventReturned,
}

// EventFor 返回进入 status 时要发送的事件。
func EventFor(status Status) OrderEvent {
	return statusEvents[status]
}

// Audience 新订单通知门店，其余通知客户。
func (e OrderEvent) Audience() Audience {
	if e == EventCreated {
		return AudienceStore
	}
	return AudienceCustomer
}
