// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending      Status = "pending"       // 已下单，等待门店确认
	StatusConfirm      Status = "confirm"       // 门店已确认
	StatusProcessing   Status = "processing"    // 备货中
	StatusDelivering   Status = "delivering"    // 配送中
	StatusComplete     Status = "complete"      // 已完成
	StatusCancel       Status = "cancel"        // 已取消，只能从 pending 进入
	StatusReturnRefund Status = "return_refund" // 退货退款
)

// transitions 是唯一合法的状态流转表
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirm, StatusCancel},
	StatusConfirm:    {StatusProcessing},
	StatusProcessing: {StatusDelivering},
	StatusDelivering: {StatusComplete, StatusReturnRefund},
	StatusComplete:   {StatusReturnRefund},
}

// CanTransitionTo 判断 s -> next 是否合法。
func (s Status) CanTransitionTo(next Status) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentComplete PaymentStatus = "complete"
	PaymentRefunded PaymentStatus = "refunded"
)

type DeliveryStatus string

const (
	DeliveryNone      DeliveryStatus = ""
	DeliveryPreparing DeliveryStatus = "preparing"
	DeliveryShipping  DeliveryStatus = "shipping"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryReturned  DeliveryStatus = "returned"
)

type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "cod"
	PaymentOnline  PaymentMethod = "online"
	PaymentBalance PaymentMethod = "balance"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline || m == PaymentBalance
}

// DeliveryMethod 决定运费的计算方式
type DeliveryMethod string

const (
	DeliveryAtStore  DeliveryMethod = "store"    // 到店自提，免运费
	DeliveryFactory  DeliveryMethod = "factory"  // 厂家直发，固定运费
	DeliveryStandard DeliveryMethod = "standard" // 按地区查运费表
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryAtStore || m == DeliveryFactory || m == DeliveryStandard
}
