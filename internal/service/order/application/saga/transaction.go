package saga

import (
	"context"
)

// TransactionHandler 在一个数据库事务内执行 inner 链。
// 事务失败时触发补偿；提交成功后才继续执行后续处理器（通知）。
type TransactionHandler struct {
	NextHandler
	inner Handler
}

func NewTransactionHandler(inner Handler) *TransactionHandler {
	return &TransactionHandler{inner: inner}
}

func (h *TransactionHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Transaction")
	defer span.End()

	outer := orderCtx.Ctx
	err := orderCtx.Tx.WithinTx(ctx, func(txCtx context.Context) error {
		orderCtx.Ctx = txCtx
		return h.inner.Handle(orderCtx)
	})
	orderCtx.Ctx = outer
	if err != nil {
		// 补偿调用的是外部服务，不受请求超时影响
		orderCtx.TriggerCompensation(context.WithoutCancel(ctx))
		return fail(span, err)
	}
	span.AddEvent("order transaction committed")
	return h.executeNext(orderCtx)
}
