package saga

// CouponConsumeHandler 在订单事务内消费客户券。
// 条件更新保证同一张券不会被两个订单同时使用。
type CouponConsumeHandler struct {
	NextHandler
}

func (h *CouponConsumeHandler) Handle(orderCtx *OrderContext) error {
	o := orderCtx.Order
	if o.CustomerCouponID == 0 {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CouponConsume")
	defer span.End()

	if err := orderCtx.Coupons.MarkUsed(ctx, o.CustomerCouponID, o.ID); err != nil {
		return fail(span, err)
	}
	return h.executeNext(orderCtx)
}
