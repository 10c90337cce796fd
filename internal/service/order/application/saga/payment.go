package saga

import (
	"context"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// 账本记账原因
const (
	ReasonOrderPayment  = "order_payment"
	ReasonPaymentRevert = "order_payment_revert"
)

// BalancePaymentHandler 对余额支付的订单扣款。
type BalancePaymentHandler struct {
	NextHandler
}

func (h *BalancePaymentHandler) Handle(orderCtx *OrderContext) error {
	o := orderCtx.Order
	if o.PaymentMethod != domain.PaymentBalance {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.BalancePayment")
	defer span.End()

	if o.MoneyFinal > 0 {
		entry := port.LedgerEntry{
			CustomerID: o.CustomerID,
			Account:    port.AccountBalance,
			Amount:     o.MoneyFinal,
			Reason:     ReasonOrderPayment,
			OrderID:    o.ID,
		}
		if err := orderCtx.Ledger.Debit(ctx, entry); err != nil {
			return fail(span, err)
		}
		orderCtx.AddCompensation(func(compCtx context.Context) {
			compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.BalanceCredit")
			defer compSpan.End()
			entry.Reason = ReasonPaymentRevert
			if err := orderCtx.Ledger.Credit(compCtx, entry); err != nil {
				compSpan.RecordError(err)
				logger.Ctx(compCtx).Error().Err(err).Str("order_id", o.ID).Msg("balance credit failed")
			}
		})
	}
	o.PaymentStatus = domain.PaymentComplete
	return h.executeNext(orderCtx)
}
