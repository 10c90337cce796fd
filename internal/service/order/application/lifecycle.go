package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// 账本记账原因
const (
	reasonOrderPoints   = "order_points"
	reasonPointsRevert  = "order_points_revert"
	reasonBalanceRefund = "order_refund"
)

// Action 是接口层使用的流转动作名
var Action = map[string]domain.Status{
	"confirm":  domain.StatusConfirm,
	"process":  domain.StatusProcessing,
	"deliver":  domain.StatusDelivering,
	"complete": domain.StatusComplete,
	"cancel":   domain.StatusCancel,
	"return":   domain.StatusReturnRefund,
}

// afterCommit 是事务提交后才执行的外部调用，失败只记录日志。
type afterCommit struct {
	name string
	run  func(ctx context.Context) error
}

// Transition 在一个事务内加锁读取订单、校验流转并执行数据库内的副作用，
// 提交后再调用仓库、账本、统计与通知。
func (s *OrderApplicationService) Transition(ctx context.Context, req *TransitionRequest, to domain.Status) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("order.code", req.Code), attribute.String("order.to", string(to)))

	var (
		order   *domain.Order
		effects []afterCommit
	)
	err := s.Tx.WithinTx(ctx, func(txCtx context.Context) error {
		o, err := s.Orders.GetByCode(txCtx, req.StoreID, req.Code, true)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.Transition(to, req.Note, s.now()); err != nil {
			return err
		}
		switch to {
		case domain.StatusComplete:
			effects, err = s.onComplete(txCtx, o)
		case domain.StatusCancel:
			effects, err = s.onCancel(txCtx, o)
		case domain.StatusReturnRefund:
			effects, err = s.onReturn(txCtx, o, from)
		}
		if err != nil {
			return err
		}
		if err := s.Orders.Update(txCtx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		orderTransitions.WithLabelValues(string(to), bizerr.Kind(err)).Inc()
		logger.Ctx(ctx).Error().Err(err).Str("order_code", req.Code).Str("to", string(to)).Msg("order transition failed")
		return nil, fail(span, err)
	}
	orderTransitions.WithLabelValues(string(to), "ok").Inc()

	for _, e := range effects {
		if err := e.run(ctx); err != nil {
			span.RecordError(err)
			logger.Ctx(ctx).Error().Err(err).Str("order_code", order.Code).Str("effect", e.name).Msg("post-transition call failed")
		}
	}
	if err := s.Notifier.NotifyOrderEvent(ctx, order, domain.EventFor(to)); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).Str("order_code", order.Code).Msg("failed to publish order notification")
	}

	logger.Ctx(ctx).Info().Str("order_code", order.Code).Str("status", string(order.Status)).Msg("order transitioned")
	return NewOrderResponse(order), nil
}

// onComplete 把秒杀预占转为已售；奖励券、积分、库存与统计在提交后处理。
func (s *OrderApplicationService) onComplete(ctx context.Context, o *domain.Order) ([]afterCommit, error) {
	for _, r := range o.FlashSaleReservations() {
		if err := s.FlashSales.Commit(ctx, r.DetailID, r.Quantity); err != nil {
			return nil, fmt.Errorf("commit flash sale detail %d: %w", r.DetailID, err)
		}
	}

	var effects []afterCommit
	for _, id := range o.RewardCouponCampaignIDs {
		effects = append(effects, afterCommit{"grant_coupon", func(ctx context.Context) error {
			return s.Granter.GrantCoupon(ctx, id, o.CustomerID, o.ID)
		}})
	}
	if o.TotalPoints > 0 {
		effects = append(effects, afterCommit{"credit_points", func(ctx context.Context) error {
			return s.Ledger.Credit(ctx, s.pointsEntry(o, reasonOrderPoints))
		}})
	}
	effects = append(effects,
		afterCommit{"warehouse_commit", func(ctx context.Context) error { return s.Warehouse.Commit(ctx, o.ID) }},
		s.recomputeStats(o),
	)
	return effects, nil
}

// onCancel 释放秒杀预占、恢复优惠券并退回余额。
func (s *OrderApplicationService) onCancel(ctx context.Context, o *domain.Order) ([]afterCommit, error) {
	for _, r := range o.FlashSaleReservations() {
		if err := s.FlashSales.Release(ctx, r.DetailID, r.Quantity); err != nil {
			return nil, fmt.Errorf("release flash sale detail %d: %w", r.DetailID, err)
		}
	}
	if o.CustomerCouponID > 0 {
		reverted, err := s.Coupons.RevertUsage(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		logger.Ctx(ctx).Debug().Bool("reverted", reverted).Str("order_code", o.Code).Msg("coupon usage reverted")
	}
	if err := s.refundBalance(ctx, o); err != nil {
		return nil, err
	}
	return []afterCommit{
		{"warehouse_release", func(ctx context.Context) error { return s.Warehouse.Release(ctx, o.ID) }},
		s.recomputeStats(o),
	}, nil
}

// onReturn 按退货前的状态回退秒杀计数与仓库库存。
func (s *OrderApplicationService) onReturn(ctx context.Context, o *domain.Order, from domain.Status) ([]afterCommit, error) {
	var effects []afterCommit
	for _, r := range o.FlashSaleReservations() {
		var err error
		if from == domain.StatusComplete {
			err = s.FlashSales.ReverseCommit(ctx, r.DetailID, r.Quantity)
		} else {
			err = s.FlashSales.Release(ctx, r.DetailID, r.Quantity)
		}
		if err != nil {
			return nil, fmt.Errorf("reverse flash sale detail %d: %w", r.DetailID, err)
		}
	}
	if err := s.refundBalance(ctx, o); err != nil {
		return nil, err
	}

	if from == domain.StatusComplete {
		effects = append(effects, afterCommit{"warehouse_restock", func(ctx context.Context) error { return s.Warehouse.Restock(ctx, o.ID) }})
		if o.TotalPoints > 0 {
			effects = append(effects, afterCommit{"debit_points", func(ctx context.Context) error {
				return s.Ledger.Debit(ctx, s.pointsEntry(o, reasonPointsRevert))
			}})
		}
	} else {
		effects = append(effects, afterCommit{"warehouse_release", func(ctx context.Context) error { return s.Warehouse.Release(ctx, o.ID) }})
	}
	return append(effects, s.recomputeStats(o)), nil
}

// refundBalance 在事务内退款，失败时整个流转回滚；账本按订单与原因去重。
func (s *OrderApplicationService) refundBalance(ctx context.Context, o *domain.Order) error {
	if !o.NeedsBalanceRefund() {
		return nil
	}
	if o.MoneyFinal > 0 {
		err := s.Ledger.Credit(ctx, port.LedgerEntry{
			CustomerID: o.CustomerID,
			Account:    port.AccountBalance,
			Amount:     o.MoneyFinal,
			Reason:     reasonBalanceRefund,
			OrderID:    o.ID,
		})
		if err != nil {
			return fmt.Errorf("refund balance: %w", err)
		}
	}
	o.MarkRefunded()
	return nil
}

func (s *OrderApplicationService) pointsEntry(o *domain.Order, reason string) port.LedgerEntry {
	return port.LedgerEntry{
		CustomerID: o.CustomerID,
		Account:    port.AccountPoints,
		Amount:     o.TotalPoints,
		Reason:     reason,
		OrderID:    o.ID,
	}
}

func (s *OrderApplicationService) recomputeStats(o *domain.Order) afterCommit {
	return afterCommit{"purchase_cycle", func(ctx context.Context) error {
		return s.Stats.RecomputePurchaseCycle(ctx, o.StoreID, o.CustomerID)
	}}
}
