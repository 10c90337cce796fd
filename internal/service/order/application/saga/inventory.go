package saga

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// WarehouseReserveHandler 负责仓库库存预占，赠品也需要出库。
type WarehouseReserveHandler struct {
	NextHandler
}

func (h *WarehouseReserveHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.WarehouseReserve")
	defer span.End()

	o := orderCtx.Order
	lines := stockLines(o.AllLines())
	span.SetAttributes(attribute.Int("stock.lines", len(lines)))

	if err := orderCtx.Warehouse.Reserve(ctx, o.ID, o.StoreID, lines); err != nil {
		return fail(span, err)
	}

	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.WarehouseRelease")
		defer compSpan.End()
		// 补偿失败需要人工介入
		if err := orderCtx.Warehouse.Release(compCtx, o.ID); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).Str("order_id", o.ID).Msg("warehouse release failed")
		}
	})

	span.AddEvent("stock reserved")
	return h.executeNext(orderCtx)
}

// stockLines 按商品与规格合并数量。
func stockLines(details []domain.OrderDetail) []port.StockLine {
	type key struct{ product, variation int64 }
	qty := make(map[key]int64)
	for _, d := range details {
		qty[key{d.ProductID, d.VariationID}] += d.Quantity
	}
	out := make([]port.StockLine, 0, len(qty))
	for k, q := range qty {
		out = append(out, port.StockLine{ProductID: k.product, VariationID: k.variation, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].VariationID < out[j].VariationID
	})
	return out
}
