package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/bizerr"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// StoreConfigService 管理门店定价配置，写入后刷新本地快照并广播给其他实例。
type StoreConfigService struct {
	repo      domain.StoreConfigRepository
	tx        port.Transactor
	cache     port.StoreConfigCache
	publisher port.StoreConfigPublisher
	tracer    trace.Tracer
}

func NewStoreConfigService(repo domain.StoreConfigRepository, tx port.Transactor, cache port.StoreConfigCache, publisher port.StoreConfigPublisher, tracer trace.Tracer) *StoreConfigService {
	return &StoreConfigService{repo: repo, tx: tx, cache: cache, publisher: publisher, tracer: tracer}
}

func (r *StoreConfigRequest) toDomain(storeID int64) (*domain.StoreConfig, error) {
	cfg := &domain.StoreConfig{StoreID: storeID, Params: make(map[string]string, len(r.Params))}
	for _, t := range r.Taxes {
		v, err := decimal.NewFromString(t.Value)
		if err != nil || v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
			return nil, bizerr.Validation("tax %q must be a percentage in [0, 100]", t.Name)
		}
		cfg.Taxes = append(cfg.Taxes, domain.ProductTax{Name: t.Name, Value: v, Active: t.Active})
	}
	for _, f := range r.ShipFees {
		if f.City == "" || f.Fee < 0 {
			return nil, bizerr.Validation("ship fee rows need a city and a non-negative fee")
		}
		cfg.ShipFees = append(cfg.ShipFees, domain.ShipFeeRule{City: f.City, District: f.District, Fee: f.Fee})
	}
	for k, v := range r.Params {
		cfg.Params[k] = v
	}
	if v, ok := cfg.Param(domain.ParamPointRefundRate); ok {
		if _, err := decimal.NewFromString(v); err != nil {
			return nil, bizerr.Validation("%s must be a decimal", domain.ParamPointRefundRate)
		}
	}
	return cfg, nil
}

// UpdateStoreConfig 全量替换门店配置。
func (s *StoreConfigService) UpdateStoreConfig(ctx context.Context, storeID int64, req *StoreConfigRequest) error {
	ctx, span := s.tracer.Start(ctx, "app.UpdateStoreConfig")
	defer span.End()
	span.SetAttributes(attribute.Int64("store.id", storeID))

	if storeID <= 0 {
		return fail(span, bizerr.Validation("store id is required"))
	}
	cfg, err := req.toDomain(storeID)
	if err != nil {
		return fail(span, err)
	}
	if err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		return s.repo.Save(txCtx, cfg)
	}); err != nil {
		return fail(span, err)
	}

	// 提交后刷新，保证下一次定价读到新配置
	if err := s.cache.Refresh(ctx, storeID); err != nil {
		return fail(span, fmt.Errorf("refresh store config: %w", err))
	}
	if err := s.publisher.PublishInvalidation(ctx, storeID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Int64("store_id", storeID).Msg("failed to broadcast store config invalidation")
	}
	logger.Ctx(ctx).Info().Int64("store_id", storeID).Int("taxes", len(cfg.Taxes)).Msg("store config updated")
	return nil
}
