package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/campaign/domain"
)

// CampaignService 提供活动配置与优惠券发放的用例。
type CampaignService struct {
	coupons    domain.CouponRepository
	promotions domain.PromotionRepository
	flashSales domain.FlashSaleRepository
	locker     domain.Locker
	rules      domain.RuleEngine
	tracer     trace.Tracer
	now        func() time.Time
}

func NewCampaignService(
	coupons domain.CouponRepository,
	promotions domain.PromotionRepository,
	flashSales domain.FlashSaleRepository,
	locker domain.Locker,
	rules domain.RuleEngine,
	tracer trace.Tracer,
) *CampaignService {
	return &CampaignService{
		coupons:    coupons,
		promotions: promotions,
		flashSales: flashSales,
		locker:     locker,
		rules:      rules,
		tracer:     tracer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func storeLockKey(storeID int64) string {
	return fmt.Sprintf("campaign-store-%d", storeID)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// SaveFlashSale 在门店锁内校验窗口互斥后保存秒杀。
func (s *CampaignService) SaveFlashSale(ctx context.Context, req *SaveFlashSaleRequest) (*SavedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "campaign.SaveFlashSale")
	defer span.End()
	span.SetAttributes(attribute.Int64("store.id", req.StoreID))

	fs := req.toDomain()
	if err := fs.Validate(); err != nil {
		return nil, fail(span, err)
	}

	unlock, err := s.locker.Lock(ctx, storeLockKey(fs.StoreID))
	if err != nil {
		return nil, fail(span, err)
	}
	defer unlock()

	others, err := s.flashSales.FindOverlapping(ctx, fs.StoreID, fs.Window)
	if err != nil {
		return nil, fail(span, err)
	}
	promos, err := s.promotions.FindPercentOnProducts(ctx, fs.StoreID, fs.Window)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := domain.CheckFlashSaleExclusive(fs, others, promos); err != nil {
		return nil, fail(span, err)
	}
	if err := s.flashSales.Save(ctx, fs); err != nil {
		return nil, fail(span, err)
	}

	logger.Ctx(ctx).Info().Int64("store_id", fs.StoreID).Int64("flash_sale_id", fs.ID).Msg("flash sale saved")
	return &SavedResponse{ID: fs.ID}, nil
}

// SavePromotion 保存促销；按商品百分比促销需要与秒杀互斥。
func (s *CampaignService) SavePromotion(ctx context.Context, req *SavePromotionRequest) (*SavedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "campaign.SavePromotion")
	defer span.End()
	span.SetAttributes(attribute.Int64("store.id", req.StoreID), attribute.String("discount.type", string(req.DiscountType)))

	p := req.toDomain()
	if err := p.Validate(); err != nil {
		return nil, fail(span, err)
	}
	if p.CouponCampaignID > 0 {
		c, err := s.coupons.GetCampaign(ctx, p.CouponCampaignID)
		if err != nil {
			return nil, fail(span, err)
		}
		if c.StoreID != p.StoreID {
			return nil, fail(span, fmt.Errorf("%w: coupon campaign %d belongs to another store", domain.ErrInvalidDiscount, c.ID))
		}
	}

	unlock, err := s.locker.Lock(ctx, storeLockKey(p.StoreID))
	if err != nil {
		return nil, fail(span, err)
	}
	defer unlock()

	if p.IsPercentOnProducts() {
		flashSales, err := s.flashSales.FindOverlapping(ctx, p.StoreID, p.Window)
		if err != nil {
			return nil, fail(span, err)
		}
		if err := domain.CheckPromotionExclusive(p, flashSales); err != nil {
			return nil, fail(span, err)
		}
	}
	if err := s.promotions.Save(ctx, p); err != nil {
		return nil, fail(span, err)
	}

	logger.Ctx(ctx).Info().Int64("store_id", p.StoreID).Int64("promotion_id", p.ID).Msg("promotion saved")
	return &SavedResponse{ID: p.ID}, nil
}

func (s *CampaignService) SaveCouponCampaign(ctx context.Context, req *SaveCouponCampaignRequest) (*SavedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "campaign.SaveCouponCampaign")
	defer span.End()
	span.SetAttributes(attribute.Int64("store.id", req.StoreID))

	c := req.toDomain()
	if err := c.Validate(); err != nil {
		return nil, fail(span, err)
	}
	if c.EligibilityRule != "" {
		if err := s.rules.Compile(c.EligibilityRule); err != nil {
			return nil, fail(span, err)
		}
	}
	if err := s.coupons.SaveCampaign(ctx, c); err != nil {
		return nil, fail(span, err)
	}

	logger.Ctx(ctx).Info().Int64("store_id", c.StoreID).Int64("coupon_campaign_id", c.ID).Msg("coupon campaign saved")
	return &SavedResponse{ID: c.ID}, nil
}

// IssueCoupons 给符合条件的客户各发一张券，有效期到活动结束。
func (s *CampaignService) IssueCoupons(ctx context.Context, campaignID int64, req *IssueCouponsRequest) (*IssueCouponsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "campaign.IssueCoupons")
	defer span.End()
	span.SetAttributes(attribute.Int64("coupon_campaign.id", campaignID), attribute.Int("candidates", len(req.Customers)))

	c, err := s.coupons.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fail(span, err)
	}
	now := s.now()
	if c.Window.Expired(now) {
		return nil, fail(span, fmt.Errorf("%w: coupon campaign %d has ended", domain.ErrInvalidWindow, c.ID))
	}

	resp := &IssueCouponsResponse{}
	var batch []*domain.CustomerCoupon
	for _, fact := range req.Customers {
		if c.ApplyFor == domain.ApplyForSome {
			ok, err := s.rules.Eligible(ctx, c.EligibilityRule, fact, now)
			if err != nil {
				return nil, fail(span, err)
			}
			if !ok {
				resp.Skipped++
				continue
			}
		}
		batch = append(batch, newCustomerCoupon(c, fact.CustomerID, ""))
	}
	if err := s.coupons.CreateCustomerCoupons(ctx, batch); err != nil {
		return nil, fail(span, err)
	}
	for _, cc := range batch {
		resp.Codes = append(resp.Codes, cc.Code)
	}
	resp.Issued = len(batch)

	logger.Ctx(ctx).Info().Int64("coupon_campaign_id", c.ID).Int("issued", resp.Issued).Int("skipped", resp.Skipped).Msg("coupons issued")
	return resp, nil
}

// GrantCoupon 发放单张券，用于注册、生日以及订单完成后的奖励。
func (s *CampaignService) GrantCoupon(ctx context.Context, campaignID, customerID int64, orderID string) (*domain.CustomerCoupon, error) {
	ctx, span := s.tracer.Start(ctx, "campaign.GrantCoupon")
	defer span.End()
	span.SetAttributes(attribute.Int64("coupon_campaign.id", campaignID), attribute.String("order.id", orderID))

	c, err := s.coupons.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fail(span, err)
	}
	if c.Window.Expired(s.now()) {
		return nil, fail(span, fmt.Errorf("%w: coupon campaign %d has ended", domain.ErrInvalidWindow, c.ID))
	}
	cc := newCustomerCoupon(c, customerID, orderID)
	if err := s.coupons.CreateCustomerCoupons(ctx, []*domain.CustomerCoupon{cc}); err != nil {
		return nil, fail(span, err)
	}
	logger.Ctx(ctx).Info().Int64("coupon_campaign_id", c.ID).Int64("customer_id", customerID).Str("order_id", orderID).Msg("coupon granted")
	return cc, nil
}

func newCustomerCoupon(c *domain.CouponCampaign, customerID int64, orderID string) *domain.CustomerCoupon {
	return &domain.CustomerCoupon{
		Code:       "CP" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")),
		CampaignID: c.ID,
		CustomerID: customerID,
		OrderID:    orderID,
		ExpiredAt:  c.Window.EndAt,
	}
}
