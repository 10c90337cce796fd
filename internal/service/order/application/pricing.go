package application

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"storefront/internal/pkg/bizerr"
	campaign "storefront/internal/service/campaign/domain"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/domain/port"
)

// DefaultShipFee 是门店与配置都没有运费时使用的常量
const DefaultShipFee int64 = 30000

// PricingEngine 把购物车、活动与门店配置计算成定价后的订单。
// 它只读取数据，不修改任何计数器。
type PricingEngine struct {
	products       port.ProductCatalog
	campaigns      port.CampaignCatalog
	configs        port.StoreConfigProvider
	defaultShipFee int64
	tracer         trace.Tracer
	now            func() time.Time
}

func NewPricingEngine(
	products port.ProductCatalog,
	campaigns port.CampaignCatalog,
	configs port.StoreConfigProvider,
	defaultShipFee int64,
	tracer trace.Tracer,
) *PricingEngine {
	if defaultShipFee <= 0 {
		defaultShipFee = DefaultShipFee
	}
	return &PricingEngine{
		products:       products,
		campaigns:      campaigns,
		configs:        configs,
		defaultShipFee: defaultShipFee,
		tracer:         tracer,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// pricingInputs 是并发加载的只读数据
type pricingInputs struct {
	products       []*port.Product
	flashSales     []*campaign.FlashSaleCampaign
	linePromos     []*campaign.PromotionCampaign
	orderPromos    []*campaign.PromotionCampaign
	coupon         *campaign.CustomerCoupon
	couponCampaign *campaign.CouponCampaign
	config         *domain.StoreConfig
}

func (e *PricingEngine) load(ctx context.Context, req *PriceOrderRequest) (*pricingInputs, error) {
	in := &pricingInputs{products: make([]*port.Product, len(req.Lines))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, l := range req.Lines {
		g.Go(func() error {
			p, err := e.products.GetProduct(gctx, req.StoreID, l.ProductID, l.VariationID)
			if err != nil {
				return err
			}
			in.products[i] = p
			return nil
		})
	}
	if ids := req.flashSaleDetailIDs(); len(ids) > 0 {
		g.Go(func() (err error) {
			in.flashSales, err = e.campaigns.FlashSalesByDetail(gctx, ids)
			return err
		})
	}
	if ids := req.promotionDetailIDs(); len(ids) > 0 {
		g.Go(func() (err error) {
			in.linePromos, err = e.campaigns.PromotionsByDetail(gctx, ids)
			return err
		})
	}
	if len(req.PromotionIDs) > 0 {
		g.Go(func() (err error) {
			in.orderPromos, err = e.campaigns.Promotions(gctx, req.PromotionIDs)
			return err
		})
	}
	if req.CouponCode != "" || req.CouponCampaignID > 0 {
		g.Go(func() error {
			return e.loadCoupon(gctx, req, in)
		})
	}
	g.Go(func() (err error) {
		in.config, err = e.configs.Get(gctx, req.StoreID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (e *PricingEngine) loadCoupon(ctx context.Context, req *PriceOrderRequest, in *pricingInputs) error {
	campaignID := req.CouponCampaignID
	if req.CouponCode != "" {
		c, err := e.campaigns.CustomerCoupon(ctx, req.CouponCode)
		if err != nil {
			return err
		}
		if campaignID > 0 && campaignID != c.CampaignID {
			return fmt.Errorf("%w: coupon %s does not belong to campaign %d", domain.ErrCouponInvalid, c.Code, campaignID)
		}
		in.coupon = c
		campaignID = c.CampaignID
	}
	cc, err := e.campaigns.CouponCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	in.couponCampaign = cc
	return nil
}

// Price 计算订单价格。
// 硬错误返回 nil 订单；优惠券不适用时返回完整定价的订单以及 *bizerr.Rejection。
func (e *PricingEngine) Price(ctx context.Context, req *PriceOrderRequest) (*domain.Order, error) {
	ctx, span := e.tracer.Start(ctx, "pricing.Price")
	defer span.End()
	span.SetAttributes(attribute.Int64("store.id", req.StoreID), attribute.Int("order.lines", len(req.Lines)))

	order, err := e.price(ctx, req)
	if err != nil {
		pricingRejections.WithLabelValues(bizerr.Kind(err)).Inc()
		if _, soft := bizerr.AsRejection(err); soft {
			span.AddEvent("coupon rejected", trace.WithAttributes(attribute.String("reason", err.Error())))
			return order, err
		}
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int64("order.money_final", order.MoneyFinal))
	return order, nil
}

func (e *PricingEngine) price(ctx context.Context, req *PriceOrderRequest) (*domain.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	in, err := e.load(ctx, req)
	if err != nil {
		return nil, err
	}
	now := e.now()

	o := &domain.Order{
		StoreID:        req.StoreID,
		CustomerID:     req.CustomerID,
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: req.DeliveryMethod,
		City:           req.City,
		District:       req.District,
		Address:        req.Address,
		Note:           req.Note,
	}
	if req.Receipt != nil {
		o.Receipt = &domain.OrderReceipt{
			CompanyName: req.Receipt.CompanyName,
			TaxCode:     req.Receipt.TaxCode,
			Address:     req.Receipt.Address,
			Email:       req.Receipt.Email,
		}
	}

	promoIDs := make(map[int64]struct{})
	lineGiftPromos := make(map[int64]struct{})
	var gifts []campaign.Gift

	// 1. 逐行解析单价、秒杀价与促销价
	for i, l := range req.Lines {
		p := in.products[i]
		d := domain.OrderDetail{
			LineNo:      i + 1,
			ProductID:   l.ProductID,
			VariationID: l.VariationID,
			Price:       p.Price,
			FinalPrice:  p.Price,
			Quantity:    l.Quantity,
		}

		if l.FlashSaleDetailID > 0 {
			fd, err := flashSaleDetail(in.flashSales, l.FlashSaleDetailID, req.StoreID, l.ProductID, now)
			if err != nil {
				return nil, err
			}
			d.FlashSaleDetailID = fd.ID
			d.FinalPrice = fd.Price
			d.DiscountFlashSale = max(0, d.Price-fd.Price)
		}

		if l.PromotionDetailID > 0 {
			promo, pd, err := promotionDetail(in.linePromos, l.PromotionDetailID, req.StoreID, now)
			if err != nil {
				return nil, err
			}
			if pd.IsGift || pd.ProductID != l.ProductID {
				return nil, fmt.Errorf("%w: promotion detail %d does not discount product %d", domain.ErrInvalidLine, pd.ID, l.ProductID)
			}
			d.PromotionDetailID = pd.ID
			d.FinalPrice = pd.FinalPrice
			d.Discount = max(0, d.Price-pd.FinalPrice)
			promoIDs[promo.ID] = struct{}{}
		}

		if l.PromotionGiftDetailID > 0 {
			promo, pd, err := promotionDetail(in.linePromos, l.PromotionGiftDetailID, req.StoreID, now)
			if err != nil {
				return nil, err
			}
			if !pd.IsGift {
				return nil, fmt.Errorf("%w: promotion detail %d is not a gift rule", domain.ErrInvalidLine, pd.ID)
			}
			if !promo.Scope().Includes(l.ProductID) {
				return nil, fmt.Errorf("%w: product %d is outside promotion %d", domain.ErrInvalidLine, l.ProductID, promo.ID)
			}
			rule := campaign.GiftRule{DetailID: pd.ID, ProductID: pd.ProductID, Needed: pd.Needed, Quantity: pd.Quantity}
			if g, ok := campaign.GenerateLineGift(rule, d.LineNo, d.Quantity); ok {
				gifts = append(gifts, g)
			}
			d.PromotionGiftDetailID = pd.ID
			promoIDs[promo.ID] = struct{}{}
			lineGiftPromos[promo.ID] = struct{}{}
		}

		if err := checkLineMoney(d); err != nil {
			return nil, err
		}
		d.RefPoints = campaign.PercentOf(d.Amount(), p.CategoryRefPoint)
		o.Details = append(o.Details, d)
	}

	// 2. 商品金额
	var sum money
	for _, d := range o.Details {
		o.MoneyProductOrigin = sum.add(o.MoneyProductOrigin, d.Price*d.Quantity)
		o.MoneyDiscountFlashSale = sum.add(o.MoneyDiscountFlashSale, d.DiscountFlashSale*d.Quantity)
		o.MoneyProduct = sum.add(o.MoneyProduct, d.Amount())
		o.TotalRefPoints = sum.add(o.TotalRefPoints, d.RefPoints)
	}
	if sum.overflow || o.MoneyProduct < 0 {
		return nil, fmt.Errorf("%w: order total is too large", domain.ErrAmountOverflow)
	}
	lines := calcLines(o.Details)

	// 3. 订单级促销：校验归属与有效期，同一类型最多一个
	byType, err := groupPromotions(req.PromotionIDs, in.orderPromos, req.StoreID, now)
	if err != nil {
		return nil, err
	}
	// 同一个促销不能既按行又按订单使用
	for _, p := range byType {
		if _, ok := lineGiftPromos[p.ID]; ok {
			return nil, fmt.Errorf("%w: promotion %d is attached to a line and to the order", domain.ErrDuplicatePromotion, p.ID)
		}
	}
	for _, p := range in.orderPromos {
		promoIDs[p.ID] = struct{}{}
	}

	// 9. 运费先于免运费促销确定
	o.ShipFee = e.shipFee(in.config, req)

	// 4. 赠品
	if p, ok := byType[campaign.DiscountGift]; ok && o.MoneyProduct >= p.ConditionValue {
		qualified := campaign.Qualify(p.Scope(), lines)
		gifts = append(gifts, campaign.GenerateOrderGifts(p.GiftRules(), qualified.QualifyingQuantity)...)
	}

	// 5. 免运费
	if p, ok := byType[campaign.DiscountShipFee]; ok && o.MoneyProduct >= p.ConditionValue {
		o.MoneyDiscountShipFee = o.ShipFee
	}

	// 6. 固定金额与百分比促销，不满足条件是硬错误
	for _, t := range []campaign.DiscountType{campaign.DiscountFixed, campaign.DiscountPercent} {
		p, ok := byType[t]
		if !ok {
			continue
		}
		amount, err := promotionAmount(p, lines)
		if err != nil {
			return nil, err
		}
		o.MoneyDiscount += amount
	}

	// 赠券促销在订单完成时执行
	if p, ok := byType[campaign.DiscountCoupon]; ok && p.ConditionValue <= o.MoneyProduct {
		o.RewardCouponCampaignIDs = append(o.RewardCouponCampaignIDs, p.CouponCampaignID)
	}

	// 7. 优惠券
	var rejection *bizerr.Rejection
	var couponLines []int
	if in.couponCampaign != nil {
		discount, outcome, err := e.applyCoupon(o, in, lines, now)
		if err != nil {
			return nil, err
		}
		if outcome.Rejection != nil {
			rejection = outcome.Rejection
			o.CouponMsg = rejection.Message
			o.IsExpiredCoupon = rejection.Code == campaign.RejectExpired
		} else {
			o.MoneyDiscountCoupon = outcome.Amount
			couponLines = outcome.QualifyingLines
			if _, isGift := discount.(campaign.GiftDiscount); isGift {
				gifts = append(gifts, campaign.GenerateOrderGifts(in.couponCampaign.GiftRules(), outcome.QualifyingQuantity)...)
			}
		}
	}

	// 折扣不能超过商品金额，超出部分先从优惠券扣除
	if over := o.MoneyDiscount + o.MoneyDiscountCoupon - o.MoneyProduct; over > 0 {
		cut := min(over, o.MoneyDiscountCoupon)
		o.MoneyDiscountCoupon -= cut
		o.MoneyDiscount -= over - cut
	}
	allocateCoupon(o, couponLines)

	// 8. 折扣合计
	o.TotalMoneyDiscount = o.MoneyDiscount + o.MoneyDiscountCoupon + o.MoneyDiscountShipFee

	// 10. 税
	base := max(0, o.MoneyProduct-o.TotalMoneyDiscount)
	for _, t := range in.config.ActiveTaxes() {
		amount := campaign.PercentOf(base, t.Value)
		o.Taxes = append(o.Taxes, domain.OrderTax{TaxID: t.ID, Name: t.Name, Rate: t.Value.String(), Amount: amount})
		o.MoneyVat = sum.add(o.MoneyVat, amount)
	}

	// 11. 应付金额
	o.MoneyFinal = sum.add(sum.add(o.MoneyProduct, o.MoneyVat), o.ShipFee) - o.TotalMoneyDiscount
	if sum.overflow {
		return nil, fmt.Errorf("%w: order total is too large", domain.ErrAmountOverflow)
	}
	if err := o.CheckBalance(); err != nil {
		return nil, err
	}

	// 12. 积分
	rate := in.config.PointRefundRate()
	o.PointRate = rate.String()
	o.TotalPoints = decimal.NewFromInt(o.MoneyFinal).Mul(rate).Round(0).IntPart()
	o.RewardPoints = in.config.RewardPoints()

	o.Gifts = giftLines(gifts, len(o.Details))
	o.PromotionIDs = sortedIDs(promoIDs)

	if rejection != nil {
		return o, rejection
	}
	return o, nil
}

func (e *PricingEngine) shipFee(cfg *domain.StoreConfig, req *PriceOrderRequest) int64 {
	switch req.DeliveryMethod {
	case domain.DeliveryAtStore:
		return 0
	case domain.DeliveryFactory:
		return cfg.FactoryShipFee()
	default:
		return cfg.ShipFeeFor(req.City, req.District, e.defaultShipFee)
	}
}

// applyCoupon 校验优惠券归属后计算优惠。
// 券的归属、使用状态与门店不符是硬错误；过期与购物车不满足条件是软拒绝。
func (e *PricingEngine) applyCoupon(o *domain.Order, in *pricingInputs, lines []campaign.Line, now time.Time) (campaign.Discount, campaign.Outcome, error) {
	cc := in.couponCampaign
	if cc.StoreID != o.StoreID {
		return nil, campaign.Outcome{}, fmt.Errorf("%w: coupon campaign %d belongs to another store", domain.ErrCouponInvalid, cc.ID)
	}
	d, err := cc.Discount()
	if err != nil {
		return nil, campaign.Outcome{}, err
	}
	o.CouponCampaignID = cc.ID

	expired := cc.Window.Expired(now) || now.Before(cc.Window.StartAt)
	if c := in.coupon; c != nil {
		if c.CustomerID != o.CustomerID {
			return nil, campaign.Outcome{}, fmt.Errorf("%w: coupon %s belongs to another customer", domain.ErrCouponInvalid, c.Code)
		}
		if c.IsUsed {
			return nil, campaign.Outcome{}, fmt.Errorf("%w: coupon %s", campaign.ErrCouponAlreadyUsed, c.Code)
		}
		o.CustomerCouponID = c.ID
		o.CustomerCouponCode = c.Code
		expired = expired || c.Expired(now)
	} else if cc.ApplyFor != campaign.ApplyForAll {
		return nil, campaign.Outcome{}, fmt.Errorf("%w: campaign %d requires an issued coupon code", domain.ErrCouponInvalid, cc.ID)
	}

	if expired {
		return d, campaign.Outcome{Rejection: bizerr.Reject(campaign.RejectExpired, "coupon is expired")}, nil
	}
	return d, campaign.Compute(d, cc.Scope(), cc.ConditionValue, lines), nil
}

// money 累加金额并记录是否溢出
type money struct {
	overflow bool
}

func (m *money) add(a, b int64) int64 {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		m.overflow = true
		return a
	}
	return a + b
}

// checkLineMoney 保证单行金额的乘法不会溢出。
func checkLineMoney(d domain.OrderDetail) error {
	limit := math.MaxInt64 / d.Quantity
	if d.Price > limit || d.FinalPrice > limit || d.DiscountFlashSale > limit || d.Price < 0 || d.FinalPrice < 0 {
		return fmt.Errorf("%w: line %d amount is out of range", domain.ErrAmountOverflow, d.LineNo)
	}
	return nil
}

// promotionAmount 计算固定金额或百分比促销；范围或门槛不满足时返回硬错误。
func promotionAmount(p *campaign.PromotionCampaign, lines []campaign.Line) (int64, error) {
	d, err := p.Discount()
	if err != nil {
		return 0, err
	}
	outcome := campaign.Compute(d, p.Scope(), p.ConditionValue, lines)
	if outcome.Rejection != nil {
		return 0, fmt.Errorf("%w: promotion %d: %s", domain.ErrPromotionBelowMinimum, p.ID, outcome.Rejection.Message)
	}
	return outcome.Amount, nil
}

func validatePromotion(p *campaign.PromotionCampaign, storeID int64, now time.Time) error {
	if p.StoreID != storeID {
		return fmt.Errorf("%w: promotion %d", domain.ErrPromotionForeign, p.ID)
	}
	if p.Window.Expired(now) || now.Before(p.Window.StartAt) {
		return fmt.Errorf("%w: promotion %d", domain.ErrPromotionExpired, p.ID)
	}
	return nil
}

// groupPromotions 校验订单级促销并按类型分组。
func groupPromotions(ids []int64, promos []*campaign.PromotionCampaign, storeID int64, now time.Time) (map[campaign.DiscountType]*campaign.PromotionCampaign, error) {
	found := make(map[int64]*campaign.PromotionCampaign, len(promos))
	for _, p := range promos {
		found[p.ID] = p
	}
	byType := make(map[campaign.DiscountType]*campaign.PromotionCampaign)
	seen := make(map[int64]struct{})
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := found[id]
		if !ok {
			return nil, bizerr.NotFound("promotion", id)
		}
		if err := validatePromotion(p, storeID, now); err != nil {
			return nil, err
		}
		if prev, dup := byType[p.DiscountType]; dup {
			return nil, fmt.Errorf("%w: %s promotions %d and %d", domain.ErrDuplicatePromotion, p.DiscountType, prev.ID, p.ID)
		}
		byType[p.DiscountType] = p
	}
	return byType, nil
}

func promotionDetail(promos []*campaign.PromotionCampaign, detailID, storeID int64, now time.Time) (*campaign.PromotionCampaign, campaign.PromotionCampaignDetail, error) {
	for _, p := range promos {
		if d, ok := p.Detail(detailID); ok {
			if err := validatePromotion(p, storeID, now); err != nil {
				return nil, d, err
			}
			return p, d, nil
		}
	}
	return nil, campaign.PromotionCampaignDetail{}, bizerr.NotFound("promotion detail", detailID)
}

// flashSaleDetail 要求秒杀明细属于本门店正在进行的秒杀，且商品一致。
func flashSaleDetail(sales []*campaign.FlashSaleCampaign, detailID, storeID, productID int64, now time.Time) (campaign.FlashSaleCampaignDetail, error) {
	for _, f := range sales {
		d, ok := f.Detail(detailID)
		if !ok {
			continue
		}
		if f.StoreID != storeID || !f.Window.Contains(now) || d.ProductID != productID {
			return d, fmt.Errorf("%w: detail %d", domain.ErrFlashSaleInvalid, detailID)
		}
		return d, nil
	}
	return campaign.FlashSaleCampaignDetail{}, bizerr.NotFound("flash sale detail", detailID)
}

func calcLines(details []domain.OrderDetail) []campaign.Line {
	lines := make([]campaign.Line, 0, len(details))
	for _, d := range details {
		lines = append(lines, campaign.Line{
			LineNo:     d.LineNo,
			ProductID:  d.ProductID,
			FinalPrice: d.FinalPrice,
			Quantity:   d.Quantity,
			IsGift:     d.IsGift,
		})
	}
	return lines
}

// allocateCoupon 把券优惠按金额比例分摊到适用行。
func allocateCoupon(o *domain.Order, lineNos []int) {
	if o.MoneyDiscountCoupon == 0 || len(lineNos) == 0 {
		return
	}
	idx := make([]int, 0, len(lineNos))
	var lines []campaign.Line
	for _, no := range lineNos {
		for i := range o.Details {
			if o.Details[i].LineNo == no {
				idx = append(idx, i)
				lines = append(lines, campaign.Line{LineNo: no, FinalPrice: o.Details[i].FinalPrice, Quantity: o.Details[i].Quantity})
			}
		}
	}
	for k, share := range campaign.Allocate(o.MoneyDiscountCoupon, lines) {
		o.Details[idx[k]].DiscountCoupon = share
	}
}

// giftLines 把生成的赠品编号接在购买行之后。
func giftLines(gifts []campaign.Gift, offset int) []domain.OrderDetail {
	out := make([]domain.OrderDetail, 0, len(gifts))
	for i, g := range gifts {
		out = append(out, domain.OrderDetail{
			LineNo:                offset + i + 1,
			ParentLineNo:          g.ParentLineNo,
			ProductID:             g.ProductID,
			Quantity:              g.Quantity,
			IsGift:                true,
			PromotionGiftDetailID: g.DetailID,
		})
	}
	return out
}

func sortedIDs(ids map[int64]struct{}) []int64 {
	return slices.Sorted(maps.Keys(ids))
}
