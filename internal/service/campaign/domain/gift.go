package domain

// GiftRule 描述买满 Needed 件送 Quantity 件 ProductID。
type GiftRule struct {
	DetailID  int64
	ProductID int64
	Needed    int64
	Quantity  int64
}

// GiftQuantity = floor(purchased / needed) * perRatio，不足一个比例时为 0。
func GiftQuantity(purchased, needed, perRatio int64) int64 {
	if needed <= 0 || perRatio <= 0 || purchased <= 0 {
		return 0
	}
	rate := purchased / needed
	if rate < 1 {
		return 0
	}
	return rate * perRatio
}

// Gift 是生成的赠品，ParentLineNo 为 0 表示订单级赠品。
type Gift struct {
	ProductID    int64
	Quantity     int64
	ParentLineNo int
	DetailID     int64
}

// GenerateOrderGifts 对订单级赠品规则按可计入的购买数量生成赠品。
func GenerateOrderGifts(rules []GiftRule, purchased int64) []Gift {
	var gifts []Gift
	for _, r := range rules {
		if q := GiftQuantity(purchased, r.Needed, r.Quantity); q > 0 {
			gifts = append(gifts, Gift{ProductID: r.ProductID, Quantity: q, DetailID: r.DetailID})
		}
	}
	return gifts
}

// GenerateLineGift 对单个购买行生成赠品，没有赠品时第二个返回值为 false。
func GenerateLineGift(rule GiftRule, lineNo int, purchased int64) (Gift, bool) {
	q := GiftQuantity(purchased, rule.Needed, rule.Quantity)
	if q == 0 {
		return Gift{}, false
	}
	return Gift{ProductID: rule.ProductID, Quantity: q, ParentLineNo: lineNo, DetailID: rule.DetailID}, true
}
