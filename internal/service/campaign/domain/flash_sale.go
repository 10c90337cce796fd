package domain

import (
	"fmt"
	"time"
)

// FlashSaleCampaign 是门店在限定时间内对部分商品的限量特价。
type FlashSaleCampaign struct {
	ID        int64
	StoreID   int64
	Name      string
	Window    TimeWindow
	Details   []FlashSaleCampaignDetail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FlashSaleCampaignDetail 维护三个计数器，始终满足 Pending + Sold <= Stock。
// Reserve、Commit、Release 与 ReverseCommit 是计数器规则的内存版本，
// FlashSaleLedger 的 SQL 实现用条件更新执行同样的规则，两者结果一致。
type FlashSaleCampaignDetail struct {
	ID         int64
	CampaignID int64
	ProductID  int64
	Price      int64
	Stock      int64
	Pending    int64
	Sold       int64
}

func (d *FlashSaleCampaignDetail) Available() int64 {
	return d.Stock - d.Pending - d.Sold
}

// Reserve 预占库存，失败时计数器不变。
func (d *FlashSaleCampaignDetail) Reserve(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrFlashSaleCounter)
	}
	if d.Pending+d.Sold+qty > d.Stock {
		return ErrFlashSaleOutOfStock
	}
	d.Pending += qty
	return nil
}

// Commit 把预占转为已售。
func (d *FlashSaleCampaignDetail) Commit(qty int64) error {
	if qty <= 0 || d.Pending < qty {
		return ErrFlashSaleCounter
	}
	d.Pending -= qty
	d.Sold += qty
	return nil
}

// Release 释放预占。
func (d *FlashSaleCampaignDetail) Release(qty int64) error {
	if qty <= 0 || d.Pending < qty {
		return ErrFlashSaleCounter
	}
	d.Pending -= qty
	return nil
}

// ReverseCommit 撤销已售，用于完成后退货。
func (d *FlashSaleCampaignDetail) ReverseCommit(qty int64) error {
	if qty <= 0 || d.Sold < qty {
		return ErrFlashSaleCounter
	}
	d.Sold -= qty
	return nil
}

func (f *FlashSaleCampaign) Detail(id int64) (FlashSaleCampaignDetail, bool) {
	for _, d := range f.Details {
		if d.ID == id {
			return d, true
		}
	}
	return FlashSaleCampaignDetail{}, false
}

func (f *FlashSaleCampaign) ProductIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(f.Details))
	for _, d := range f.Details {
		ids[d.ProductID] = struct{}{}
	}
	return ids
}

func (f *FlashSaleCampaign) Validate() error {
	if f.StoreID <= 0 {
		return fmt.Errorf("%w: store is required", ErrInvalidDiscount)
	}
	if !f.Window.Valid() {
		return ErrInvalidWindow
	}
	if len(f.Details) == 0 {
		return fmt.Errorf("%w: flash sale needs at least one product", ErrInvalidDiscount)
	}
	seen := make(map[int64]bool, len(f.Details))
	for _, d := range f.Details {
		if seen[d.ProductID] {
			return fmt.Errorf("%w: product %d listed twice", ErrInvalidDiscount, d.ProductID)
		}
		seen[d.ProductID] = true
		if d.Price < 0 || d.Stock < 0 || d.Pending < 0 || d.Sold < 0 || d.Pending+d.Sold > d.Stock {
			return fmt.Errorf("%w: product %d has invalid price or counters", ErrInvalidDiscount, d.ProductID)
		}
	}
	return nil
}

// CheckFlashSaleExclusive 校验秒杀与同店其他秒杀、以及共享商品的按商品百分比促销在时间上互斥。
func CheckFlashSaleExclusive(f *FlashSaleCampaign, otherFlashSales []*FlashSaleCampaign, promotions []*PromotionCampaign) error {
	for _, o := range otherFlashSales {
		if o.ID != f.ID && o.StoreID == f.StoreID && o.Window.Overlaps(f.Window) {
			return fmt.Errorf("%w: flash sale %d", ErrFlashSaleOverlap, o.ID)
		}
	}
	products := f.ProductIDs()
	for _, p := range promotions {
		if p.StoreID != f.StoreID || !p.IsPercentOnProducts() || !p.Window.Overlaps(f.Window) {
			continue
		}
		for id := range p.Scope().ProductIDs {
			if _, ok := products[id]; ok {
				return fmt.Errorf("%w: promotion %d shares product %d", ErrFlashSaleOverlap, p.ID, id)
			}
		}
	}
	return nil
}

// CheckPromotionExclusive 是 CheckFlashSaleExclusive 的对称校验。
func CheckPromotionExclusive(p *PromotionCampaign, flashSales []*FlashSaleCampaign) error {
	if !p.IsPercentOnProducts() {
		return nil
	}
	scope := p.Scope()
	for _, f := range flashSales {
		if f.StoreID != p.StoreID || !f.Window.Overlaps(p.Window) {
			continue
		}
		for id := range f.ProductIDs() {
			if scope.Includes(id) {
				return fmt.Errorf("%w: flash sale %d shares product %d", ErrPromotionOverlap, f.ID, id)
			}
		}
	}
	return nil
}
