package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponCampaignModel 对应 coupon_campaign 表
type CouponCampaignModel struct {
	ID               int64  `gorm:"primaryKey"`
	StoreID          int64  `gorm:"index"`
	Name             string `gorm:"size:128"`
	Type             string `gorm:"size:32"`
	ConditionType    string `gorm:"size:32"`
	DiscountType     string `gorm:"size:32"`
	ApplyFor         string `gorm:"size:16"`
	StartAt          time.Time
	EndAt            time.Time
	ConditionValue   int64
	DiscountValue    decimal.Decimal `gorm:"type:decimal(12,2)"`
	DiscountMaxValue int64
	EligibilityRule  string                      `gorm:"type:text"`
	Details          []CouponCampaignDetailModel `gorm:"foreignKey:CampaignID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (CouponCampaignModel) TableName() string {
	return "coupon_campaign"
}

type CouponCampaignDetailModel struct {
	ID         int64 `gorm:"primaryKey"`
	CampaignID int64 `gorm:"index"`
	ProductID  int64
	IsGift     bool
	Needed     int64
	Quantity   int64
}

func (CouponCampaignDetailModel) TableName() string {
	return "coupon_campaign_detail"
}

// CustomerCouponModel 对应 customer_coupon 表
type CustomerCouponModel struct {
	ID          int64  `gorm:"primaryKey"`
	Code        string `gorm:"size:64;uniqueIndex"`
	CampaignID  int64  `gorm:"index"`
	CustomerID  int64  `gorm:"index"`
	IsUsed      bool
	UsedOrderID string `gorm:"size:64;index"`
	OrderID     string `gorm:"size:64"`
	ExpiredAt   time.Time
	CreatedAt   time.Time
}

func (CustomerCouponModel) TableName() string {
	return "customer_coupon"
}

// PromotionCampaignModel 对应 promotion_campaign 表
type PromotionCampaignModel struct {
	ID               int64  `gorm:"primaryKey"`
	StoreID          int64  `gorm:"index"`
	Name             string `gorm:"size:128"`
	ConditionType    string `gorm:"size:32"`
	DiscountType     string `gorm:"size:32"`
	StartAt          time.Time
	EndAt            time.Time
	ConditionValue   int64
	DiscountValue    decimal.Decimal `gorm:"type:decimal(12,2)"`
	DiscountMaxValue int64
	CouponCampaignID int64
	Details          []PromotionCampaignDetailModel `gorm:"foreignKey:CampaignID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (PromotionCampaignModel) TableName() string {
	return "promotion_campaign"
}

type PromotionCampaignDetailModel struct {
	ID         int64 `gorm:"primaryKey"`
	CampaignID int64 `gorm:"index"`
	ProductID  int64
	IsGift     bool
	Needed     int64
	Quantity   int64
	Price      int64
	FinalPrice int64
}

func (PromotionCampaignDetailModel) TableName() string {
	return "promotion_campaign_detail"
}

// FlashSaleCampaignModel 对应 flash_sale_campaign 表
type FlashSaleCampaignModel struct {
	ID        int64  `gorm:"primaryKey"`
	StoreID   int64  `gorm:"index"`
	Name      string `gorm:"size:128"`
	StartAt   time.Time
	EndAt     time.Time
	Details   []FlashSaleCampaignDetailModel `gorm:"foreignKey:CampaignID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FlashSaleCampaignModel) TableName() string {
	return "flash_sale_campaign"
}

// FlashSaleCampaignDetailModel 的三个计数器只通过条件更新修改
type FlashSaleCampaignDetailModel struct {
	ID         int64 `gorm:"primaryKey"`
	CampaignID int64 `gorm:"index"`
	ProductID  int64
	Price      int64
	Stock      int64
	Pending    int64
	Sold       int64
}

func (FlashSaleCampaignDetailModel) TableName() string {
	return "flash_sale_campaign_detail"
}

// Models 返回需要迁移的全部模型。
func Models() []any {
	return []any{
		&CouponCampaignModel{}, &CouponCampaignDetailModel{}, &CustomerCouponModel{},
		&PromotionCampaignModel{}, &PromotionCampaignDetailModel{},
		&FlashSaleCampaignModel{}, &FlashSaleCampaignDetailModel{},
	}
}
