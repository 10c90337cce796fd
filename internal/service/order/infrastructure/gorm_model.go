package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应 orders 表，赠品行与购买行一起存放在 order_detail
type OrderModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Code           string `gorm:"size:32;uniqueIndex:idx_store_code"`
	StoreID        int64  `gorm:"uniqueIndex:idx_store_code"`
	CustomerID     int64  `gorm:"index"`
	Status         string `gorm:"size:16;index"`
	PaymentStatus  string `gorm:"size:16"`
	DeliveryStatus string `gorm:"size:16"`
	PaymentMethod  string `gorm:"size:16"`
	DeliveryMethod string `gorm:"size:16"`
	City           string `gorm:"size:64"`
	District       string `gorm:"size:64"`
	Address        string `gorm:"size:255"`
	Note           string `gorm:"size:255"`

	MoneyProductOrigin     int64
	MoneyProduct           int64
	MoneyVat               int64
	ShipFee                int64
	MoneyDiscount          int64
	MoneyDiscountCoupon    int64
	MoneyDiscountShipFee   int64
	MoneyDiscountFlashSale int64
	TotalMoneyDiscount     int64
	MoneyFinal             int64

	TotalPoints    int64
	TotalRefPoints int64
	PointRate      string `gorm:"size:32"`
	RewardPoints   int64

	CouponMsg               string `gorm:"size:255"`
	IsExpiredCoupon         bool
	CouponCampaignID        int64
	CustomerCouponID        int64
	CustomerCouponCode      string  `gorm:"size:64"`
	PromotionIDs            []int64 `gorm:"serializer:json"`
	RewardCouponCampaignIDs []int64 `gorm:"serializer:json"`

	Details []OrderDetailModel `gorm:"foreignKey:OrderID"`
	Receipt *OrderReceiptModel `gorm:"foreignKey:OrderID"`
	Taxes   []OrderTaxModel    `gorm:"foreignKey:OrderID"`
	Logs    []OrderLogModel    `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

type OrderDetailModel struct {
	ID                    int64  `gorm:"primaryKey"`
	OrderID               string `gorm:"size:36;index"`
	LineNo                int
	ParentLineNo          int
	ProductID             int64
	VariationID           int64
	Price                 int64
	FinalPrice            int64
	Discount              int64
	DiscountCoupon        int64
	DiscountFlashSale     int64
	Quantity              int64
	IsGift                bool
	FlashSaleDetailID     int64 `gorm:"index"`
	PromotionDetailID     int64
	PromotionGiftDetailID int64
	IsOutOfStockFlashSale bool
	RefPoints             int64
}

func (OrderDetailModel) TableName() string {
	return "order_detail"
}

type OrderReceiptModel struct {
	ID          int64  `gorm:"primaryKey"`
	OrderID     string `gorm:"size:36;uniqueIndex"`
	CompanyName string `gorm:"size:255"`
	TaxCode     string `gorm:"size:64"`
	Address     string `gorm:"size:255"`
	Email       string `gorm:"size:128"`
}

func (OrderReceiptModel) TableName() string {
	return "order_receipt"
}

type OrderTaxModel struct {
	ID      int64  `gorm:"primaryKey"`
	OrderID string `gorm:"size:36;index"`
	TaxID   int64
	Name    string `gorm:"size:64"`
	Rate    string `gorm:"size:16"`
	Amount  int64
}

func (OrderTaxModel) TableName() string {
	return "order_tax"
}

// OrderLogModel 对应 order_log 表，只追加
type OrderLogModel struct {
	ID         int64  `gorm:"primaryKey"`
	OrderID    string `gorm:"size:36;index"`
	FromStatus string `gorm:"size:16"`
	ToStatus   string `gorm:"size:16"`
	Note       string `gorm:"size:255"`
	CreatedAt  time.Time
}

func (OrderLogModel) TableName() string {
	return "order_log"
}

// StoreParamModel 是门店的键值参数
type StoreParamModel struct {
	ID      int64  `gorm:"primaryKey"`
	StoreID int64  `gorm:"uniqueIndex:idx_store_param"`
	Name    string `gorm:"size:64;uniqueIndex:idx_store_param"`
	Value   string `gorm:"size:255"`
}

func (StoreParamModel) TableName() string {
	return "store_params"
}

type ProductTaxModel struct {
	ID      int64           `gorm:"primaryKey"`
	StoreID int64           `gorm:"index"`
	Name    string          `gorm:"size:64"`
	Value   decimal.Decimal `gorm:"type:decimal(5,2)"`
	Active  bool
}

func (ProductTaxModel) TableName() string {
	return "product_taxes"
}

type ShipFeeModel struct {
	ID       int64  `gorm:"primaryKey"`
	StoreID  int64  `gorm:"index"`
	City     string `gorm:"size:64"`
	District string `gorm:"size:64"`
	Fee      int64
}

func (ShipFeeModel) TableName() string {
	return "ship_fees"
}

// Models 返回需要迁移的全部模型。
func Models() []any {
	return []any{
		&OrderModel{}, &OrderDetailModel{}, &OrderReceiptModel{}, &OrderTaxModel{}, &OrderLogModel{},
		&StoreParamModel{}, &ProductTaxModel{}, &ShipFeeModel{},
	}
}
