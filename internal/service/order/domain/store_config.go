package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// 门店参数名
const (
	ParamPointRefundRate = "point_refund_rate"
	ParamRewardPoints    = "reward_points"
	ParamDefaultShipFee  = "default_ship_fee"
	ParamFactoryShipFee  = "factory_ship_fee"
)

// ProductTax 是门店的一个税种，Value 为百分比
type ProductTax struct {
	ID     int64
	Name   string
	Value  decimal.Decimal
	Active bool
}

// ShipFeeRule 是运费表的一行，District 为空表示整个城市
type ShipFeeRule struct {
	City     string
	District string
	Fee      int64
}

// StoreConfig 是门店定价配置的不可变快照，构造后不要修改。
type StoreConfig struct {
	StoreID  int64
	Taxes    []ProductTax
	ShipFees []ShipFeeRule
	Params   map[string]string
	LoadedAt time.Time
}

func (c *StoreConfig) Param(name string) (string, bool) {
	v, ok := c.Params[name]
	return v, ok
}

func (c *StoreConfig) intParam(name string, fallback int64) int64 {
	v, ok := c.Param(name)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// PointRefundRate 是订单金额换算积分的比例，未配置时为 0。
func (c *StoreConfig) PointRefundRate() decimal.Decimal {
	v, ok := c.Param(ParamPointRefundRate)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (c *StoreConfig) RewardPoints() int64 {
	return c.intParam(ParamRewardPoints, 0)
}

func (c *StoreConfig) FactoryShipFee() int64 {
	return c.intParam(ParamFactoryShipFee, 0)
}

// ShipFeeFor 依次按 (city, district)、(city) 查找，找不到时使用门店默认运费，再退回 fallback。
func (c *StoreConfig) ShipFeeFor(city, district string, fallback int64) int64 {
	if district != "" {
		for _, r := range c.ShipFees {
			if r.City == city && r.District == district {
				return r.Fee
			}
		}
	}
	for _, r := range c.ShipFees {
		if r.City == city && r.District == "" {
			return r.Fee
		}
	}
	return c.intParam(ParamDefaultShipFee, fallback)
}

// ActiveTaxes 返回生效中的税种。
func (c *StoreConfig) ActiveTaxes() []ProductTax {
	var out []ProductTax
	for _, t := range c.Taxes {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}
