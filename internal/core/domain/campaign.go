package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a flash-sale offer: a fixed allocation of one SKU's stock,
// sold at a discounted price inside [StartTime, EndTime).
//
// Campaigns are append-only. Disabling is the only mutation and happens
// outside this core; whether a campaign is live is always decided at read
// time from Enabled plus the window.
type Campaign struct {
	ID             string          `json:"id"`
	SkuID          string          `json:"sku_id"`
	Title          string          `json:"title"`
	Image          string          `json:"image"`
	SeckillPrice   decimal.Decimal `json:"seckill_price"`
	AllocatedStock int             `json:"allocated_stock"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Enabled        bool            `json:"enabled"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ActiveAt reports whether the campaign is live at the given instant.
func (c Campaign) ActiveAt(now time.Time) bool {
	return c.Enabled && !now.Before(c.StartTime) && now.Before(c.EndTime)
}

// SeckillGoods is a campaign joined with its SKU's live flash-sale stock,
// as served to listing callers.
type SeckillGoods struct {
	Campaign
	Remaining    int `json:"remaining"`
	SeckillTotal int `json:"seckill_total"`
}

// SeckillPrice computes the discounted unit price. Prices are money, so the
// product is rounded half-up to cents rather than left at full precision.
func SeckillPrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Mul(discount).Round(2)
}
