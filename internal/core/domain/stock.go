package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sku is a purchasable product variant. Catalog-owned, read-only here.
type Sku struct {
	ID    string
	Title string
	Price decimal.Decimal
	Image string
}

// StockRecord is the authoritative per-SKU stock row.
//
// Available and SeckillReserved never go negative: every decrement is a
// conditional update that either fully applies or leaves the row untouched.
// SeckillTotal only grows; it tracks cumulative flash-sale allocations for
// reporting.
type StockRecord struct {
	SkuID           string
	Available       int
	SeckillReserved int
	SeckillTotal    int
	UpdatedAt       time.Time
}

// PurchaseItem is one line of a checkout request. Not persisted.
type PurchaseItem struct {
	SkuID    string `json:"sku_id"`
	Quantity int    `json:"quantity"`
}
