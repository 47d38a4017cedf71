package port

import (
	"context"
	"time"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
)

// StockLedger is the authoritative stock store. Every conditional operation
// is atomic per SKU: under concurrent callers it either fully applies or
// leaves the row untouched, so Available and SeckillReserved never go
// negative. Operations on different SKUs do not serialize against each other.
type StockLedger interface {
	// GetStock retrieves the stock row, domain.ErrNotFound if absent.
	GetStock(ctx context.Context, skuID string) (*domain.StockRecord, error)

	// DecreaseAvailable takes qty units from the general pool.
	// Returns domain.ErrOutOfStock when fewer than qty units remain.
	DecreaseAvailable(ctx context.Context, skuID string, qty int) error

	// AllocateToSeckill moves qty units from the general pool into the
	// flash-sale pool and bumps the cumulative total. Returns
	// domain.ErrInsufficientStock when the general pool cannot cover it.
	AllocateToSeckill(ctx context.Context, skuID string, qty int) error

	// DecreaseSeckillReserved takes qty units from the flash-sale pool.
	// Returns domain.ErrOutOfStock when fewer than qty units remain.
	DecreaseSeckillReserved(ctx context.Context, skuID string, qty int) error

	// IncreaseAvailable returns qty units to the general pool. Used to
	// compensate a partially applied batch purchase.
	IncreaseAvailable(ctx context.Context, skuID string, qty int) error

	// IncreaseSeckillReserved returns qty units to the flash-sale pool.
	IncreaseSeckillReserved(ctx context.Context, skuID string, qty int) error
}

// CampaignRegistry is the durable store of flash-sale campaign definitions.
type CampaignRegistry interface {
	// CreateCampaign persists the campaign and carves AllocatedStock out of
	// the SKU's general pool in one transaction: on
	// domain.ErrInsufficientStock (or any infrastructure failure) neither
	// the campaign row nor the stock mutation survives.
	CreateCampaign(ctx context.Context, c domain.Campaign) error

	// ListActive returns enabled campaigns whose window contains now,
	// ordered by campaign ID.
	ListActive(ctx context.Context, now time.Time) ([]domain.Campaign, error)
}

// Catalog supplies SKU metadata. External collaborator, read-only here.
type Catalog interface {
	// GetSku returns domain.ErrNotFound for unknown IDs.
	GetSku(ctx context.Context, id string) (*domain.Sku, error)
}
