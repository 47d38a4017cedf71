package port

import "context"

// SeckillCache is the fast-path mirror of remaining flash-sale stock for
// active campaigns. It is derived state: rebuildable from the ledger at any
// time and never authoritative.
type SeckillCache interface {
	// ReplaceAll swaps the whole mapping in one atomic step. Concurrent
	// readers see either the previous snapshot or the new one, never a mix
	// and never a transiently empty cache. An empty map clears the cache.
	ReplaceAll(ctx context.Context, stocks map[string]int) error

	// GetRemaining returns the cached remaining units for a SKU.
	// found == false means no active campaign covers the SKU; callers must
	// treat that as "not eligible", not as zero stock.
	GetRemaining(ctx context.Context, skuID string) (remaining int, found bool, err error)
}
