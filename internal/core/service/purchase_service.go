package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
	"github.com/yitao-mall/stock-engine/internal/port"
)

const rebuildTimeout = 5 * time.Second

// CacheRebuilder refreshes the fast-path cache from the ledger. Satisfied by
// *SeckillService.
type CacheRebuilder interface {
	Rebuild(ctx context.Context) error
}

// PurchaseService is the checkout hot path. Both purchase flavors resolve to
// one conditional decrement against the ledger; the ledger's per-SKU
// atomicity is the only synchronization, so purchases of different SKUs
// never contend.
type PurchaseService struct {
	ledger    port.StockLedger
	rebuilder CacheRebuilder
	logger    *zap.Logger
}

func NewPurchaseService(ledger port.StockLedger, rebuilder CacheRebuilder, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{
		ledger:    ledger,
		rebuilder: rebuilder,
		logger:    logger,
	}
}

// Purchase takes qty units of one SKU. Flash-sale purchases draw from the
// reserved pool and kick off a cache rebuild in the background; the fast
// path tolerates that brief staleness since the ledger stays authoritative.
// Returns domain.ErrOutOfStock when the pool cannot cover the request.
func (s *PurchaseService) Purchase(ctx context.Context, skuID string, qty int, flashSale bool) error {
	if err := validateItems([]domain.PurchaseItem{{SkuID: skuID, Quantity: qty}}); err != nil {
		return err
	}

	if err := s.decrement(ctx, skuID, qty, flashSale); err != nil {
		return err
	}

	if flashSale {
		s.triggerRebuild()
	}
	return nil
}

// PurchaseBatch takes stock for several SKUs with all-or-nothing semantics.
// There is no cross-SKU transaction, so a failed decrement compensates the
// ones already applied before the batch error is reported.
func (s *PurchaseService) PurchaseBatch(ctx context.Context, items []domain.PurchaseItem, flashSale bool) error {
	if err := validateItems(items); err != nil {
		return err
	}

	for i, it := range items {
		if err := s.decrement(ctx, it.SkuID, it.Quantity, flashSale); err != nil {
			s.compensate(ctx, items[:i], flashSale)
			return fmt.Errorf("sku %s: %w", it.SkuID, err)
		}
	}

	if flashSale {
		s.triggerRebuild()
	}
	return nil
}

func (s *PurchaseService) decrement(ctx context.Context, skuID string, qty int, flashSale bool) error {
	if flashSale {
		return s.ledger.DecreaseSeckillReserved(ctx, skuID, qty)
	}
	return s.ledger.DecreaseAvailable(ctx, skuID, qty)
}

// compensate re-increments the decrements already applied in a failed batch.
// Runs detached from the request context so a caller timeout cannot strand
// taken stock.
func (s *PurchaseService) compensate(ctx context.Context, applied []domain.PurchaseItem, flashSale bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rebuildTimeout)
	defer cancel()

	for _, it := range applied {
		var err error
		if flashSale {
			err = s.ledger.IncreaseSeckillReserved(ctx, it.SkuID, it.Quantity)
		} else {
			err = s.ledger.IncreaseAvailable(ctx, it.SkuID, it.Quantity)
		}
		if err != nil {
			s.logger.Error("CRITICAL: batch compensation failed, stock leaked",
				zap.String("sku_id", it.SkuID),
				zap.Int("quantity", it.Quantity),
				zap.Bool("flash_sale", flashSale),
				zap.Error(err))
		}
	}
}

func (s *PurchaseService) triggerRebuild() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()
		if err := s.rebuilder.Rebuild(ctx); err != nil {
			s.logger.Warn("async seckill cache rebuild failed", zap.Error(err))
		}
	}()
}

func validateItems(items []domain.PurchaseItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty purchase", domain.ErrValidation)
	}
	for _, it := range items {
		if it.SkuID == "" {
			return fmt.Errorf("%w: sku id is required", domain.ErrValidation)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}
	}
	return nil
}
