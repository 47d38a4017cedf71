package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
	"github.com/yitao-mall/stock-engine/internal/port"
)

// AdmitParams describes a campaign admission request.
type AdmitParams struct {
	SkuID     string
	StartTime time.Time
	EndTime   time.Time
	Quantity  int
	Discount  decimal.Decimal
}

func (p AdmitParams) validate() error {
	if p.SkuID == "" {
		return fmt.Errorf("%w: sku id is required", domain.ErrValidation)
	}
	if !p.EndTime.After(p.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", domain.ErrValidation)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if p.Discount.LessThanOrEqual(decimal.Zero) || p.Discount.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: discount must be in (0, 1]", domain.ErrValidation)
	}
	return nil
}

// SeckillService owns campaign admission and the fast-path cache: it carves
// flash-sale stock out of the general pool, keeps the cache a faithful
// snapshot of the ledger, and serves the active-campaign listing.
type SeckillService struct {
	catalog   port.Catalog
	registry  port.CampaignRegistry
	ledger    port.StockLedger
	cache     port.SeckillCache
	publisher port.EventPublisher
	logger    *zap.Logger
}

func NewSeckillService(
	catalog port.Catalog,
	registry port.CampaignRegistry,
	ledger port.StockLedger,
	cache port.SeckillCache,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *SeckillService {
	return &SeckillService{
		catalog:   catalog,
		registry:  registry,
		ledger:    ledger,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// Admit creates a flash-sale campaign and transfers its allocation from the
// SKU's general pool. The registry write and the stock transfer commit
// together; on domain.ErrInsufficientStock nothing is persisted. The cache
// is rebuilt before returning, so a successful admit is immediately visible
// on the fast path.
func (s *SeckillService) Admit(ctx context.Context, p AdmitParams) (*domain.Campaign, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	sku, err := s.catalog.GetSku(ctx, p.SkuID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	campaign := domain.Campaign{
		ID:             uuid.NewString(),
		SkuID:          sku.ID,
		Title:          sku.Title,
		Image:          sku.Image,
		SeckillPrice:   domain.SeckillPrice(sku.Price, p.Discount),
		AllocatedStock: p.Quantity,
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		Enabled:        true,
		CreatedAt:      now,
	}

	if err := s.registry.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	if err := s.Rebuild(ctx); err != nil {
		// The campaign committed; the cache is derived state and the next
		// rebuild repairs it, but the caller should know it lagged.
		return nil, fmt.Errorf("rebuild seckill cache: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventCreated, campaign.ID); err != nil {
		s.logger.Warn("failed to publish campaign event",
			zap.String("campaign_id", campaign.ID),
			zap.Error(err))
	}

	return &campaign, nil
}

// Rebuild recomputes the fast-path cache from the ledger: remaining
// flash-sale stock for every currently active campaign, swapped in as one
// snapshot. Idempotent; concurrent rebuilds race benignly (last swap wins,
// each swap is a complete snapshot).
func (s *SeckillService) Rebuild(ctx context.Context) error {
	campaigns, err := s.registry.ListActive(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("list active campaigns: %w", err)
	}

	stocks := make(map[string]int, len(campaigns))
	for _, c := range campaigns {
		rec, err := s.ledger.GetStock(ctx, c.SkuID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("active campaign references missing stock row",
					zap.String("campaign_id", c.ID),
					zap.String("sku_id", c.SkuID))
				continue
			}
			return fmt.Errorf("read stock for %s: %w", c.SkuID, err)
		}
		stocks[c.SkuID] = rec.SeckillReserved
	}

	return s.cache.ReplaceAll(ctx, stocks)
}

// ListGoods returns active campaigns joined with their live flash-sale stock.
func (s *SeckillService) ListGoods(ctx context.Context) ([]domain.SeckillGoods, error) {
	campaigns, err := s.registry.ListActive(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}

	goods := make([]domain.SeckillGoods, 0, len(campaigns))
	for _, c := range campaigns {
		rec, err := s.ledger.GetStock(ctx, c.SkuID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("read stock for %s: %w", c.SkuID, err)
		}
		goods = append(goods, domain.SeckillGoods{
			Campaign:     c,
			Remaining:    rec.SeckillReserved,
			SeckillTotal: rec.SeckillTotal,
		})
	}
	return goods, nil
}
