package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
)

// Mock StockLedger: mutex-serialized conditional updates over an in-memory
// map, mirroring the per-SKU atomicity contract.
type mockLedger struct {
	mu      sync.Mutex
	records map[string]*domain.StockRecord
}

func newMockLedger(records ...domain.StockRecord) *mockLedger {
	m := &mockLedger{records: make(map[string]*domain.StockRecord)}
	for _, r := range records {
		rec := r
		m.records[rec.SkuID] = &rec
	}
	return m
}

func (m *mockLedger) GetStock(ctx context.Context, skuID string) (*domain.StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[skuID]
	if !ok {
		return nil, fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (m *mockLedger) DecreaseAvailable(ctx context.Context, skuID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[skuID]
	if !ok {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	if rec.Available < qty {
		return domain.ErrOutOfStock
	}
	rec.Available -= qty
	return nil
}

func (m *mockLedger) AllocateToSeckill(ctx context.Context, skuID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[skuID]
	if !ok {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	if rec.Available < qty {
		return fmt.Errorf("sku %s: %w", skuID, domain.ErrInsufficientStock)
	}
	rec.Available -= qty
	rec.SeckillReserved += qty
	rec.SeckillTotal += qty
	return nil
}

func (m *mockLedger) DecreaseSeckillReserved(ctx context.Context, skuID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[skuID]
	if !ok {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	if rec.SeckillReserved < qty {
		return domain.ErrOutOfStock
	}
	rec.SeckillReserved -= qty
	return nil
}

func (m *mockLedger) IncreaseAvailable(ctx context.Context, skuID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[skuID]
	if !ok {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	rec.Available += qty
	return nil
}

func (m *mockLedger) IncreaseSeckillReserved(ctx context.Context, skuID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[skuID]
	if !ok {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	rec.SeckillReserved += qty
	return nil
}

func (m *mockLedger) snapshot(skuID string) domain.StockRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.records[skuID]
}

// Mock CampaignRegistry: emulates the transactional create by only
// appending the campaign after the ledger allocation succeeds.
type mockRegistry struct {
	mu        sync.Mutex
	ledger    *mockLedger
	campaigns []domain.Campaign
}

func newMockRegistry(ledger *mockLedger) *mockRegistry {
	return &mockRegistry{ledger: ledger}
}

func (r *mockRegistry) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	if err := r.ledger.AllocateToSeckill(ctx, c.SkuID, c.AllocatedStock); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns = append(r.campaigns, c)
	return nil
}

func (r *mockRegistry) ListActive(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []domain.Campaign
	for _, c := range r.campaigns {
		if c.ActiveAt(now) {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

func (r *mockRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.campaigns)
}

// Mock Catalog
type mockCatalog struct {
	skus map[string]domain.Sku
}

func (c *mockCatalog) GetSku(ctx context.Context, id string) (*domain.Sku, error) {
	sku, ok := c.skus[id]
	if !ok {
		return nil, fmt.Errorf("sku %s: %w", id, domain.ErrNotFound)
	}
	return &sku, nil
}

// Mock SeckillCache: whole-map swap under a mutex.
type mockCache struct {
	mu           sync.Mutex
	snapshot     map[string]int
	replaceCalls int
}

func newMockCache() *mockCache {
	return &mockCache{snapshot: make(map[string]int)}
}

func (c *mockCache) ReplaceAll(ctx context.Context, stocks map[string]int) error {
	next := make(map[string]int, len(stocks))
	for k, v := range stocks {
		next[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = next
	c.replaceCalls++
	return nil
}

func (c *mockCache) GetRemaining(ctx context.Context, skuID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.snapshot[skuID]
	return n, ok, nil
}

// Mock EventPublisher
type publishedEvent struct {
	eventType domain.EventType
	entityID  string
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, eventType domain.EventType, entityID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, entityID: entityID})
	return nil
}

// Mock CacheRebuilder: signals each rebuild on a channel so tests can wait
// for the async trigger.
type mockRebuilder struct {
	calls chan struct{}
}

func newMockRebuilder() *mockRebuilder {
	return &mockRebuilder{calls: make(chan struct{}, 64)}
}

func (m *mockRebuilder) Rebuild(ctx context.Context) error {
	select {
	case m.calls <- struct{}{}:
	default:
	}
	return nil
}
