package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
)

// MySQLAdapter implements the stock ledger, campaign registry and catalog
// over one MySQL database. Oversell prevention is the conditional UPDATE:
// the guard (`available >= ?`) and the subtraction are a single statement,
// so MySQL's row lock serializes writers per SKU and a failed guard touches
// nothing. RowsAffected == 0 is the "insufficient" signal.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetSku(ctx context.Context, id string) (*domain.Sku, error) {
	var sku domain.Sku
	err := m.db.QueryRowContext(ctx, `
		SELECT id, title, price, image FROM sku WHERE id = ?`, id,
	).Scan(&sku.ID, &sku.Title, &sku.Price, &sku.Image)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sku %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query sku: %w", err)
	}
	return &sku, nil
}

func (m *MySQLAdapter) GetStock(ctx context.Context, skuID string) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := m.db.QueryRowContext(ctx, `
		SELECT sku_id, available, seckill_reserved, seckill_total, updated_at
		FROM stock WHERE sku_id = ?`, skuID,
	).Scan(&rec.SkuID, &rec.Available, &rec.SeckillReserved, &rec.SeckillTotal, &rec.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query stock: %w", err)
	}
	return &rec, nil
}

func (m *MySQLAdapter) DecreaseAvailable(ctx context.Context, skuID string, qty int) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE stock
		SET available = available - ?, updated_at = NOW()
		WHERE sku_id = ? AND available >= ?`,
		qty, skuID, qty,
	)
	if err != nil {
		return fmt.Errorf("decrease available: %w", err)
	}
	return m.checkConditional(ctx, res, skuID, domain.ErrOutOfStock)
}

func (m *MySQLAdapter) DecreaseSeckillReserved(ctx context.Context, skuID string, qty int) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE stock
		SET seckill_reserved = seckill_reserved - ?, updated_at = NOW()
		WHERE sku_id = ? AND seckill_reserved >= ?`,
		qty, skuID, qty,
	)
	if err != nil {
		return fmt.Errorf("decrease seckill reserved: %w", err)
	}
	return m.checkConditional(ctx, res, skuID, domain.ErrOutOfStock)
}

func (m *MySQLAdapter) AllocateToSeckill(ctx context.Context, skuID string, qty int) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE stock
		SET available = available - ?,
		    seckill_reserved = seckill_reserved + ?,
		    seckill_total = seckill_total + ?,
		    updated_at = NOW()
		WHERE sku_id = ? AND available >= ?`,
		qty, qty, qty, skuID, qty,
	)
	if err != nil {
		return fmt.Errorf("allocate to seckill: %w", err)
	}
	return m.checkConditional(ctx, res, skuID, domain.ErrInsufficientStock)
}

func (m *MySQLAdapter) IncreaseAvailable(ctx context.Context, skuID string, qty int) error {
	return m.increase(ctx, skuID, qty, `
		UPDATE stock SET available = available + ?, updated_at = NOW()
		WHERE sku_id = ?`)
}

func (m *MySQLAdapter) IncreaseSeckillReserved(ctx context.Context, skuID string, qty int) error {
	return m.increase(ctx, skuID, qty, `
		UPDATE stock SET seckill_reserved = seckill_reserved + ?, updated_at = NOW()
		WHERE sku_id = ?`)
}

func (m *MySQLAdapter) increase(ctx context.Context, skuID string, qty int, query string) error {
	res, err := m.db.ExecContext(ctx, query, qty, skuID)
	if err != nil {
		return fmt.Errorf("increase stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	return nil
}

// checkConditional maps a zero-row conditional update to its business error,
// or to ErrNotFound when the SKU has no stock row at all.
func (m *MySQLAdapter) checkConditional(ctx context.Context, res sql.Result, skuID string, rejection error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var one int
	err = m.db.QueryRowContext(ctx, `SELECT 1 FROM stock WHERE sku_id = ?`, skuID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("stock %s: %w", skuID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("probe stock row: %w", err)
	}
	return rejection
}

func (m *MySQLAdapter) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO seckill_campaign
			(id, sku_id, title, image, seckill_price, allocated_stock,
			 start_time, end_time, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SkuID, c.Title, c.Image, c.SeckillPrice, c.AllocatedStock,
		c.StartTime, c.EndTime, c.Enabled, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE stock
		SET available = available - ?,
		    seckill_reserved = seckill_reserved + ?,
		    seckill_total = seckill_total + ?,
		    updated_at = NOW()
		WHERE sku_id = ? AND available >= ?`,
		c.AllocatedStock, c.AllocatedStock, c.AllocatedStock, c.SkuID, c.AllocatedStock,
	)
	if err != nil {
		return fmt.Errorf("allocate campaign stock: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		// Rollback drops the campaign row with it.
		var one int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM stock WHERE sku_id = ?`, c.SkuID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("stock %s: %w", c.SkuID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("probe stock row: %w", err)
		}
		return fmt.Errorf("sku %s: %w", c.SkuID, domain.ErrInsufficientStock)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListActive(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sku_id, title, image, seckill_price, allocated_stock,
		       start_time, end_time, enabled, created_at
		FROM seckill_campaign
		WHERE enabled = 1 AND start_time <= ? AND end_time > ?
		ORDER BY id`,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("query active campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID, &c.SkuID, &c.Title, &c.Image, &c.SeckillPrice, &c.AllocatedStock,
			&c.StartTime, &c.EndTime, &c.Enabled, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return campaigns, nil
}
