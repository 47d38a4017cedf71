package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yitao-mall/stock-engine/internal/adapter/storage"
	"github.com/yitao-mall/stock-engine/internal/core/domain"
	"github.com/yitao-mall/stock-engine/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/stockengine?parseTime=true"
	redisAddr     = "localhost:6379"
	initialStock  = 20
	totalRequests = 50
)

// Drives the flash-sale decrement path with more concurrent buyers than
// units and checks that the ledger sold exactly initialStock of them.
func main() {
	ctx := context.Background()
	skuID := "stress-" + uuid.NewString()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Seed a stock row with everything in the flash-sale pool.
	_, err = db.ExecContext(ctx, `
		INSERT INTO stock (sku_id, available, seckill_reserved, seckill_total)
		VALUES (?, 0, ?, ?)`,
		skuID, initialStock, initialStock,
	)
	if err != nil {
		log.Fatalf("failed to seed stock: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM stock WHERE sku_id = ?`, skuID)

	logger := zap.NewNop()
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	seckillService := service.NewSeckillService(
		mysqlAdapter, mysqlAdapter, mysqlAdapter, redisAdapter, noopPublisher{}, logger)
	purchaseService := service.NewPurchaseService(mysqlAdapter, seckillService, logger)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := purchaseService.Purchase(ctx, skuID, 1, true); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d purchases succeeded, %d rejected\n",
			initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	rec, err := mysqlAdapter.GetStock(ctx, skuID)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Reserved Stock: %d\n", rec.SeckillReserved)

	if rec.SeckillReserved == 0 {
		fmt.Println("PASS: Flash-sale stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected reserved 0, got %d\n", rec.SeckillReserved)
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ domain.EventType, _ string) error {
	return nil
}
