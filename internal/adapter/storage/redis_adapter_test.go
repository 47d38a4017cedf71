package storage

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestReplaceAll_SwapsSnapshot(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, seckillStockKey, seckillStagingKey)

	if err := adapter.ReplaceAll(ctx, map[string]int{"sku-a": 5, "sku-b": 9}); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	// A second rebuild with different contents fully supersedes the first:
	// dropped SKUs disappear, no leftovers.
	if err := adapter.ReplaceAll(ctx, map[string]int{"sku-b": 4, "sku-c": 7}); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	if _, found, _ := adapter.GetRemaining(ctx, "sku-a"); found {
		t.Error("sku-a should be absent after the swap")
	}

	remaining, found, err := adapter.GetRemaining(ctx, "sku-b")
	if err != nil {
		t.Fatalf("get remaining failed: %v", err)
	}
	if !found || remaining != 4 {
		t.Errorf("expected sku-b -> 4, got %d (found=%v)", remaining, found)
	}

	remaining, found, _ = adapter.GetRemaining(ctx, "sku-c")
	if !found || remaining != 7 {
		t.Errorf("expected sku-c -> 7, got %d (found=%v)", remaining, found)
	}
}

func TestReplaceAll_EmptyClearsCache(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, seckillStockKey, seckillStagingKey)

	if err := adapter.ReplaceAll(ctx, map[string]int{"sku-a": 5}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := adapter.ReplaceAll(ctx, map[string]int{}); err != nil {
		t.Fatalf("empty replace failed: %v", err)
	}

	if _, found, _ := adapter.GetRemaining(ctx, "sku-a"); found {
		t.Error("cache should be empty after replacing with no campaigns")
	}

	exists, _ := client.Exists(ctx, seckillStockKey).Result()
	if exists != 0 {
		t.Error("live key should be deleted when there are no active campaigns")
	}
}

func TestGetRemaining_Absent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, seckillStockKey, seckillStagingKey)

	_, found, err := adapter.GetRemaining(ctx, "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected absent for a SKU with no active campaign")
	}
}

func TestReplaceAll_NoStagingLeftovers(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, seckillStockKey, seckillStagingKey)

	if err := adapter.ReplaceAll(ctx, map[string]int{"sku-a": 1}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	exists, _ := client.Exists(ctx, seckillStagingKey).Result()
	if exists != 0 {
		t.Error("staging key must not survive a rebuild")
	}
}
