package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	seckillStockKey   = "seckill:stock"
	seckillStagingKey = "seckill:stock:staging"
)

// replaceStockScript rebuilds the whole seckill hash atomically: populate a
// staging hash, then RENAME it over the live key. A reader concurrent with
// the script sees either the old hash or the new one in full — there is no
// delete-then-repopulate window where the cache looks empty.
var replaceStockScript = redis.NewScript(`
local live = KEYS[1]
local staging = KEYS[2]

redis.call('DEL', staging)

if #ARGV == 0 then
	redis.call('DEL', live)
	return 0
end

for i = 1, #ARGV, 2 do
	redis.call('HSET', staging, ARGV[i], ARGV[i + 1])
end
redis.call('RENAME', staging, live)
return #ARGV / 2
`)

// RedisAdapter implements the fast-path seckill stock cache as a single
// Redis hash of skuID -> remaining units.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) ReplaceAll(ctx context.Context, stocks map[string]int) error {
	args := make([]interface{}, 0, len(stocks)*2)
	for skuID, remaining := range stocks {
		args = append(args, skuID, strconv.Itoa(remaining))
	}

	err := replaceStockScript.Run(ctx, r.client, []string{seckillStockKey, seckillStagingKey}, args...).Err()
	if err != nil {
		return fmt.Errorf("replace seckill stock: %w", err)
	}
	return nil
}

func (r *RedisAdapter) GetRemaining(ctx context.Context, skuID string) (int, bool, error) {
	val, err := r.client.HGet(ctx, seckillStockKey, skuID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get seckill stock: %w", err)
	}

	remaining, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("parse seckill stock %q: %w", val, err)
	}
	return remaining, true, nil
}
