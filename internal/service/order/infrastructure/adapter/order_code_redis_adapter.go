package adapter

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/pkg/redis"
)

const orderSeqScriptName = "order_seq"

// 当天序号的 key 保留两天，跨零点的请求不会拿到重复序号
const orderSeqTTL = 48 * time.Hour

// OrderCodeRedisAdapter 用 Redis 的按天自增序号生成订单号：OD + yyMMdd + 门店 + 5 位序号。
type OrderCodeRedisAdapter struct {
	redisClient *redis.Client
}

// NewOrderCodeRedisAdapter 在创建时加载 Lua 脚本。
func NewOrderCodeRedisAdapter(redisClient *redis.Client) (*OrderCodeRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(orderSeqScriptName, orderSeqScript); err != nil {
		return nil, fmt.Errorf("failed to load order sequence script: %w", err)
	}
	return &OrderCodeRedisAdapter{redisClient: redisClient}, nil
}

func (a *OrderCodeRedisAdapter) Next(ctx context.Context, storeID int64, at time.Time) (string, error) {
	day := at.UTC().Format("060102")
	key := fmt.Sprintf("storefront:order-seq:{%d}:%s", storeID, day)

	result, err := a.redisClient.RunScript(ctx, orderSeqScriptName, []string{key}, int64(orderSeqTTL/time.Second))
	if err != nil {
		return "", fmt.Errorf("order code adapter failed to run script: %w", err)
	}
	seq, ok := result.(int64)
	if !ok {
		return "", fmt.Errorf("unexpected result type from Lua script: %T", result)
	}
	return fmt.Sprintf("OD%s%d%05d", day, storeID, seq), nil
}

var orderSeqScript = `
-- KEYS[1]: 门店当天的序号 key
-- ARGV[1]: 过期秒数，只在第一次自增时设置
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return n
`
