package adapter

import (
	"context"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain/port"
)

// StoreConfigChannel 是门店配置失效广播的频道
const StoreConfigChannel = "storefront:store-config:invalidate"

// StoreConfigRedisAdapter 通过 Redis pub/sub 在实例间广播门店配置失效。
type StoreConfigRedisAdapter struct {
	client goredis.UniversalClient
	cache  port.StoreConfigCache
}

func NewStoreConfigRedisAdapter(client goredis.UniversalClient, cache port.StoreConfigCache) *StoreConfigRedisAdapter {
	return &StoreConfigRedisAdapter{client: client, cache: cache}
}

func (a *StoreConfigRedisAdapter) PublishInvalidation(ctx context.Context, storeID int64) error {
	return a.client.Publish(ctx, StoreConfigChannel, strconv.FormatInt(storeID, 10)).Err()
}

// Subscribe 订阅失效广播并刷新本地快照，直到 ctx 结束。
// 订阅建立后才返回，调用方应在 goroutine 中等待 done。
func (a *StoreConfigRedisAdapter) Subscribe(ctx context.Context) (done <-chan struct{}, err error) {
	sub := a.client.Subscribe(ctx, StoreConfigChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				storeID, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					logger.Ctx(ctx).Warn().Str("payload", msg.Payload).Msg("ignoring malformed store config invalidation")
					continue
				}
				if err := a.cache.Refresh(ctx, storeID); err != nil {
					logger.Ctx(ctx).Error().Err(err).Int64("store_id", storeID).Msg("store config refresh failed")
				}
			}
		}
	}()
	return finished, nil
}
