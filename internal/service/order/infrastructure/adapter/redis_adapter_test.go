package adapter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/order/domain"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, goredis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestOrderCodeSequence(t *testing.T) {
	mr, client := newMiniRedis(t)
	a, err := NewOrderCodeRedisAdapter(redis.Wrap(client))
	require.NoError(t, err)
	ctx := context.Background()
	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	first, err := a.Next(ctx, 1, day)
	require.NoError(t, err)
	second, err := a.Next(ctx, 1, day)
	require.NoError(t, err)
	other, err := a.Next(ctx, 2, day)
	require.NoError(t, err)
	nextDay, err := a.Next(ctx, 1, day.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "OD260501100001", first)
	assert.Equal(t, "OD260501100002", second)
	assert.Equal(t, "OD260501200001", other)
	assert.Equal(t, "OD260502100001", nextDay)
	assert.Equal(t, 48*time.Hour, mr.TTL("storefront:order-seq:{1}:260501"))
}

type refreshRecorder struct {
	mu  sync.Mutex
	ids []int64
}

func (r *refreshRecorder) Get(context.Context, int64) (*domain.StoreConfig, error) {
	return &domain.StoreConfig{}, nil
}

func (r *refreshRecorder) Refresh(_ context.Context, storeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, storeID)
	return nil
}

func (r *refreshRecorder) refreshed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

func TestStoreConfigInvalidationBroadcast(t *testing.T) {
	_, client := newMiniRedis(t)
	cache := &refreshRecorder{}
	a := NewStoreConfigRedisAdapter(client, cache)
	ctx, cancel := context.WithCancel(context.Background())

	done, err := a.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), StoreConfigChannel, "oops").Err())
	require.NoError(t, a.PublishInvalidation(context.Background(), 3))

	require.Eventually(t, func() bool { return len(cache.refreshed()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{3}, cache.refreshed())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}
