package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9000
infra:
  redis:
    addrs: file-redis:6379
  kafka:
    brokers: file-kafka:9092
order:
  default_ship_fee: 15000
  create_timeout: 3s
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("KAFKA_BROKERS", "env-kafka:9092,env-kafka-2:9092")

	remote := `
infra:
  redis:
    addrs: nacos-redis:6379
`
	cfg, err := LoadConfig(remote)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "nacos-redis:6379", cfg.Infra.Redis.Addrs)
	assert.Equal(t, []string{"env-kafka:9092", "env-kafka-2:9092"}, cfg.Infra.Kafka.BrokerList())
	assert.Equal(t, int64(15000), cfg.Order.DefaultShipFee)
	assert.Equal(t, 3*time.Second, cfg.Order.CreateTimeout)
	// 未覆盖的字段保持默认值
	assert.Equal(t, "storefront-order-events", cfg.Infra.Kafka.EventsTopic)
}

func TestCurrentConfigSwap(t *testing.T) {
	old := GetCurrentConfig()
	defer SetCurrentConfig(old)

	next := DefaultConfig()
	next.App.Features = map[string]bool{"flash_sale": true}
	SetCurrentConfig(next)

	assert.True(t, GetCurrentConfig().Feature("flash_sale"))
	assert.False(t, old.Feature("flash_sale"))
}
