package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config 是服务的完整配置快照，加载后不再修改。
type Config struct {
	App      AppConfig      `yaml:"app"`
	Infra    InfraConfig    `yaml:"infra"`
	Services ServicesConfig `yaml:"services"`
	Order    OrderConfig    `yaml:"order"`
}

type AppConfig struct {
	Name     string          `yaml:"name"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	Features map[string]bool `yaml:"features"`
}

type InfraConfig struct {
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type MySQLConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addrs string `yaml:"addrs"`
}

type KafkaConfig struct {
	Brokers     string `yaml:"brokers"`
	EventsTopic string `yaml:"events_topic"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type ZookeeperConfig struct {
	Servers string `yaml:"servers"`
}

type NacosConfig struct {
	Addrs     string `yaml:"addrs"`
	Namespace string `yaml:"namespace"`
	Group     string `yaml:"group"`
}

// ServicesConfig 是下游服务的静态地址；为空时通过 Nacos 发现。
type ServicesConfig struct {
	Warehouse     string `yaml:"warehouse"`
	Ledger        string `yaml:"ledger"`
	CustomerStats string `yaml:"customer_stats"`
}

type OrderConfig struct {
	DefaultShipFee int64         `yaml:"default_ship_fee"`
	CreateTimeout  time.Duration `yaml:"create_timeout"`
}

// Feature 返回功能开关，未配置时为 false。
func (c *Config) Feature(name string) bool {
	return c.App.Features[name]
}

// BrokerList 拆分逗号分隔的 broker 列表。
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// DefaultConfig 返回本地开发使用的默认配置。
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Name: "storefront", Port: 8080, LogLevel: "info"},
		Infra: InfraConfig{
			MySQL:     MySQLConfig{DSN: "root:root@tcp(localhost:3306)/storefront", MaxOpenConns: 50, MaxIdleConns: 10},
			Redis:     RedisConfig{Addrs: "localhost:6379"},
			Kafka:     KafkaConfig{Brokers: "localhost:9092", EventsTopic: "storefront-order-events"},
			Jaeger:    JaegerConfig{Endpoint: "http://localhost:14268/api/traces", SampleRatio: 1},
			Zookeeper: ZookeeperConfig{Servers: "localhost:2181"},
			Nacos:     NacosConfig{Addrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
		Order: OrderConfig{DefaultShipFee: 30000, CreateTimeout: 10 * time.Second},
	}
}

var currentConfig atomic.Pointer[Config]

func init() {
	currentConfig.Store(DefaultConfig())
}

// GetCurrentConfig 返回当前生效的配置快照。
func GetCurrentConfig() *Config {
	return currentConfig.Load()
}

// SetCurrentConfig 替换配置快照。
func SetCurrentConfig(c *Config) {
	currentConfig.Store(c)
}

// LoadConfig 按 默认值 < CONFIG_FILE < remote < 环境变量 的顺序合并配置。
// remote 为 Nacos 中的 yaml 内容，可以为空。
func LoadConfig(remote string) (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}
	if strings.TrimSpace(remote) != "" {
		if err := yaml.Unmarshal([]byte(remote), cfg); err != nil {
			return nil, errors.Wrap(err, "parse nacos config")
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.App.Name, "SERVICE_NAME")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")
	setString(&cfg.Infra.MySQL.DSN, "MYSQL_DSN")
	setString(&cfg.Infra.Redis.Addrs, "REDIS_ADDRS")
	setString(&cfg.Infra.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Infra.Kafka.EventsTopic, "KAFKA_EVENTS_TOPIC")
	setString(&cfg.Infra.Jaeger.Endpoint, "JAEGER_ENDPOINT")
	setString(&cfg.Infra.Zookeeper.Servers, "ZK_SERVERS")
	setString(&cfg.Infra.Nacos.Addrs, "NACOS_SERVER_ADDRS")
	setString(&cfg.Infra.Nacos.Namespace, "NACOS_NAMESPACE")
	setString(&cfg.Infra.Nacos.Group, "NACOS_GROUP")
	setString(&cfg.Services.Warehouse, "WAREHOUSE_URL")
	setString(&cfg.Services.Ledger, "LEDGER_URL")
	setString(&cfg.Services.CustomerStats, "CUSTOMER_STATS_URL")
	if v, ok := os.LookupEnv("PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		} else {
			log.Warn().Str("PORT", v).Msg("ignoring invalid PORT")
		}
	}
	if v, ok := os.LookupEnv("DEFAULT_SHIP_FEE"); ok {
		if fee, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Order.DefaultShipFee = fee
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// getEnv 从环境变量中读取配置，不存在时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
