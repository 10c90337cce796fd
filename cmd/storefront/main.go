// cmd/storefront/main.go
package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/database"
	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	campaignapp "storefront/internal/service/campaign/application"
	campaigndomain "storefront/internal/service/campaign/domain"
	campaigninfra "storefront/internal/service/campaign/infrastructure"
	"storefront/internal/service/campaign/infrastructure/lock"
	"storefront/internal/service/campaign/infrastructure/rule"
	campaignhttp "storefront/internal/service/campaign/interfaces"
	"storefront/internal/service/order/application"
	"storefront/internal/service/order/infrastructure"
	"storefront/internal/service/order/infrastructure/adapter"
	orderhttp "storefront/internal/service/order/interfaces"
	"storefront/internal/zookeeper"
)

const (
	serviceName      = "storefront"
	zkSessionTimeout = 10 * time.Second
)

// main 是应用的组装根：创建并组装所有依赖项，然后启动服务。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      serviceName,
		RegisterHandlers: registerHandlers,
	})
}

func registerHandlers(appCtx bootstrap.AppCtx) error {
	cfg := appCtx.Config
	ctx := context.Background()
	tracer := otel.Tracer(serviceName)

	// 1. 基础设施
	db, err := database.Open(cfg.Infra.MySQL.DSN, database.Options{
		MaxOpenConns:    cfg.Infra.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.Infra.MySQL.MaxIdleConns,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return err
	}
	models := append(campaigninfra.Models(), infrastructure.Models()...)
	models = append(models, adapter.CatalogModels()...)
	if err := database.AutoMigrate(ctx, db, models...); err != nil {
		return err
	}
	tx := database.NewTransactor(db)

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		return errors.Wrap(err, "init redis client")
	}
	appCtx.OnShutdown(func(context.Context) { _ = redisClient.Close() })

	eventWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.BrokerList(), cfg.Infra.Kafka.EventsTopic)
	appCtx.OnShutdown(func(context.Context) { _ = eventWriter.Close() })

	var locker campaigndomain.Locker = lock.NewLocalLocker()
	if cfg.Infra.Zookeeper.Servers != "" {
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, zkSessionTimeout)
		if err != nil {
			return err
		}
		appCtx.OnShutdown(func(context.Context) { conn.Close() })
		locker = lock.NewZKLocker(conn)
	} else {
		log.Warn().Msg("zookeeper not configured, campaign writes are serialized per instance only")
	}

	var resolver httpclient.Resolver = httpclient.StaticResolver{
		adapter.WarehouseService:     cfg.Services.Warehouse,
		adapter.LedgerService:        cfg.Services.Ledger,
		adapter.CustomerStatsService: cfg.Services.CustomerStats,
	}
	if appCtx.Nacos != nil {
		resolver = appCtx.Nacos
	}
	httpClient := httpclient.NewClient(tracer, resolver)

	// 2. 活动服务
	rules, err := rule.NewCELRuleEngine()
	if err != nil {
		return err
	}
	coupons := campaigninfra.NewGormCouponRepository(db)
	promotions := campaigninfra.NewGormPromotionRepository(db)
	flashSales := campaigninfra.NewGormFlashSaleRepository(db)
	campaignService := campaignapp.NewCampaignService(coupons, promotions, flashSales, locker, rules, tracer)
	campaignhttp.NewCampaignHandler(campaignService).RegisterRoutes(appCtx.Mux)

	// 3. 门店配置快照与跨实例失效广播
	configRepo := infrastructure.NewGormStoreConfigRepository(db)
	configs := infrastructure.NewStoreConfigSnapshot(configRepo)
	invalidation := adapter.NewStoreConfigRedisAdapter(redisClient.GetClient(), configs)
	subCtx, stopSub := context.WithCancel(ctx)
	done, err := invalidation.Subscribe(subCtx)
	if err != nil {
		stopSub()
		return errors.Wrap(err, "subscribe store config invalidation")
	}
	appCtx.OnShutdown(func(context.Context) {
		stopSub()
		<-done
	})

	// 4. 订单服务
	codes, err := adapter.NewOrderCodeRedisAdapter(redisClient)
	if err != nil {
		return err
	}
	pricing := application.NewPricingEngine(
		adapter.NewProductCatalogGormAdapter(db),
		adapter.NewCampaignCatalogAdapter(coupons, promotions, flashSales),
		configs,
		cfg.Order.DefaultShipFee,
		tracer,
	)
	orderService := application.NewOrderApplicationService(application.Ports{
		Orders:     infrastructure.NewMysqlRepository(db),
		Tx:         tx,
		Codes:      codes,
		FlashSales: flashSales,
		Coupons:    coupons,
		Granter:    adapter.NewCouponGranterAdapter(campaignService),
		Warehouse:  adapter.NewWarehouseHTTPAdapter(httpClient),
		Ledger:     adapter.NewLedgerHTTPAdapter(httpClient),
		Stats:      adapter.NewCustomerStatsHTTPAdapter(httpClient),
		Notifier:   adapter.NewNotificationKafkaAdapter(eventWriter),
	}, pricing, cfg.Order.CreateTimeout, tracer)
	configService := application.NewStoreConfigService(configRepo, tx, configs, invalidation, tracer)
	orderhttp.NewOrderHandler(orderService, configService).RegisterRoutes(appCtx.Mux)

	log.Info().Str("events_topic", cfg.Infra.Kafka.EventsTopic).Msg("storefront handlers registered")
	return nil
}
