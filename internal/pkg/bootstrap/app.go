// Package bootstrap 封装了服务的通用启动、配置加载和优雅关停逻辑。
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/nacos"
	"storefront/internal/pkg/tracing"
)

// AppCtx 是注册路由时可用的公共组件。
type AppCtx struct {
	Mux    *http.ServeMux
	Nacos  *nacos.Client // 未配置 Nacos 时为 nil
	Config *Config

	hooks *[]func(ctx context.Context)
}

// OnShutdown 注册一个关停回调，按注册的逆序执行。
func (a AppCtx) OnShutdown(fn func(ctx context.Context)) {
	*a.hooks = append(*a.hooks, fn)
}

// AppInfo 包含了启动一个服务所需的特定信息。
type AppInfo struct {
	ServiceName      string
	RegisterHandlers func(appCtx AppCtx) error
}

// StartService 加载配置、初始化日志与链路追踪、注册到 Nacos，然后阻塞直到收到退出信号。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName, getEnv("LOG_LEVEL", "info"))

	var nc *nacos.Client
	remote := ""
	if addrs := getEnv("NACOS_SERVER_ADDRS", ""); addrs != "" {
		var err error
		nc, err = nacos.NewNacosClient(addrs, getEnv("NACOS_NAMESPACE", ""), getEnv("NACOS_GROUP", "DEFAULT_GROUP"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		if remote, err = nc.GetConfig(info.ServiceName + ".yaml"); err != nil {
			log.Warn().Err(err).Msg("nacos config unavailable, using local config")
		}
	}

	cfg, err := LoadConfig(remote)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.App.Name == "" {
		cfg.App.Name = info.ServiceName
	}
	SetCurrentConfig(cfg)
	logger.Init(cfg.App.Name, cfg.App.LogLevel)

	if nc != nil {
		err := nc.ListenConfig(info.ServiceName+".yaml", func(content string) {
			next, err := LoadConfig(content)
			if err != nil {
				log.Error().Err(err).Msg("ignoring invalid nacos config")
				return
			}
			SetCurrentConfig(next)
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to listen nacos config")
		}
	}

	tp, err := tracing.InitTracerProvider(cfg.App.Name, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.SampleRatio)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	var hooks []func(ctx context.Context)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(AppCtx{Mux: mux, Nacos: nc, Config: cfg, hooks: &hooks}); err != nil {
			log.Fatal().Err(err).Msg("failed to register handlers")
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.App.Port).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	var ip string
	if nc != nil {
		if ip, err = outboundIP(); err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := nc.RegisterServiceInstance(cfg.App.Name, ip, cfg.App.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 先摘流量，再停 HTTP，最后释放依赖
	if nc != nil {
		if err := nc.DeregisterServiceInstance(cfg.App.Name, ip, cfg.App.Port); err != nil {
			log.Error().Err(err).Msg("deregister from nacos")
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown http server")
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i](ctx)
	}
	if nc != nil {
		nc.Close()
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown tracer provider")
	}
	log.Info().Msg("gracefully shut down")
}

// outboundIP 通过 UDP 拨号获取本机对外的 IP，不会真正发包。
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
