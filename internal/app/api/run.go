package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	checkoutserver "github.com/Apurer/ghadwa-checkout/go"

	orderscache "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/cache"
	ordersmemory "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	ordersports "github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
	"github.com/Apurer/ghadwa-checkout/internal/platform/httpmiddleware"
	"github.com/Apurer/ghadwa-checkout/internal/platform/migrations"
	platformobservability "github.com/Apurer/ghadwa-checkout/internal/platform/observability"
	platformpostgres "github.com/Apurer/ghadwa-checkout/internal/platform/postgres"
	platformredis "github.com/Apurer/ghadwa-checkout/internal/platform/redis"
)

const serviceName = "ghadwa-checkout-api"

const shutdownGrace = 15 * time.Second

// orderStore is what the checkout service needs from a persistence adapter.
type orderStore interface {
	ordersports.DataStore
	ordersports.OrderFinder
}

// Run boots the checkout HTTP API and blocks until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.LogConfig{File: cfg.LogFile, Level: cfg.SlogLevel()})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Warn("postgres migrations failed, falling back to in-memory order store", slog.String("error", err.Error()))
			db = nil
		}
	}
	rdb, cleanupRedis := platformredis.ConnectOptional(ctx, cfg.RedisAddr, cfg.RedisPassword, logger)
	defer cleanupRedis()

	store := buildOrderStore(db, logger)
	idempotency := buildIdempotencyStore(cfg, db, rdb, logger)
	dispatcher := BuildDispatcher(cfg, instruments)

	var notifier ordersports.NotificationOrchestrator = ordersworkflows.NewInlineOrderNotifications(dispatcher)
	if temporalClient, err := DialTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, notifying inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		notifier = ordersworkflows.NewTemporalOrderNotifications(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	coreService := ordersapp.NewService(store, store,
		ordersapp.WithLogger(logger),
		ordersapp.WithDeliveryPolicy(ordersdomain.DefaultSchedulePolicy(cfg.Location())),
		ordersapp.WithIdempotencyStore(idempotency),
		ordersapp.WithNotifier(notifier),
		ordersapp.WithNotifyTimeout(cfg.NotifyTimeout),
	)
	service := ordersobs.New(coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	if err := checkoutserver.RegisterBindingValidators(); err != nil {
		return fmt.Errorf("failed to register binding validators: %w", err)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := httpmiddleware.NewMetrics(registry)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		cors.New(corsConfig(cfg)),
		otelgin.Middleware(serviceName),
		httpmiddleware.RequestLog(logger),
		metrics.Middleware(),
	)
	router := checkoutserver.NewRouterWithGinEngine(engine, checkoutserver.ApiHandleFunctions{
		CheckoutAPI:      checkoutserver.NewCheckoutAPI(service),
		NotificationsAPI: checkoutserver.NewNotificationsAPI(dispatcher, cfg.NotifyAdminToken),
		HealthAPI:        checkoutserver.NewHealthAPI(healthChecks(db, rdb)),
		MetricsHandler:   metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("checkout API listening", slog.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("checkout API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
			coreService.Wait()
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down checkout API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("checkout API shutdown failed", slog.String("error", err.Error()))
		}
	}
	coreService.Wait()
	logger.Info("checkout API stopped")
	return nil
}

func buildOrderStore(db *gorm.DB, logger *slog.Logger) orderStore {
	if db == nil {
		logger.Warn("orders stored in memory with demo promo codes; data is lost on restart")
		return ordersmemory.NewDataStore(ordersmemory.DemoPromoCodes()...)
	}
	logger.Info("order store configured with postgres")
	return orderspostgres.NewDataStore(db, orderspostgres.WithLogger(logger))
}

func buildIdempotencyStore(cfg Config, db *gorm.DB, rdb *goredis.Client, logger *slog.Logger) ordersports.IdempotencyStore {
	switch {
	case rdb != nil:
		logger.Info("idempotency keys stored in redis", slog.Duration("ttl", cfg.IdempotencyTTL))
		return orderscache.NewRedisIdempotencyStore(rdb, cfg.IdempotencyTTL)
	case db != nil:
		logger.Info("idempotency keys stored in postgres")
		return orderspostgres.NewIdempotencyStore(db)
	default:
		return ordersmemory.NewIdempotencyStore()
	}
}

func healthChecks(db *gorm.DB, rdb *goredis.Client) map[string]checkoutserver.HealthCheck {
	checks := map[string]checkoutserver.HealthCheck{}
	if db != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}

func corsConfig(cfg Config) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", checkoutserver.IdempotencyKeyHeader, httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{"Location", httpmiddleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return config
}
