package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"docspot/docs"
	"docspot/internal/cache"
	"docspot/internal/config"
	"docspot/internal/database"
	"docspot/internal/database/migration"
	"docspot/internal/events"
	handlers "docspot/internal/http/handler"
	"docspot/internal/http/middleware"
	"docspot/internal/identity"
	"docspot/internal/logger"
	tracing "docspot/internal/otel"
	"docspot/internal/repository"
	"docspot/internal/repository/memory"
	"docspot/internal/repository/postgres"
	"docspot/internal/service"
	"docspot/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	documents repository.DocumentRepository
	wallets   repository.WalletRepository
	accessLog repository.AccessLogRepository
}

// @title docspot API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(logger.Config{Location: logger.LoadLocation(cfg.Timezone)})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, log)
	if err != nil {
		log.Fatal("tracing_init_failed", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, st := openStores(ctx, cfg, log)
	if db != nil {
		defer db.Close()
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.Fatal("storage_init_failed", zap.Error(err))
	}

	var listCache cache.DocumentListCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn("cache_disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer rc.Close()
			listCache = rc
		}
	}

	var publisher events.ActivityPublisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			log.Fatal("event_publisher_init_failed", zap.Error(err))
		}
		defer kp.Close()
		publisher = kp
	}

	verifier, err := identity.NewHS256Verifier(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal("identity_init_failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	grantMetrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}

	deps := service.Deps{
		Documents:       st.documents,
		Wallets:         st.wallets,
		AccessLog:       st.accessLog,
		Storage:         objStore,
		Cache:           listCache,
		Events:          publisher,
		Metrics:         grantMetrics,
		Logger:          log,
		StoreTimeout:    cfg.Market.StoreTimeout,
		StartingBalance: cfg.Market.StartingBalance,
		PasskeyPoolSize: cfg.Market.PasskeyPoolSize,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, db, handlers.Services{
		Documents: service.NewDocumentService(deps),
		Access:    service.NewAccessService(deps),
		Wallets:   service.NewWalletService(deps),
	},
		middleware.Auth(verifier),
		middleware.NewIPRateLimiter(ctx, cfg.Market.RateLimitPerMinute, log).Handler(),
	)

	app.Get("/metrics", adaptHTTP(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("server_shutdown")
		_ = app.ShutdownWithTimeout(shutdownTimeout)
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", zap.String("addr", addr), zap.String("store_driver", cfg.StoreDriver))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server_failed", zap.Error(err))
	}
}

// openStores picks the store implementation. The memory driver keeps everything in process
// and has no database handle.
func openStores(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*sql.DB, stores) {
	if cfg.StoreDriver == "memory" {
		log.Warn("memory_store_enabled")
		m := memory.New()
		return nil, stores{documents: m, wallets: m, accessLog: m}
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal("database_connect_failed", zap.Error(err))
	}
	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("database_migration_failed", zap.Error(err))
	}
	return db, stores{
		documents: postgres.NewDocumentPostgres(db),
		wallets:   postgres.NewWalletPostgres(db),
		accessLog: postgres.NewAccessLogPostgres(db),
	}
}

func adaptHTTP(h http.Handler) fiber.Handler {
	fh := fasthttpadaptor.NewFastHTTPHandler(h)
	return func(c *fiber.Ctx) error {
		fh(c.Context())
		return nil
	}
}
