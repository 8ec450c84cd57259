package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"digimall/internal/caching"
	"digimall/internal/config"
	"digimall/internal/handlers"
	"digimall/internal/jobs/background"
	"digimall/internal/logger"
	"digimall/internal/middleware"
	"digimall/internal/observability/tracing"
	"digimall/internal/repositories"
	"digimall/internal/services"
	"digimall/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Tracing.ServiceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, appLogger *zap.Logger) error {
	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Database
	pool, err := database.NewPool(ctx, cfg.Database.URL, appLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, pool, appLogger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Cache and object storage
	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, appLogger)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, appLogger)

	minioSvc, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		return fmt.Errorf("failed to initialize MinIO service: %w", err)
	}
	if err := minioSvc.EnsureBucketExists(ctx, cfg.Minio.ImageBucket); err != nil {
		appLogger.Warn("image bucket not ready", zap.String("bucket", cfg.Minio.ImageBucket), zap.Error(err))
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	userRoleRepo := repositories.NewUserRoleRepo(pool)
	rolePermissionRepo := repositories.NewRolePermissionRepo(pool)
	permissionRepo := repositories.NewPermissionRepo(pool)
	customerRepo := repositories.NewCustomerRepo(pool)
	vendorRepo := repositories.NewVendorRepo(pool)
	collectionRepo := repositories.NewCollectionRepo(pool)
	brandRepo := repositories.NewBrandRepo(pool)
	attributeRepo := repositories.NewAttributeRepo(pool)
	tagRepo := repositories.NewTagRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	variantRepo := repositories.NewVariantRepo(pool)
	productImageRepo := repositories.NewProductImageRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	txr := database.NewTransactor(pool)

	// Services
	tenantSvc := services.NewTenantService(tenantRepo, roleRepo, rolePermissionRepo, cacheSvc, cfg.Tenancy.DomainCacheTTL, appLogger)
	authSvc := services.NewAuthService(userRepo, customerRepo, userRoleRepo, cacheSvc, txr, services.AuthSettings{
		JWTSecret:        cfg.Auth.JWTSecret,
		AccessTokenTTL:   cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL:  cfg.Auth.RefreshTokenTTL,
		LoginMaxAttempts: cfg.Auth.LoginMaxAttempts,
		LoginWindow:      cfg.Auth.LoginWindow,
	}, appLogger)
	rbacSvc := services.NewRBACService(userRoleRepo, roleRepo, userRepo, permissionRepo, appLogger)
	vendorSvc := services.NewVendorService(vendorRepo, userRoleRepo, txr, appLogger)
	customerSvc := services.NewCustomerService(customerRepo)
	productSvc := services.NewProductService(services.ProductDeps{
		Products:    productRepo,
		Variants:    variantRepo,
		Images:      productImageRepo,
		Vendors:     vendorRepo,
		Brands:      brandRepo,
		Collections: collectionRepo,
		Tags:        tagRepo,
		Attributes:  attributeRepo,
		Minio:       minioSvc,
		ImageBucket: cfg.Minio.ImageBucket,
		Cache:       cacheSvc,
		Tx:          txr,
		Logger:      appLogger,
	})
	exportSvc := services.NewExportService(productRepo, vendorRepo)
	webhooks := services.NewWebhookClient(cfg.Webhook.Timeout, cfg.Webhook.MaxRetries, appLogger)
	orderSvc := services.NewOrderService(orderRepo, variantRepo, customerRepo, vendorRepo, tenantRepo, cacheSvc, webhooks, appLogger)

	// Middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	router := &handlers.Router{
		Tenancy: middleware.NewTenancyMiddleware(tenantSvc, appLogger),
		Auth:    middleware.NewAuthMiddleware(authSvc, appLogger),
		RBAC:    middleware.NewRBACMiddleware(rbacSvc, appLogger),
		Logger:  appLogger,

		Health: handlers.NewHealthHandlers(version, map[string]handlers.Pinger{
			"database": pool,
			"redis":    cacheSvc,
			"storage": handlers.PingFunc(func(ctx context.Context) error {
				return minioSvc.EnsureBucketExists(ctx, cfg.Minio.ImageBucket)
			}),
		}),
		Tenants:   handlers.NewTenantHandlers(tenantSvc),
		Sessions:  handlers.NewAuthHandlers(authSvc),
		Users:     handlers.NewUserHandlers(rbacSvc),
		Vendors:   handlers.NewVendorHandlers(vendorSvc),
		Customers: handlers.NewCustomerHandlers(customerSvc),
		Taxonomy: handlers.NewTaxonomyHandlers(
			services.NewCollectionService(collectionRepo),
			services.NewBrandService(brandRepo),
			services.NewAttributeService(attributeRepo),
			services.NewTagService(tagRepo),
		),
		Products: handlers.NewProductHandlers(productSvc, exportSvc),
		Orders:   handlers.NewOrderHandlers(orderSvc),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(appLogger)
	if e.IPExtractor, err = middleware.ClientIPExtractor(cfg.Server.TrustedProxies); err != nil {
		return err
	}

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(appLogger))
	e.Use(rateLimiter.Middleware())
	e.Use(echoMiddleware.BodyLimit("12M"))
	router.Register(e)

	// Background jobs
	var scheduler *background.JobScheduler
	if cfg.Jobs.Enabled {
		scheduler, err = background.NewJobScheduler(orderSvc, tenantSvc, rateLimiter, background.Config{
			PendingOrderTTL:     cfg.Jobs.PendingOrderTTL,
			OrderExpiryInterval: cfg.Jobs.OrderExpiryInterval,
			DomainWarmInterval:  cfg.Jobs.DomainWarmInterval,
		}, appLogger)
		if err != nil {
			return fmt.Errorf("failed to create job scheduler: %w", err)
		}
		scheduler.Start()
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: otelhttp.NewHandler(e, "http_request",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("digimall server starting",
			zap.String("version", version),
			zap.Int("port", cfg.Server.Port),
			zap.String("central_domain", cfg.Tenancy.CentralDomain),
			zap.Bool("tracing", tracer.Enabled()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http server shutdown failed", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			appLogger.Error("job scheduler shutdown failed", zap.Error(err))
		}
	}
	webhooks.Wait()
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("tracer shutdown failed", zap.Error(err))
	}

	appLogger.Info("server stopped")
	return nil
}
