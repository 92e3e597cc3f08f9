package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/controller"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	"github.com/ikkim/shopfront-backend/internal/router"
	"github.com/ikkim/shopfront-backend/internal/scheduler"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"github.com/ikkim/shopfront-backend/internal/websocket"
	"github.com/ikkim/shopfront-backend/pkg/imaging"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
	"github.com/ikkim/shopfront-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Shopfront Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	// Invalidation sinks: websocket subscribers always, Redis when configured
	hub := websocket.NewHub()
	go hub.Run(ctx)
	sinks := []invalidation.Sink{invalidation.NewBroadcastSink(hub)}

	var (
		blacklist    service.TokenBlacklist
		tokenChecker middleware.TokenChecker
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		sinks = append(sinks, invalidation.NewRedisSink(redisClient))
		blacklist = redisClient
		tokenChecker = redisClient
	} else {
		logger.Warn("Redis is not configured: stale markers go to websocket subscribers only and logout does not revoke tokens", nil)
	}
	invalidator := invalidation.NewInvalidator(storefrontMetrics, sinks...)

	// Object storage
	objects, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", err)
	}
	provider := capability.NewProvider(db.GetDB(), capability.WithObjectStorage(objects))

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	productRepo := repository.NewProductRepository()
	wishlistRepo := repository.NewWishlistRepository()
	reviewRepo := repository.NewReviewRepository()
	moderationRepo := repository.NewReviewModerationRepository()
	settingRepo := repository.NewSettingRepository()

	// Initialize services
	authService := service.NewAuthService(
		provider,
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(provider, productRepo, invalidator, storefrontMetrics)
	wishlistService := service.NewWishlistService(provider, wishlistRepo, invalidator, storefrontMetrics)
	reviewService := service.NewReviewService(provider, reviewRepo, moderationRepo, invalidator, storefrontMetrics)
	settingsService := service.NewSettingsService(provider, settingRepo, invalidator, storefrontMetrics, time.Now)
	transformer := imaging.NewTransformer(cfg.Media.MaxDimension, cfg.Media.Quality)
	if cfg.Media.MaxPixels > 0 {
		transformer.MaxPixels = cfg.Media.MaxPixels
	}
	mediaService := service.NewMediaService(
		provider,
		transformer,
		storefrontMetrics,
		service.MediaOptions{
			MaxUploadBytes: cfg.Media.MaxUploadBytes,
			SniffContent:   cfg.Media.SniffContent,
			CacheControl:   cfg.Storage.CacheControl,
		},
	)

	// Initialize controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Product:      controller.NewProductController(productService),
		Wishlist:     controller.NewWishlistController(wishlistService),
		Review:       controller.NewReviewController(reviewService),
		Settings:     controller.NewSettingsController(settingsService),
		Upload:       controller.NewUploadController(mediaService, cfg.Media.MaxUploadBytes),
		Invalidation: controller.NewInvalidationController(hub, cfg.CORS.AllowedOrigins),
	}
	if cfg.Bootstrap.Enabled {
		bootstrapService := service.NewBootstrapService(provider, userRepo, storefrontMetrics, cfg.Bootstrap.Secret, time.Now)
		controllers.Bootstrap = controller.NewBootstrapController(bootstrapService)
		logger.Warn("Bootstrap admin endpoint is enabled; disable it after the first admin is provisioned", nil)
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, tokenChecker)

	// Moderation backlog job
	backlog := scheduler.NewModerationBacklogScheduler(cfg.Scheduler.ModerationBacklogSpec, reviewService, storefrontMetrics)
	if err := backlog.Start(); err != nil {
		logger.Fatal("Failed to start moderation backlog scheduler", err)
	}
	defer backlog.Stop()

	// Setup router
	r := router.NewRouter(controllers, authMiddleware, registry, cfg)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
