package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/makkenzo/pixel-service-api/internal/config"
	"github.com/makkenzo/pixel-service-api/internal/handler"
	"github.com/makkenzo/pixel-service-api/internal/handler/middleware"
	"github.com/makkenzo/pixel-service-api/internal/ierr"
	"github.com/makkenzo/pixel-service-api/internal/metrics"
	"github.com/makkenzo/pixel-service-api/internal/service"
	"github.com/makkenzo/pixel-service-api/internal/storage/kv"
	"github.com/makkenzo/pixel-service-api/internal/storage/kvrepo"
	"github.com/makkenzo/pixel-service-api/internal/storage/memstore"
	"github.com/makkenzo/pixel-service-api/internal/storage/postgres"
	"github.com/makkenzo/pixel-service-api/internal/storage/redis"
	"github.com/makkenzo/pixel-service-api/internal/worker"
	"github.com/makkenzo/pixel-service-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store kv.Store
	switch cfg.Store.Backend {
	case "postgres":
		dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbPool.Close()

		pgStore := postgres.NewKV(dbPool, appLogger)
		if err := pgStore.EnsureSchema(appCtx); err != nil {
			sugarLogger.Fatalf("Failed to prepare PostgreSQL schema: %v", err)
		}
		store = pgStore
	case "memory":
		sugarLogger.Warn("Using in-memory store; all pixels are lost on restart")
		store = memstore.New()
	case "redis", "":
		redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
		if err != nil {
			sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		store = redis.NewKV(redisClient, appLogger)
	default:
		sugarLogger.Fatalf("Unknown store backend: %q", cfg.Store.Backend)
	}

	pixelRepo := kvrepo.NewPixelRepository(store, appLogger)

	pixelService := service.NewPixelService(pixelRepo, cfg.Server.PublicURL, appLogger)
	recorderService := service.NewRecorderService(pixelRepo, appLogger)
	reportService := service.NewReportService(pixelRepo, cfg.Report.EventPageLimit, appLogger)

	healthHandler := handler.NewHealthHandler(store, appLogger)
	pixelHandler := handler.NewPixelHandler(pixelService, appLogger)
	trackHandler := handler.NewTrackHandler(recorderService, appLogger)
	reportHandler := handler.NewReportHandler(reportService, appLogger)

	creationSecretMiddleware := middleware.CreationSecretMiddleware(&cfg.Creation, appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-API-Key",
			"X-Request-ID",
		},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(metrics.HTTPMiddleware())
	router.Use(errorMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The tracking endpoint lives outside /api/v1: its URL is embedded in
	// emails and must stay short and stable.
	router.GET("/p/:ref", trackHandler.Open)

	apiV1 := router.Group("/api/v1")
	{
		pixelRoutes := apiV1.Group("/pixels")
		{
			pixelRoutes.POST("", creationSecretMiddleware, pixelHandler.Create)
			pixelRoutes.GET("/:id/report", reportHandler.Get)
		}
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	if cfg.Recount.Enabled && cfg.Redis.Addr != "" {
		g.Go(func() error {
			if err := worker.RunWorkers(groupCtx, cfg, pixelRepo, appLogger); err != nil {
				sugarLogger.Error("Asynq worker failed", zap.Error(err))
				return fmt.Errorf("asynq worker error: %w", err)
			}
			sugarLogger.Info("Asynq workers finished gracefully.")
			return nil
		})
	} else {
		sugarLogger.Info("Counter recount worker disabled (recount.enabled=false or no redis address)")
	}

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {

		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else if errors.Is(waitErr, http.ErrServerClosed) {
			sugarLogger.Info("Shutdown reason: HTTP server closed normally.")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
