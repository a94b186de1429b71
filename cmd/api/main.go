package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/aiproxy"
	"github.com/gradeflow/backend/internal/analytics"
	"github.com/gradeflow/backend/internal/api/handlers"
	"github.com/gradeflow/backend/internal/cache"
	redisCache "github.com/gradeflow/backend/internal/cache/redis"
	"github.com/gradeflow/backend/internal/metrics"
	"github.com/gradeflow/backend/internal/middleware/ratelimit"
	"github.com/gradeflow/backend/internal/middleware/security"
	"github.com/gradeflow/backend/internal/middleware/validation"
	"github.com/gradeflow/backend/internal/resources"
	"github.com/gradeflow/backend/internal/storage/sqlite"
	"github.com/gradeflow/backend/pkg/config"
	appLogger "github.com/gradeflow/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Gradeflow Analytics API Server")

	metrics.Init()

	store, err := sqlite.NewClient(cfg.SQLite.Path, time.Duration(cfg.SQLite.QueryTimeout)*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var summaryCache cache.SummaryCache = cache.Noop{}
	if cfg.Redis.Enabled {
		redisClient, err := redisCache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		summaryCache = redisClient
	}

	engine := analytics.NewEngine(store, analytics.Windows{
		RecentDays:    cfg.Analytics.RecentDays,
		TrendDays:     cfg.Analytics.TrendDays,
		TrendWeeks:    cfg.Analytics.TrendWeeks,
		RetentionDays: cfg.Analytics.RetentionDays,
	})

	aiClient := aiproxy.NewClient(
		cfg.AI.APIKey,
		cfg.AI.Model,
		cfg.AI.Temperature,
		cfg.AI.MaxTokens,
		cfg.AI.TimeoutSec,
	)

	previewFetcher := resources.NewFetcher(
		cfg.Preview.TimeoutSec,
		cfg.Preview.MaxBodySize,
		cfg.Preview.UserAgent,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:            appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		metrics.RequestDuration.
			WithLabelValues(c.Route().Path, strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(start).Seconds())
		return err
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxTableLimit: cfg.Analytics.MaxTableRows,
		Logger:        appLogger.GetLogger(),
	}))

	analyticsHandler := handlers.NewAnalyticsHandler(engine, summaryCache,
		time.Duration(cfg.Analytics.CacheTTL)*time.Second)
	tablesHandler := handlers.NewTablesHandler(store, cfg.Analytics.MaxTableRows)
	aiHandler := handlers.NewAIHandler(aiClient)
	previewHandler := handlers.NewPreviewHandler(previewFetcher)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Get("/analytics/evaluations", analyticsHandler.GetEvaluationsSummary)
	api.Get("/analytics/users", analyticsHandler.GetUsersSummary)
	api.Get("/analytics/engagement", analyticsHandler.GetEngagementSummary)
	api.Get("/analytics/performance", analyticsHandler.GetPerformanceSummary)
	api.Post("/analytics/refresh", analyticsHandler.RefreshCache)

	api.Get("/tables", tablesHandler.GetTable)

	api.Post("/ai/parse-food", aiHandler.ParseFood)
	api.Post("/resources/preview", previewHandler.GetPreview)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
