package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/analytics"
	"github.com/gradeflow/backend/internal/cache"
	"github.com/gradeflow/backend/internal/metrics"
	"github.com/gradeflow/backend/pkg/logger"
)

type AnalyticsHandler struct {
	engine   *analytics.Engine
	cache    cache.SummaryCache
	cacheTTL time.Duration
}

func NewAnalyticsHandler(engine *analytics.Engine, summaryCache cache.SummaryCache, cacheTTL time.Duration) *AnalyticsHandler {
	if summaryCache == nil {
		summaryCache = cache.Noop{}
	}
	return &AnalyticsHandler{
		engine:   engine,
		cache:    summaryCache,
		cacheTTL: cacheTTL,
	}
}

func (h *AnalyticsHandler) GetEvaluationsSummary(c *fiber.Ctx) error {
	return serveSummary(c, h, "evaluations", h.engine.EvaluationsSummary)
}

func (h *AnalyticsHandler) GetUsersSummary(c *fiber.Ctx) error {
	return serveSummary(c, h, "users", h.engine.UsersSummary)
}

func (h *AnalyticsHandler) GetEngagementSummary(c *fiber.Ctx) error {
	return serveSummary(c, h, "engagement", h.engine.EngagementSummary)
}

func (h *AnalyticsHandler) GetPerformanceSummary(c *fiber.Ctx) error {
	return serveSummary(c, h, "performance", h.engine.PerformanceSummary)
}

// RefreshCache is the explicit invalidate operation: the next hit on
// each summary recomputes from a fresh snapshot.
func (h *AnalyticsHandler) RefreshCache(c *fiber.Ctx) error {
	if err := h.cache.Invalidate(c.Context()); err != nil {
		logger.Error("Failed to invalidate summary cache", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to refresh analytics cache",
		})
	}
	return c.JSON(fiber.Map{"status": "refreshed"})
}

// serveSummary is the shared cache-then-compute path. Cache failures
// degrade to a recompute; they never fail the request.
func serveSummary[T any](c *fiber.Ctx, h *AnalyticsHandler, key string, build func(ctx context.Context) (*T, error)) error {
	ctx := c.Context()

	var cached T
	hit, err := h.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Summary cache lookup failed", zap.String("summary", key), zap.Error(err))
	}
	if hit {
		metrics.CacheHits.WithLabelValues(key).Inc()
		return c.JSON(cached)
	}
	metrics.CacheMisses.WithLabelValues(key).Inc()

	start := time.Now()
	summary, err := build(ctx)
	if err != nil {
		logger.Error("Failed to build summary",
			zap.String("summary", key),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute " + key + " summary",
		})
	}
	metrics.SummaryBuildDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())

	if err := h.cache.Set(ctx, key, summary, h.cacheTTL); err != nil {
		logger.Warn("Failed to cache summary", zap.String("summary", key), zap.Error(err))
	}

	return c.JSON(summary)
}
