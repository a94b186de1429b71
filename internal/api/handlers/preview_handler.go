package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/metrics"
	"github.com/gradeflow/backend/internal/resources"
	"github.com/gradeflow/backend/pkg/logger"
)

type PreviewHandler struct {
	fetcher *resources.Fetcher
}

func NewPreviewHandler(fetcher *resources.Fetcher) *PreviewHandler {
	return &PreviewHandler{fetcher: fetcher}
}

// GetPreview fetches title and description for a URL the user is
// about to save.
func (h *PreviewHandler) GetPreview(c *fiber.Ctx) error {
	var req struct {
		URL string `json:"url"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	preview, err := h.fetcher.Fetch(c.Context(), req.URL)
	if err != nil {
		metrics.PreviewFetches.WithLabelValues("error").Inc()
		logger.Warn("Failed to fetch resource preview",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch preview",
		})
	}

	metrics.PreviewFetches.WithLabelValues("ok").Inc()
	return c.JSON(preview)
}
