package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/aiproxy"
	"github.com/gradeflow/backend/internal/metrics"
	"github.com/gradeflow/backend/pkg/logger"
)

type AIHandler struct {
	client *aiproxy.Client
}

func NewAIHandler(client *aiproxy.Client) *AIHandler {
	return &AIHandler{client: client}
}

// ParseFood proxies a meal description to the external model and
// returns its structured estimate.
func (h *AIHandler) ParseFood(c *fiber.Ctx) error {
	var req struct {
		Description string `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "description is required",
		})
	}

	parsed, err := h.client.ParseFood(c.Context(), req.Description)
	if err != nil {
		metrics.FoodParses.WithLabelValues("error").Inc()
		logger.Error("Failed to parse food description", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to parse food description",
		})
	}

	metrics.FoodParses.WithLabelValues("ok").Inc()
	return c.JSON(parsed)
}
