package validation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxDescriptionLength int
	MaxTableLimit        int
	Logger               *zap.Logger
}

// Middleware rejects obviously malformed requests before they reach
// a handler: out-of-range limits on the table browser, oversized or
// empty bodies on the two POST endpoints. Semantic checks (the table
// allow-list itself) stay in the handlers.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxDescriptionLength == 0 {
		cfg.MaxDescriptionLength = 2000
	}
	if cfg.MaxTableLimit == 0 {
		cfg.MaxTableLimit = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()

		if strings.HasSuffix(path, "/tables") && c.Method() == fiber.MethodGet {
			if limitStr := c.Query("limit"); limitStr != "" {
				limit, err := strconv.Atoi(limitStr)
				if err != nil || limit < 1 || limit > cfg.MaxTableLimit {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": "limit must be an integer between 1 and " + strconv.Itoa(cfg.MaxTableLimit),
					})
				}
			}

			if dir := c.Query("orderDirection"); dir != "" &&
				!strings.EqualFold(dir, "asc") && !strings.EqualFold(dir, "desc") {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "orderDirection must be asc or desc",
				})
			}

			if filter := c.Query("filter"); filter != "" && !strings.Contains(filter, ":") {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "filter must be col:value",
				})
			}
		}

		if strings.HasSuffix(path, "/ai/parse-food") && c.Method() == fiber.MethodPost {
			var req struct {
				Description string `json:"description"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}
			if strings.TrimSpace(req.Description) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "description is required",
				})
			}
			if len(req.Description) > cfg.MaxDescriptionLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "description exceeds maximum length",
				})
			}
		}

		if strings.HasSuffix(path, "/resources/preview") && c.Method() == fiber.MethodPost {
			var req struct {
				URL string `json:"url"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}
			if !isValidURL(req.URL) {
				cfg.Logger.Warn("Rejected preview URL",
					zap.String("ip", c.IP()),
					zap.String("url", req.URL),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid URL format",
				})
			}
		}

		return c.Next()
	}
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
