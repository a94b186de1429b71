package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/metrics"
	"github.com/gradeflow/backend/internal/storage/sqlite"
	"github.com/gradeflow/backend/pkg/logger"
)

type TablesHandler struct {
	store        *sqlite.Client
	defaultLimit int
	maxLimit     int
}

func NewTablesHandler(store *sqlite.Client, maxLimit int) *TablesHandler {
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	return &TablesHandler{
		store:        store,
		defaultLimit: 100,
		maxLimit:     maxLimit,
	}
}

// GetTable is the generic table browser. The allow-list decides
// what is reachable; an unlisted table fails with 400 before any
// query is issued.
func (h *TablesHandler) GetTable(c *fiber.Ctx) error {
	table := c.Query("table")
	if table == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "table is required",
		})
	}

	limit := h.defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	spec := sqlite.BrowseSpec{
		Table:    table,
		Limit:    limit,
		OrderBy:  c.Query("orderBy"),
		OrderDir: c.Query("orderDirection"),
	}

	if filter := c.Query("filter"); filter != "" {
		col, value, ok := strings.Cut(filter, ":")
		if !ok || col == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "filter must be col:value",
			})
		}
		spec.Filters = append(spec.Filters, sqlite.Filter{Column: col, Op: "=", Value: value})
	}

	rows, err := h.store.Browse(c.Context(), spec)
	if err != nil {
		if sqlite.IsClientFault(err) {
			metrics.TableRequestsRejected.Inc()
			logger.Warn("Table browse rejected",
				zap.String("table", table),
				zap.Error(err),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Table browse failed",
			zap.String("table", table),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to query table",
		})
	}

	metrics.RowsFetched.WithLabelValues(table).Add(float64(len(rows)))

	return c.JSON(fiber.Map{
		"data":  rows,
		"count": len(rows),
		"table": table,
		"limit": limit,
	})
}
