package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/analytics"
	"github.com/gradeflow/backend/pkg/logger"
)

// WebSocketHandler serves the live dashboard: a client asks for a
// summary section and gets the same body as the matching GET
// endpoint, without polling overhead. Summaries are always computed
// fresh here; the socket exists to skip staleness.
type WebSocketHandler struct {
	engine *analytics.Engine
}

func NewWebSocketHandler(engine *analytics.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

type wsRequest struct {
	Type    string `json:"type"`
	Section string `json:"section"`
}

type wsResponse struct {
	Type    string `json:"type"`
	Section string `json:"section,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Dashboard socket connected")

	defer func() {
		c.Close()
		logger.Info("Dashboard socket closed")
	}()

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Dashboard socket read failed", zap.Error(err))
			break
		}

		if msg.Type != "summary" {
			continue
		}

		data, err := h.buildSection(context.Background(), msg.Section)
		if err != nil {
			logger.Warn("Failed to build summary for socket",
				zap.String("section", msg.Section),
				zap.Error(err),
			)
			c.WriteJSON(wsResponse{Type: "error", Section: msg.Section, Error: err.Error()})
			continue
		}

		c.WriteJSON(wsResponse{Type: "summary", Section: msg.Section, Data: data})
	}
}

func (h *WebSocketHandler) buildSection(ctx context.Context, section string) (any, error) {
	switch section {
	case "evaluations":
		return h.engine.EvaluationsSummary(ctx)
	case "users":
		return h.engine.UsersSummary(ctx)
	case "engagement":
		return h.engine.EngagementSummary(ctx)
	case "performance":
		return h.engine.PerformanceSummary(ctx)
	default:
		return nil, fmt.Errorf("unknown summary section %q", section)
	}
}
