package aiproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/pkg/circuitbreaker"
	"github.com/gradeflow/backend/pkg/logger"
	"github.com/gradeflow/backend/pkg/retry"
)

const systemPrompt = `You are a nutrition parser. Given a free-text meal description, respond with ONLY a JSON object:
{"name": string, "calories": number, "protein_g": number, "carbs_g": number, "fat_g": number}
Estimate realistic values for a single serving. No prose, no markdown.`

// FoodParse is the structured result the tracker form consumes.
type FoodParse struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Client is a thin request/response proxy to the external model.
// Nothing is interpreted beyond JSON extraction; the model is an
// external collaborator.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	cb := circuitbreaker.New("aiproxy", circuitbreaker.Config{
		MaxRequests:      5,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("AI proxy client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// ParseFood sends a meal description to the model and decodes the
// structured reply.
func (c *Client) ParseFood(ctx context.Context, description string) (*FoodParse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
					{Role: openai.ChatMessageRoleUser, Content: description},
				},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("model returned no choices")
			}
			content = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("food parse request failed: %w", err)
	}

	parsed, err := decodeFoodParse(content)
	if err != nil {
		logger.Warn("Model returned unparseable food payload",
			zap.Error(err),
			zap.String("content", content),
		)
		return nil, err
	}

	return parsed, nil
}

// decodeFoodParse tolerates models that wrap the JSON in a markdown
// fence despite the prompt.
func decodeFoodParse(content string) (*FoodParse, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			content = content[start : end+1]
		}
	}

	var parsed FoodParse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	if parsed.Name == "" {
		return nil, fmt.Errorf("model response missing food name")
	}
	return &parsed, nil
}
