// Package ai wraps the generative model that produces meal recommendations.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/logger"
)

const defaultModel = "gemini-2.0-flash"

// generator is the subset of the genai client used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements service.ModelClient on google.golang.org/genai.
// It makes exactly one call per Generate; retries are left to the caller.
type GeminiClient struct {
	models      generator
	model       string
	temperature float32
	timeout     time.Duration
	logger      logger.Logger
}

var _ service.ModelClient = (*GeminiClient)(nil)

// NewGeminiClient creates a client for the configured model.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, log logger.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiClient(client.Models, cfg, log), nil
}

func newGeminiClient(g generator, cfg config.AIConfig, log logger.Logger) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &GeminiClient{
		models:      g,
		model:       model,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		logger:      log.WithComponent("ai"),
	}
}

// Generate sends prompt and decodes the JSON recommendation.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (*models.Recommendation, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("Gemini generation failed: %w", err)
	}

	text := responseText(resp)
	rec, err := DecodeRecommendation(text)
	if err != nil {
		c.logger.Warn(ctx, "Model returned an undecodable answer",
			logger.Int("length", len(text)),
			logger.Err(err),
		)
		return nil, err
	}

	c.logger.Debug(ctx, "Model call completed",
		logger.String("model", c.model),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return rec, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// DecodeRecommendation parses the model answer, tolerating a markdown code
// fence around the JSON.
func DecodeRecommendation(text string) (*models.Recommendation, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var rec models.Recommendation
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, fmt.Errorf("invalid model response: %w", err)
	}
	if rec.Recipes == nil && len(rec.Restaurants) == 0 {
		return nil, fmt.Errorf("model response has neither recipes nor restaurants")
	}
	return &rec, nil
}
