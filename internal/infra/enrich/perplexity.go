package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/cerebroai/shop-assistant-go/internal/infra/resilience"
)

const enrichSystemPrompt = `You are a product copywriter and pricing analyst for an online store.
Given a product name, category and base price, reply ONLY with a JSON object:
{"description": "...", "meta_description": "...", "optimal_price": 0.0}
The description is HTML-formatted marketing copy, the meta_description is a
plain-text SEO summary under 160 characters, and optimal_price is a number.
Do not wrap the JSON in markdown fences.`

// PerplexityClient is the fallback AI provider. It enriches products with
// text and pricing only (no image generation) and answers free-form chat
// messages. Calls go through a circuit breaker with retries.
type PerplexityClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	breaker    *gobreaker.CircuitBreaker
	retryCfg   resilience.Config
	logger     *zap.Logger
}

// NewPerplexityClient creates a Perplexity API client.
func NewPerplexityClient(baseURL, apiKey, model string, timeout time.Duration, breaker *gobreaker.CircuitBreaker, retryCfg resilience.Config, logger *zap.Logger) *PerplexityClient {
	return &PerplexityClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		breaker:    breaker,
		retryCfg:   retryCfg,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Enrich generates description and pricing for a product via the chat API.
// Perplexity cannot generate images, so ImageURLs is always empty.
func (c *PerplexityClient) Enrich(ctx context.Context, req *domain.EnrichmentRequest) (*domain.EnrichmentResult, error) {
	ctx, span := tracer.Start(ctx, "enrich.Perplexity.Enrich")
	defer span.End()

	prompt := fmt.Sprintf("Product: %s\nCategory: %s\nBase price: %.2f", req.ProductName, req.Category, req.BasePrice)

	content, err := c.chat(ctx, enrichSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	// Models occasionally wrap JSON in fences despite instructions.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed struct {
		Description     string  `json:"description"`
		MetaDescription string  `json:"meta_description"`
		OptimalPrice    float64 `json:"optimal_price"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse enrichment reply: %w", err)
	}

	result := &domain.EnrichmentResult{}
	if parsed.Description != "" {
		result.Description = &parsed.Description
	}
	if parsed.MetaDescription != "" {
		result.MetaDescription = &parsed.MetaDescription
	}
	if parsed.OptimalPrice > 0 {
		result.OptimalPrice = &parsed.OptimalPrice
	}
	return result, nil
}

// Complete answers a free-form chat message. Used for messages that are not
// recognized as commands.
func (c *PerplexityClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "enrich.Perplexity.Complete")
	defer span.End()

	system := "You are a helpful assistant for an online shop operator. Answer concisely in the language of the question."
	return c.chat(ctx, system, prompt)
}

// chat runs one chat completion behind the breaker with retries.
func (c *PerplexityClient) chat(ctx context.Context, system, user string) (string, error) {
	var content string

	err := resilience.RetryWithBackoff(ctx, c.retryCfg, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doChat(ctx, system, user)
		})
		if err != nil {
			return err
		}
		content = result.(string)
		return nil
	})
	if err != nil {
		c.logger.Error("perplexity call failed", zap.Error(err))
		return "", &domain.ErrExternalService{Service: "perplexity", Err: err}
	}
	return content, nil
}

func (c *PerplexityClient) doChat(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &domain.ErrTransport{Service: "perplexity", Status: resp.StatusCode, Body: string(raw)}
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("empty chat response")
	}
	return payload.Choices[0].Message.Content, nil
}
