// Package enrich contains clients for the AI enrichment backends: the
// product agent service and Perplexity as a chat fallback.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

var tracer = otel.Tracer("infra/enrich")

const maxErrorBody = 512

// AgentClient calls the product enrichment agent. Generation can take a
// long time (text plus several images), so the timeout is generous.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewAgentClient creates an agent client. baseURL is the agent service root.
func NewAgentClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AgentClient {
	return &AgentClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// agentResponse mirrors the agent's reply. Every section is optional; the
// agent omits what it could not generate.
type agentResponse struct {
	Description *struct {
		Description     string `json:"description"`
		MetaDescription string `json:"meta_description"`
	} `json:"description"`
	Pricing *struct {
		OptimalPrice float64 `json:"optimal_price"`
	} `json:"pricing"`
	Images *struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"images"`
}

// Enrich asks the agent to generate description, pricing and images for a
// product. Missing sections in the reply yield nil fields, not errors.
func (c *AgentClient) Enrich(ctx context.Context, req *domain.EnrichmentRequest) (*domain.EnrichmentResult, error) {
	ctx, span := tracer.Start(ctx, "enrich.Agent.Enrich")
	defer span.End()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/product/complete", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "agent", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.ErrTransport{Service: "agent", Status: resp.StatusCode, Body: string(raw)}
	}

	var payload agentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}

	result := &domain.EnrichmentResult{}
	if payload.Description != nil {
		if payload.Description.Description != "" {
			desc := payload.Description.Description
			result.Description = &desc
		}
		if payload.Description.MetaDescription != "" {
			meta := payload.Description.MetaDescription
			result.MetaDescription = &meta
		}
	}
	if payload.Pricing != nil && payload.Pricing.OptimalPrice > 0 {
		price := payload.Pricing.OptimalPrice
		result.OptimalPrice = &price
	}
	if payload.Images != nil {
		for _, img := range payload.Images.Images {
			if img.URL != "" {
				result.ImageURLs = append(result.ImageURLs, img.URL)
			}
		}
	}

	c.logger.Info("agent enrichment complete",
		zap.String("product", req.ProductName),
		zap.Bool("has_description", result.Description != nil),
		zap.Bool("has_price", result.OptimalPrice != nil),
		zap.Int("images", len(result.ImageURLs)),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// Healthy probes the agent service. Used by the health endpoint.
func (c *AgentClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: "agent", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.ErrTransport{Service: "agent", Status: resp.StatusCode}
	}
	return nil
}
