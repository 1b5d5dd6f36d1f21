// Package woocommerce implements the catalog port against the WooCommerce
// REST API (wp-json/wc/v3).
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

var tracer = otel.Tracer("infra/woocommerce")

const maxErrorBody = 512

// Client talks to a WooCommerce store over its REST API using
// consumer key/secret basic auth.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	logger         *zap.Logger
}

// NewClient creates a WooCommerce API client. baseURL should point at the
// API root, e.g. https://shop.example.com/wp-json/wc/v3.
func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		logger:         logger,
	}
}

// productPayload mirrors the WooCommerce product representation. Prices
// travel as strings on the wire.
type productPayload struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
	RegularPrice     string `json:"regular_price"`
	Categories       []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Images []struct {
		ID  int    `json:"id"`
		Src string `json:"src"`
	} `json:"images"`
}

func (p *productPayload) toDomain() *domain.Product {
	price, _ := strconv.ParseFloat(p.RegularPrice, 64)

	product := &domain.Product{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		RegularPrice:     price,
	}
	if len(p.Categories) > 0 {
		product.Category = p.Categories[0].Name
	}
	for _, img := range p.Images {
		product.Images = append(product.Images, domain.ProductImage{ID: img.ID, URL: img.Src})
	}
	return product
}

// FetchProduct retrieves a product by ID.
func (c *Client) FetchProduct(ctx context.Context, productID int) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "woocommerce.FetchProduct")
	defer span.End()

	var payload productPayload
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, &payload); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched product",
		zap.Int("product_id", payload.ID),
		zap.String("name", payload.Name),
		zap.Int("images", len(payload.Images)))

	return payload.toDomain(), nil
}

// UpdateFields applies the given partial update to a product. Only fields
// set on the update are sent; prices are formatted with two decimals as
// WooCommerce expects strings.
func (c *Client) UpdateFields(ctx context.Context, productID int, update domain.ProductUpdate) error {
	ctx, span := tracer.Start(ctx, "woocommerce.UpdateFields")
	defer span.End()

	if update.IsEmpty() {
		return nil
	}

	body := map[string]any{}
	if update.Description != nil {
		body["description"] = *update.Description
	}
	if update.ShortDescription != nil {
		body["short_description"] = *update.ShortDescription
	}
	if update.RegularPrice != nil {
		body["regular_price"] = fmt.Sprintf("%.2f", *update.RegularPrice)
	}

	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d", productID), body, nil)
}

// AttachImages replaces the product gallery with the given media IDs,
// in order. An empty slice is a no-op.
func (c *Client) AttachImages(ctx context.Context, productID int, mediaIDs []int) error {
	ctx, span := tracer.Start(ctx, "woocommerce.AttachImages")
	defer span.End()

	if len(mediaIDs) == 0 {
		return nil
	}

	images := make([]map[string]int, 0, len(mediaIDs))
	for _, id := range mediaIDs {
		images = append(images, map[string]int{"id": id})
	}

	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d", productID), map[string]any{"images": images}, nil)
}

// doJSON performs an authenticated request, optionally sending a JSON body
// and decoding a JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrTransport{Service: "woocommerce", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &domain.ErrNotFound{Resource: "product", ID: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.ErrTransport{Service: "woocommerce", Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
