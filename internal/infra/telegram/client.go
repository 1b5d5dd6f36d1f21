// Package telegram sends messages through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

const defaultAPIBase = "https://api.telegram.org"

// Client sends bot messages. Incoming updates arrive via webhook and are
// handled by the HTTP layer; this client only covers the outbound side.
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
	logger     *zap.Logger
}

// NewClient creates a Telegram bot client.
func NewClient(token string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    defaultAPIBase,
		token:      token,
		logger:     logger,
	}
}

// NewClientWithBase is used in tests to point at a fake API server.
func NewClientWithBase(token, apiBase string, logger *zap.Logger) *Client {
	c := NewClient(token, logger)
	c.apiBase = apiBase
	return c
}

// SendMessage delivers a Markdown-formatted message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: "telegram", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !payload.OK {
		return &domain.ErrExternalService{
			Service: "telegram",
			Err:     fmt.Errorf("sendMessage failed: %s", payload.Description),
		}
	}

	c.logger.Debug("telegram message sent", zap.Int64("chat_id", chatID), zap.Int("chars", len(text)))
	return nil
}
