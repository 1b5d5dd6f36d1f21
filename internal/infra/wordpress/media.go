// Package wordpress uploads files to the WordPress media library over the
// wp-json/wp/v2 REST API.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

var tracer = otel.Tracer("infra/wordpress")

const maxErrorBody = 512

// MediaClient uploads media via basic auth with an application password.
// This is a separate credential pair from the store API keys.
type MediaClient struct {
	httpClient  *http.Client
	baseURL     string
	user        string
	appPassword string
	logger      *zap.Logger
}

// NewMediaClient creates a media library client. baseURL should point at
// the API root, e.g. https://shop.example.com/wp-json/wp/v2.
func NewMediaClient(baseURL, user, appPassword string, timeout time.Duration, logger *zap.Logger) *MediaClient {
	return &MediaClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		user:        user,
		appPassword: appPassword,
		logger:      logger,
	}
}

// Upload stores a file in the media library and returns its media ID.
func (c *MediaClient) Upload(ctx context.Context, filename string, data []byte, contentType string) (int, error) {
	ctx, span := tracer.Start(ctx, "wordpress.Upload")
	defer span.End()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return 0, fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("write multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media", &buf)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.appPassword)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &domain.ErrImageUpload{Filename: filename, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, &domain.ErrImageUpload{
			Filename: filename,
			Err:      &domain.ErrTransport{Service: "wordpress", Status: resp.StatusCode, Body: string(raw)},
		}
	}

	var payload struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode media response: %w", err)
	}

	c.logger.Debug("media uploaded",
		zap.String("filename", filename),
		zap.Int("media_id", payload.ID),
		zap.Int("bytes", len(data)))

	return payload.ID, nil
}
