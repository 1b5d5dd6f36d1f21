// Package images downloads generated image files from their temporary URLs.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

var tracer = otel.Tracer("infra/images")

// Fetcher downloads image bytes over HTTP.
type Fetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher creates an image fetcher.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Download fetches the image at url and returns its bytes and content type.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, string, error) {
	ctx, span := tracer.Start(ctx, "images.Download")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", &domain.ErrImageFetch{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &domain.ErrImageFetch{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &domain.ErrImageFetch{URL: url, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	f.logger.Debug("image downloaded",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.String("content_type", contentType))

	return data, contentType, nil
}
