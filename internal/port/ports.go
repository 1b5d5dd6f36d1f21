// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete WooCommerce, WordPress, AI and Telegram adapters.
package port

import (
	"context"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

// Catalog reads and partially updates products on the commerce backend.
type Catalog interface {
	// FetchProduct returns the product snapshot, *domain.ErrNotFound when the
	// backend answers 404, or *domain.ErrTransport for any other failure.
	FetchProduct(ctx context.Context, id int) (*domain.Product, error)

	// UpdateFields sends only the fields set in the update; absent fields are
	// left untouched on the remote.
	UpdateFields(ctx context.Context, id int, update domain.ProductUpdate) error

	// AttachImages replaces the product's image list with the given ordered
	// media ids (replace-on-write, not a merge).
	AttachImages(ctx context.Context, id int, mediaIDs []int) error
}

// Enricher asks the AI enrichment service to generate content for a product.
// Implementations must parse defensively: any missing response field becomes
// "not provided" in the result, never an error.
type Enricher interface {
	Enrich(ctx context.Context, req *domain.EnrichmentRequest) (*domain.EnrichmentResult, error)
}

// ImageFetcher downloads image bytes from a URL returned by the enricher.
type ImageFetcher interface {
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// MediaLibrary uploads binary assets to the content host and returns the
// assigned media id.
type MediaLibrary interface {
	Upload(ctx context.Context, filename string, data []byte, contentType string) (int, error)
}

// ChatCompleter answers free-form chat text that did not match any command.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Messenger delivers a reply back to the chat surface.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
