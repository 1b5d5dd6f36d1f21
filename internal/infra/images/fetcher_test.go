package images

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

func TestDownload(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer srv.Close()

	fetcher := NewFetcher(5*time.Second, zap.NewNop())

	data, contentType, err := fetcher.Download(context.Background(), srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("unexpected bytes: %v", data)
	}
	if contentType != "image/png" {
		t.Errorf("unexpected content type %q", contentType)
	}
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewFetcher(5*time.Second, zap.NewNop())

	_, _, err := fetcher.Download(context.Background(), srv.URL+"/missing.png")
	var fetchErr *domain.ErrImageFetch
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected ErrImageFetch, got %v", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", fetchErr.Status)
	}
}
