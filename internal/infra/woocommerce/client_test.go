package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "ck_test", "cs_test", 5*time.Second, zap.NewNop())
}

func TestFetchProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			t.Error("missing or wrong basic auth")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 42,
			"name": "Ceramic Mug",
			"description": "<p>old</p>",
			"short_description": "",
			"regular_price": "12.50",
			"categories": [{"name": "Kitchen"}],
			"images": [{"id": 7, "src": "https://cdn.example.com/mug.jpg"}]
		}`))
	})

	product, err := client.FetchProduct(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchProduct: %v", err)
	}
	if product.ID != 42 || product.Name != "Ceramic Mug" {
		t.Errorf("unexpected product: %+v", product)
	}
	if product.RegularPrice != 12.50 {
		t.Errorf("expected price 12.50, got %v", product.RegularPrice)
	}
	if product.Category != "Kitchen" {
		t.Errorf("expected category Kitchen, got %q", product.Category)
	}
	if len(product.Images) != 1 || product.Images[0].ID != 7 {
		t.Errorf("unexpected images: %+v", product.Images)
	}
}

func TestFetchProduct_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchProduct(context.Background(), 99)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchProduct_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := client.FetchProduct(context.Background(), 1)
	var transport *domain.ErrTransport
	if !errors.As(err, &transport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if transport.Status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", transport.Status)
	}
	if transport.Body != "boom" {
		t.Errorf("expected body boom, got %q", transport.Body)
	}
}

func TestUpdateFields_SendsOnlySetFields(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Write([]byte(`{}`))
	})

	price := 19.9
	err := client.UpdateFields(context.Background(), 42, domain.ProductUpdate{RegularPrice: &price})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	if got["regular_price"] != "19.90" {
		t.Errorf("expected regular_price 19.90, got %v", got["regular_price"])
	}
	if _, present := got["description"]; present {
		t.Error("description should not be sent when unset")
	}
	if _, present := got["short_description"]; present {
		t.Error("short_description should not be sent when unset")
	}
}

func TestUpdateFields_EmptyUpdateIsNoop(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if err := client.UpdateFields(context.Background(), 42, domain.ProductUpdate{}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if called {
		t.Error("empty update should not hit the API")
	}
}

func TestAttachImages(t *testing.T) {
	var got struct {
		Images []struct {
			ID int `json:"id"`
		} `json:"images"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Write([]byte(`{}`))
	})

	if err := client.AttachImages(context.Background(), 42, []int{101, 103}); err != nil {
		t.Fatalf("AttachImages: %v", err)
	}
	if len(got.Images) != 2 || got.Images[0].ID != 101 || got.Images[1].ID != 103 {
		t.Errorf("unexpected images payload: %+v", got.Images)
	}
}

func TestAttachImages_EmptyIsNoop(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if err := client.AttachImages(context.Background(), 42, nil); err != nil {
		t.Fatalf("AttachImages: %v", err)
	}
	if called {
		t.Error("no media IDs should not hit the API")
	}
}
