package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/cerebroai/shop-assistant-go/internal/infra/cache"
	"github.com/cerebroai/shop-assistant-go/internal/infra/observability"
	"github.com/cerebroai/shop-assistant-go/internal/service"
)

type stubCatalog struct {
	product  *domain.Product
	fetchErr error
}

func (s *stubCatalog) FetchProduct(ctx context.Context, id int) (*domain.Product, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.product, nil
}

func (s *stubCatalog) UpdateFields(ctx context.Context, id int, update domain.ProductUpdate) error {
	return nil
}

func (s *stubCatalog) AttachImages(ctx context.Context, id int, mediaIDs []int) error {
	return nil
}

type stubEnricher struct{}

func (s *stubEnricher) Enrich(ctx context.Context, req *domain.EnrichmentRequest) (*domain.EnrichmentResult, error) {
	desc := "<p>new</p>"
	return &domain.EnrichmentResult{Description: &desc}, nil
}

type stubFetcher struct{}

func (s *stubFetcher) Download(ctx context.Context, url string) ([]byte, string, error) {
	return []byte("img"), "image/png", nil
}

type stubMedia struct{}

func (s *stubMedia) Upload(ctx context.Context, filename string, data []byte, contentType string) (int, error) {
	return 1, nil
}

type stubCompleter struct{}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "hello", nil
}

type recordingMessenger struct {
	mu    sync.Mutex
	sent  []string
	ready chan struct{}
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{ready: make(chan struct{}, 8)}
}

func (m *recordingMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	m.sent = append(m.sent, text)
	m.mu.Unlock()
	m.ready <- struct{}{}
	return nil
}

func (m *recordingMessenger) waitForSend(t *testing.T) string {
	t.Helper()
	select {
	case <-m.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "test-webhook-secret"
	testChatID        = int64(42)
)

func newTestRouter(t *testing.T, catalog *stubCatalog, messenger *recordingMessenger) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	pipeline := service.NewEnrichmentService(
		catalog, &stubEnricher{}, &stubFetcher{}, &stubMedia{},
		2, false, metrics, logger,
	)
	vars := cache.New[map[string]string](time.Hour)
	chat := service.NewChatService(pipeline, &stubCompleter{}, vars, logger)

	api := NewAPIHandler(pipeline, catalog, healthyProber{}, metrics, logger)
	webhook := NewWebhookHandler(chat, messenger, testChatID, testWebhookSecret, logger)

	return NewRouter(RouterDeps{
		Webhook:   webhook,
		API:       api,
		Metrics:   metrics,
		JWTSecret: testJWTSecret,
		Logger:    logger,
	})
}

type healthyProber struct{}

func (healthyProber) Healthy(ctx context.Context) error { return nil }

func signedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestWebhook_BadSecretRejected(t *testing.T) {
	router := newTestRouter(t, &stubCatalog{}, newRecordingMessenger())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestWebhook_UnauthorizedChatIgnored(t *testing.T) {
	messenger := newRecordingMessenger()
	router := newTestRouter(t, &stubCatalog{}, messenger)

	body := `{"update_id": 1, "message": {"chat": {"id": 999}, "from": {"id": 999}, "text": "hello"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", testWebhookSecret)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Acknowledged so Telegram does not retry, but no reply goes out.
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	select {
	case <-messenger.ready:
		t.Error("unauthorized chat should not get a reply")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWebhook_EnrichCommandReplies(t *testing.T) {
	messenger := newRecordingMessenger()
	catalog := &stubCatalog{product: &domain.Product{ID: 5, Name: "Mug", RegularPrice: 10}}
	router := newTestRouter(t, catalog, messenger)

	body := `{"update_id": 2, "message": {"chat": {"id": 42}, "from": {"id": 42}, "text": "enrich product 5"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", testWebhookSecret)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	reply := messenger.waitForSend(t)
	if !strings.Contains(reply, "Done") {
		t.Errorf("expected success reply, got %q", reply)
	}
}

func TestAPI_RequiresJWT(t *testing.T) {
	router := newTestRouter(t, &stubCatalog{}, newRecordingMessenger())

	req := httptest.NewRequest(http.MethodGet, "/v1/products/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAPI_GetProduct(t *testing.T) {
	catalog := &stubCatalog{product: &domain.Product{ID: 5, Name: "Mug", RegularPrice: 10}}
	router := newTestRouter(t, catalog, newRecordingMessenger())

	req := httptest.NewRequest(http.MethodGet, "/v1/products/5", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var product domain.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &product); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if product.ID != 5 || product.Name != "Mug" {
		t.Errorf("unexpected product: %+v", product)
	}
}

func TestAPI_GetProduct_NotFound(t *testing.T) {
	catalog := &stubCatalog{fetchErr: &domain.ErrNotFound{Resource: "product", ID: "5"}}
	router := newTestRouter(t, catalog, newRecordingMessenger())

	req := httptest.NewRequest(http.MethodGet, "/v1/products/5", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAPI_GetProduct_InvalidID(t *testing.T) {
	router := newTestRouter(t, &stubCatalog{}, newRecordingMessenger())

	req := httptest.NewRequest(http.MethodGet, "/v1/products/abc", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAPI_EnrichProduct(t *testing.T) {
	catalog := &stubCatalog{product: &domain.Product{ID: 5, Name: "Mug", RegularPrice: 10}}
	router := newTestRouter(t, catalog, newRecordingMessenger())

	req := httptest.NewRequest(http.MethodPost, "/v1/products/5/enrich", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var outcome domain.PipelineOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.Success || outcome.ProductID != 5 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t, &stubCatalog{}, newRecordingMessenger())

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestPipelineMetricsEndpoint(t *testing.T) {
	catalog := &stubCatalog{product: &domain.Product{ID: 5, Name: "Mug", RegularPrice: 10}}
	router := newTestRouter(t, catalog, newRecordingMessenger())

	// Run the pipeline once so the snapshot has data.
	req := httptest.NewRequest(http.MethodPost, "/v1/products/5/enrich", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/v1/metrics/pipeline", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot domain.PipelineMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.TotalRuns != 1 || snapshot.SucceededRuns != 1 {
		t.Errorf("unexpected snapshot: %+v", snapshot)
	}
}
