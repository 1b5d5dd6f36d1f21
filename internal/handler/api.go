package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/cerebroai/shop-assistant-go/internal/infra/observability"
	"github.com/cerebroai/shop-assistant-go/internal/port"
	"github.com/cerebroai/shop-assistant-go/internal/service"
)

// HealthProber checks whether an upstream dependency is reachable.
type HealthProber interface {
	Healthy(ctx context.Context) error
}

// APIHandler serves the direct HTTP API: product lookup, pipeline trigger,
// health and pipeline metrics.
type APIHandler struct {
	pipeline *service.EnrichmentService
	catalog  port.Catalog
	prober   HealthProber
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(pipeline *service.EnrichmentService, catalog port.Catalog, prober HealthProber, metrics *observability.Metrics, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		pipeline: pipeline,
		catalog:  catalog,
		prober:   prober,
		metrics:  metrics,
		logger:   logger,
	}
}

func productIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "productId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, &domain.ErrValidation{Field: "productId", Message: "must be a positive integer"}
	}
	return id, nil
}

// GetProduct handles GET /v1/products/{productId}.
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	product, err := h.catalog.FetchProduct(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// EnrichProduct handles POST /v1/products/{productId}/enrich. The run is
// synchronous; the response body is the full pipeline outcome.
func (h *APIHandler) EnrichProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	outcome := h.pipeline.EnrichProduct(r.Context(), id)
	writeJSON(w, http.StatusOK, outcome)
}

// PipelineMetrics handles GET /v1/metrics/pipeline.
func (h *APIHandler) PipelineMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.metrics.GetPipelineSnapshot())
}

// Health handles GET /healthz, probing the enrichment backend.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	probeErr := h.prober.Healthy(ctx)

	enrichment := domain.ServiceHealth{
		Name:        "enrichment",
		Status:      "up",
		LatencyMs:   time.Since(start).Milliseconds(),
		LastChecked: time.Now().UTC().Format(time.RFC3339),
	}
	health := domain.HealthStatus{Status: "ok"}

	if probeErr != nil {
		h.logger.Warn("enrichment backend unhealthy", zap.Error(probeErr))
		enrichment.Status = "down"
		health.Status = "degraded"
	}
	health.Services = []domain.ServiceHealth{enrichment}

	status := http.StatusOK
	if probeErr != nil {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// Ready handles GET /readyz. The process serves traffic as soon as it is
// up; readiness does not gate on upstream availability.
func (h *APIHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
