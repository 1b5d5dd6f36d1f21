// Package handler wires the HTTP surface: the Telegram webhook, the direct
// JSON API, and the operational endpoints.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/infra/observability"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Webhook   *WebhookHandler
	API       *APIHandler
	Metrics   *observability.Metrics
	JWTSecret string
	Logger    *zap.Logger
}

// NewRouter builds the chi router with the standard middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(deps.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// Operational endpoints.
	r.Get("/healthz", deps.API.Health)
	r.Get("/readyz", deps.API.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	// Telegram webhook, authenticated by its secret token header.
	r.Post("/webhook", deps.Webhook.HandleUpdate)

	// Direct API, authenticated by JWT.
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuth(deps.JWTSecret))
		r.Get("/products/{productId}", deps.API.GetProduct)
		r.Post("/products/{productId}/enrich", deps.API.EnrichProduct)
		r.Get("/metrics/pipeline", deps.API.PipelineMetrics)
	})

	return r
}
