package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cerebroai/shop-assistant-go/internal/config"
	"github.com/cerebroai/shop-assistant-go/internal/handler"
	"github.com/cerebroai/shop-assistant-go/internal/infra/cache"
	"github.com/cerebroai/shop-assistant-go/internal/infra/enrich"
	"github.com/cerebroai/shop-assistant-go/internal/infra/images"
	"github.com/cerebroai/shop-assistant-go/internal/infra/observability"
	"github.com/cerebroai/shop-assistant-go/internal/infra/resilience"
	"github.com/cerebroai/shop-assistant-go/internal/infra/telegram"
	"github.com/cerebroai/shop-assistant-go/internal/infra/woocommerce"
	"github.com/cerebroai/shop-assistant-go/internal/infra/wordpress"
	"github.com/cerebroai/shop-assistant-go/internal/port"
	"github.com/cerebroai/shop-assistant-go/internal/service"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "shop-assistant")
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}

	metrics := observability.NewMetrics()

	// Infrastructure clients.
	catalog := woocommerce.NewClient(cfg.WooBaseURL, cfg.WooConsumerKey, cfg.WooConsumerSecret, cfg.CatalogTimeout, logger)
	fetcher := images.NewFetcher(cfg.ImageTimeout, logger)
	media := wordpress.NewMediaClient(cfg.WPBaseURL, cfg.WPUser, cfg.WPAppPassword, cfg.MediaTimeout, logger)
	messenger := telegram.NewClient(cfg.TelegramToken, logger)

	retryCfg := resilience.Config{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff}
	breaker := resilience.NewCircuitBreaker("perplexity")

	agent := enrich.NewAgentClient(cfg.AgentAPIURL, cfg.EnrichTimeout, logger)
	perplexity := enrich.NewPerplexityClient(
		cfg.PerplexityAPIURL, cfg.PerplexityAPIKey, cfg.PerplexityModel,
		cfg.EnrichTimeout, breaker, retryCfg, logger,
	)

	var (
		enricher port.Enricher
		prober   handler.HealthProber
	)
	switch cfg.AIProvider {
	case "perplexity":
		logger.Info("using perplexity enrichment (text and pricing only)")
		enricher = perplexity
		prober = noopProber{}
	default:
		enricher = agent
		prober = agent
	}

	// Services.
	pipeline := service.NewEnrichmentService(
		catalog, enricher, fetcher, media,
		cfg.ImageWorkers, cfg.StrictPersistence,
		metrics, logger,
	)
	userVars := cache.New[map[string]string](cfg.VarsTTL)
	chat := service.NewChatService(pipeline, perplexity, userVars, logger)

	// HTTP surface.
	api := handler.NewAPIHandler(pipeline, catalog, prober, metrics, logger)
	webhook := handler.NewWebhookHandler(chat, messenger, cfg.TelegramAllowedChatID, cfg.TelegramWebhookSecret, logger)

	router := handler.NewRouter(handler.RouterDeps{
		Webhook:   webhook,
		API:       api,
		Metrics:   metrics,
		JWTSecret: cfg.APIJWTSecret,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.EnrichTimeout + 30*time.Second, // synchronous enrich runs
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("tracer shutdown failed", zap.Error(err))
	}
	logger.Info("stopped")
}

// noopProber stands in when the configured enrichment provider has no
// health endpoint to probe.
type noopProber struct{}

func (noopProber) Healthy(ctx context.Context) error { return nil }
