package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/cerebroai/shop-assistant-go/internal/infra/observability"
	"github.com/cerebroai/shop-assistant-go/internal/infra/resilience"
	"github.com/cerebroai/shop-assistant-go/internal/port"
)

var tracer = otel.Tracer("service/enrichment")

// EnrichmentService runs the product enrichment pipeline: fetch the product,
// generate content, persist text and pricing, then download, upload and
// attach generated images.
//
// Persistence steps after enrichment tolerate failure by default: the error
// is recorded on the outcome and the run continues. StrictPersistence flips
// that policy so any persistence failure aborts the run.
type EnrichmentService struct {
	catalog        port.Catalog
	enricher       port.Enricher
	fetcher        port.ImageFetcher
	media          port.MediaLibrary
	uploadBulkhead *resilience.Bulkhead
	strictPersist  bool
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewEnrichmentService wires the pipeline dependencies.
func NewEnrichmentService(
	catalog port.Catalog,
	enricher port.Enricher,
	fetcher port.ImageFetcher,
	media port.MediaLibrary,
	imageWorkers int,
	strictPersist bool,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EnrichmentService {
	if imageWorkers < 1 {
		imageWorkers = 1
	}
	return &EnrichmentService{
		catalog:        catalog,
		enricher:       enricher,
		fetcher:        fetcher,
		media:          media,
		uploadBulkhead: resilience.NewBulkhead(imageWorkers),
		strictPersist:  strictPersist,
		metrics:        metrics,
		logger:         logger,
	}
}

// EnrichProduct runs the full pipeline for one product. It never returns an
// error: every result, including total failure, is encoded in the outcome.
func (s *EnrichmentService) EnrichProduct(ctx context.Context, productID int) *domain.PipelineOutcome {
	ctx, span := tracer.Start(ctx, "enrichment.EnrichProduct")
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", productID))

	runID := uuid.NewString()
	span.SetAttributes(attribute.String("run.id", runID))

	start := time.Now()
	outcome := &domain.PipelineOutcome{RunID: runID, ProductID: productID}

	fatal := s.run(ctx, productID, outcome)

	s.finalize(ctx, outcome, fatal)
	s.metrics.RecordRequestDuration("enrich_product", time.Since(start))

	s.logger.Info("pipeline finished",
		zap.String("run_id", runID),
		zap.Int("product_id", productID),
		zap.Bool("success", outcome.Success),
		zap.Bool("cancelled", outcome.Cancelled),
		zap.Duration("duration", time.Since(start)))

	return outcome
}

// run executes the pipeline steps against outcome and reports whether the
// run ended on a fatal failure.
func (s *EnrichmentService) run(ctx context.Context, productID int, outcome *domain.PipelineOutcome) bool {
	// Step 1: fetch. Fatal on failure.
	product, err := s.catalog.FetchProduct(ctx, productID)
	if !s.record(outcome, domain.StepFetch, err) {
		return true
	}

	// Step 2: enrich. Fatal on failure or when nothing usable came back.
	result, err := s.enricher.Enrich(ctx, &domain.EnrichmentRequest{
		ProductName:    product.Name,
		Category:       product.Category,
		BasePrice:      product.RegularPrice,
		GenerateImages: true,
	})
	if err == nil && !result.HasTextOrPrice() && len(result.ImageURLs) == 0 {
		err = &domain.ErrExternalService{Service: "enricher", Err: errors.New("empty enrichment result")}
	}
	if !s.record(outcome, domain.StepEnrich, err) {
		return true
	}

	// Step 3: persist text and pricing. Non-fatal unless strict.
	update := domain.ProductUpdate{
		Description:      result.Description,
		ShortDescription: result.MetaDescription,
		RegularPrice:     result.OptimalPrice,
	}
	if !update.IsEmpty() {
		err = s.catalog.UpdateFields(ctx, productID, update)
		if !s.recordPersist(ctx, outcome, domain.StepUpdate, err) {
			return !outcome.Cancelled
		}
	}

	// Steps 4..n: images. Each image fails independently.
	mediaIDs := s.processImages(ctx, productID, result.ImageURLs, outcome)
	if outcome.Cancelled {
		return false
	}

	// Final step: attach whatever uploaded. Skipped entirely with no images.
	if len(mediaIDs) > 0 {
		err = s.catalog.AttachImages(ctx, productID, mediaIDs)
		if !s.recordPersist(ctx, outcome, domain.StepAttach, err) {
			return !outcome.Cancelled
		}
	}
	return false
}

// processImages downloads and uploads every generated image concurrently,
// bounded by the upload bulkhead. Media IDs come back in the original image
// order with failed slots dropped.
func (s *EnrichmentService) processImages(ctx context.Context, productID int, urls []string, outcome *domain.PipelineOutcome) []int {
	if len(urls) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "enrichment.processImages")
	defer span.End()
	span.SetAttributes(attribute.Int("images.count", len(urls)))

	type imageSlot struct {
		mediaID int
		err     error
	}
	slots := make([]imageSlot, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			// Per-image failures stay in the slot; only context
			// cancellation tears the group down.
			slots[i].mediaID, slots[i].err = s.processOneImage(gctx, productID, i, url)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	_ = g.Wait()

	var mediaIDs []int
	for i, slot := range slots {
		step := domain.ImageStep(i)
		if slot.err != nil {
			outcome.Steps = append(outcome.Steps, domain.StepResult{Step: step, Error: slot.err.Error()})
			s.metrics.IncrStepError(step)
			s.metrics.IncrImage("skipped")
			s.logger.Error("image processing failed",
				zap.Int("product_id", productID),
				zap.String("url", urls[i]),
				zap.Error(slot.err))
			continue
		}
		outcome.Steps = append(outcome.Steps, domain.StepResult{Step: step, OK: true})
		s.metrics.IncrImage("attached")
		mediaIDs = append(mediaIDs, slot.mediaID)
	}

	if ctx.Err() != nil {
		outcome.Cancelled = true
	}
	return mediaIDs
}

func (s *EnrichmentService) processOneImage(ctx context.Context, productID, index int, url string) (int, error) {
	data, contentType, err := s.fetcher.Download(ctx, url)
	if err != nil {
		return 0, err
	}

	if err := s.uploadBulkhead.Acquire(ctx); err != nil {
		return 0, err
	}
	defer s.uploadBulkhead.Release()

	filename := imageFilename(productID, index+1, contentType)
	return s.media.Upload(ctx, filename, data, contentType)
}

// record appends a step result and reports whether the run may continue.
// Any failure here is fatal.
func (s *EnrichmentService) record(outcome *domain.PipelineOutcome, step string, err error) bool {
	if err == nil {
		outcome.Steps = append(outcome.Steps, domain.StepResult{Step: step, OK: true})
		return true
	}

	outcome.Steps = append(outcome.Steps, domain.StepResult{Step: step, Error: err.Error()})
	s.metrics.IncrStepError(step)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		outcome.Cancelled = true
	}
	s.logger.Error("pipeline step failed",
		zap.Int("product_id", outcome.ProductID),
		zap.String("step", step),
		zap.Error(err))
	return false
}

// recordPersist is record for persistence steps, where failure is tolerated
// unless strict persistence is on or the context is gone.
func (s *EnrichmentService) recordPersist(ctx context.Context, outcome *domain.PipelineOutcome, step string, err error) bool {
	if err == nil {
		outcome.Steps = append(outcome.Steps, domain.StepResult{Step: step, OK: true})
		return true
	}

	outcome.Steps = append(outcome.Steps, domain.StepResult{Step: step, Error: err.Error()})
	s.metrics.IncrStepError(step)
	s.logger.Error("pipeline step failed",
		zap.Int("product_id", outcome.ProductID),
		zap.String("step", step),
		zap.Error(err))

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		outcome.Cancelled = true
		return false
	}
	return !s.strictPersist
}

// finalize computes success, summary and run metrics from the step list.
func (s *EnrichmentService) finalize(ctx context.Context, outcome *domain.PipelineOutcome, fatal bool) {
	if ctx.Err() != nil {
		outcome.Cancelled = true
	}

	switch {
	case outcome.Cancelled:
		outcome.Success = false
		outcome.Summary = fmt.Sprintf("Enrichment of product %d was cancelled before completion.", outcome.ProductID)
		s.metrics.IncrPipelineRun("cancelled")
		return
	case fatal:
		outcome.Success = false
		outcome.Summary = fmt.Sprintf("Enrichment of product %d failed: %s.", outcome.ProductID, firstFailure(outcome))
		s.metrics.IncrPipelineRun("failure")
		return
	}

	outcome.Success = true
	attached, skipped := outcome.ImageCounts()

	var parts []string
	if step := outcome.Step(domain.StepUpdate); step != nil {
		if step.OK {
			parts = append(parts, "content and pricing updated")
		} else {
			parts = append(parts, "content update failed")
		}
	}
	if attached+skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d images attached", attached, attached+skipped))
	}
	if len(parts) == 0 {
		parts = append(parts, "no changes were needed")
	}

	outcome.Summary = fmt.Sprintf("Product %d enriched: %s.", outcome.ProductID, strings.Join(parts, ", "))
	s.metrics.IncrPipelineRun("success")
}

func firstFailure(outcome *domain.PipelineOutcome) string {
	for _, step := range outcome.Steps {
		if !step.OK {
			return fmt.Sprintf("%s step: %s", step.Step, step.Error)
		}
	}
	return "unknown error"
}

func imageFilename(productID, n int, contentType string) string {
	ext := ".png"
	switch contentType {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return fmt.Sprintf("product_%d_%d%s", productID, n, ext)
}
