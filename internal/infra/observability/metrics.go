package observability

import (
	"time"

	"github.com/cerebroai/shop-assistant-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	pipelineRuns    *prometheus.CounterVec
	stepErrors      *prometheus.CounterVec
	imagesProcessed *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_pipeline_runs_total",
				Help: "Total enrichment pipeline runs by result.",
			},
			[]string{"result"},
		),
		stepErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_pipeline_step_errors_total",
				Help: "Total failed pipeline steps by step name.",
			},
			[]string{"step"},
		),
		imagesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_pipeline_images_total",
				Help: "Total images processed by the pipeline.",
			},
			[]string{"result"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrPipelineRun increments the run counter. Result is one of
// "success", "failure", "cancelled".
func (m *Metrics) IncrPipelineRun(result string) {
	m.pipelineRuns.WithLabelValues(result).Inc()
}

// IncrStepError increments the failed-step counter for a step name.
func (m *Metrics) IncrStepError(step string) {
	m.stepErrors.WithLabelValues(step).Inc()
}

// IncrImage counts one processed image: "attached" or "skipped".
func (m *Metrics) IncrImage(result string) {
	m.imagesProcessed.WithLabelValues(result).Inc()
}

// GetPipelineSnapshot returns a snapshot of pipeline metrics suitable for
// the GET /v1/metrics/pipeline endpoint.
func (m *Metrics) GetPipelineSnapshot() *domain.PipelineMetrics {
	succeeded := getCounterValue(m.pipelineRuns, "success")
	failed := getCounterValue(m.pipelineRuns, "failure")
	cancelled := getCounterValue(m.pipelineRuns, "cancelled")
	total := succeeded + failed + cancelled

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}

	return &domain.PipelineMetrics{
		TotalRuns:      int64(total),
		SucceededRuns:  int64(succeeded),
		FailedRuns:     int64(failed),
		CancelledRuns:  int64(cancelled),
		ImagesAttached: int64(getCounterValue(m.imagesProcessed, "attached")),
		ImagesSkipped:  int64(getCounterValue(m.imagesProcessed, "skipped")),
		ErrorRate:      errorRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
