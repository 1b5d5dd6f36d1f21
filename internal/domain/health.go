package domain

// ServiceHealth reports the probed status of one dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is the aggregate health response.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// PipelineMetrics is the snapshot served by GET /v1/metrics/pipeline.
type PipelineMetrics struct {
	TotalRuns      int64   `json:"total_runs"`
	SucceededRuns  int64   `json:"succeeded_runs"`
	FailedRuns     int64   `json:"failed_runs"`
	CancelledRuns  int64   `json:"cancelled_runs"`
	ImagesAttached int64   `json:"images_attached"`
	ImagesSkipped  int64   `json:"images_skipped"`
	ErrorRate      float64 `json:"error_rate"`
	Period         string  `json:"period"`
}
