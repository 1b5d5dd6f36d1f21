package domain

import "fmt"

// Pipeline step names as they appear in a PipelineOutcome. Image steps are
// derived per URL via ImageStep.
const (
	StepFetch  = "fetch"
	StepEnrich = "enrich"
	StepUpdate = "update"
	StepAttach = "attach"
)

// ImageStep names the per-image step for the i-th enrichment image (0-based
// input, 1-based label).
func ImageStep(i int) string {
	return fmt.Sprintf("image_%d", i+1)
}

// StepResult records the outcome of one pipeline step. Error is empty when
// the step succeeded.
type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PipelineOutcome is the single value a pipeline run returns to its caller.
// It is a pure function of the external responses observed during the run —
// no state survives between runs.
type PipelineOutcome struct {
	RunID     string       `json:"run_id"`
	ProductID int          `json:"product_id"`
	Success   bool         `json:"success"`
	Cancelled bool         `json:"cancelled,omitempty"`
	Summary   string       `json:"summary"`
	Steps     []StepResult `json:"steps"`
}

// Step returns the recorded result for the named step, or nil.
func (o *PipelineOutcome) Step(name string) *StepResult {
	for i := range o.Steps {
		if o.Steps[i].Step == name {
			return &o.Steps[i]
		}
	}
	return nil
}

// ImageCounts returns how many per-image steps succeeded and failed.
func (o *PipelineOutcome) ImageCounts() (ok, failed int) {
	for _, s := range o.Steps {
		if len(s.Step) > 6 && s.Step[:6] == "image_" {
			if s.OK {
				ok++
			} else {
				failed++
			}
		}
	}
	return ok, failed
}
