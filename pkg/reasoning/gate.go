package reasoning

import "context"

// CriterionResult is the outcome of evaluating one verification criterion.
// Anti-criteria report Success when their underlying check came back false.
type CriterionResult struct {
	Name    string
	Success bool
}

// GateContext is what the verification gate sees: the original task and every
// artifact produced so far in the current cycle.
type GateContext struct {
	TaskInput string
	Artifacts *Artifacts
}

// Gate is the verification collaborator evaluated during VERIFY. When no gate
// is configured, VERIFY auto-passes.
type Gate interface {
	EvaluateAll(ctx context.Context, gctx GateContext, enableAntiCriteria bool) []CriterionResult
}

// Recorder receives per-step metrics.
type Recorder interface {
	RecordPhaseStep(phase, action string)
}
