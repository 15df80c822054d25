package reasoning

import "agentcore/pkg/toolloop"

// ObserveArtifact is what OBSERVE produces: the framing of the task.
type ObserveArtifact struct {
	Observations []string
	Constraints  []string
	AntiCriteria []string
}

// PlanArtifact is what PLAN produces: the intended approach.
type PlanArtifact struct {
	PlanSteps      []string
	Approach       string
	EstimatedSteps int
}

// ExecuteArtifact wraps the tool loop outcome for the EXECUTE phase.
type ExecuteArtifact struct {
	LoopResult *toolloop.Result
	RawOutput  string
}

// VerifyArtifact records the verification gate's evaluation.
type VerifyArtifact struct {
	CriterionResults []CriterionResult
	FailedCriteria   []string
	AllPassed        bool
}

// LearnArtifact is what LEARN produces: reflection on the cycle.
type LearnArtifact struct {
	Lessons         []string
	Recommendations []string
	ConfidenceDelta float64
}

// Artifacts holds at most one artifact per phase, each produced exactly once
// per phase execution. The typed fields replace a heterogeneous map so
// consumers never need runtime type tests.
type Artifacts struct {
	Observe *ObserveArtifact
	Plan    *PlanArtifact
	Execute *ExecuteArtifact
	Verify  *VerifyArtifact
	Learn   *LearnArtifact
}
