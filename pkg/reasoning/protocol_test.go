package reasoning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/llm"
	"agentcore/pkg/toolloop"
	"agentcore/pkg/tools"
)

// staticClient returns the same response for every completion.
type staticClient struct {
	content string
	err     error
	calls   int
}

func (c *staticClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.calls++
	if c.err != nil {
		return llm.CompletionResponse{}, c.err
	}
	return llm.CompletionResponse{
		Content: c.content,
		Usage:   llm.Usage{PromptTokens: 5, CompletionTokens: 5},
	}, nil
}

func (c *staticClient) GetModelName() string { return "mock-model" }

// staticGate returns fixed criterion results.
type staticGate struct {
	results []CriterionResult
	calls   int
}

func (g *staticGate) EvaluateAll(_ context.Context, _ GateContext, _ bool) []CriterionResult {
	g.calls++
	return g.results
}

const phaseJSON = `{"observations":["obs"],"constraints":["c"],"anti_criteria":[],` +
	`"plan_steps":["step one"],"approach":"direct","estimated_steps":1,` +
	`"lessons":["l"],"recommendations":[],"confidence_delta":0.1}`

// newTestProtocol wires a protocol whose EXECUTE phase completes in one
// iteration with the given raw output.
func newTestProtocol(t *testing.T, cfg Config, executeOutput string, opts ...Option) (*Protocol, *staticClient) {
	t.Helper()
	phaseClient := &staticClient{content: phaseJSON}
	loopClient := &staticClient{content: executeOutput}

	loopCfg := toolloop.DefaultConfig()
	loopCfg.EnableDoubleConfirmation = false
	loop := toolloop.New(loopClient, tools.NewRegistry(), loopCfg)

	return New(phaseClient, loop, cfg, opts...), phaseClient
}

func TestMaxStepsTerminatesAfterObserveAndPlan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 2
	protocol, _ := newTestProtocol(t, cfg, "executed")

	result, err := protocol.Run(context.Background(), Input{TaskInput: "do the thing"})
	require.NoError(t, err)
	assert.Equal(t, TerminationMaxStepsExceeded, result.Termination)
	assert.Equal(t, 2, result.TotalSteps)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, PhaseObserve, result.Steps[0].Phase)
	assert.Equal(t, PhasePlan, result.Steps[1].Phase)
	assert.Empty(t, result.FinalOutput)
}

func TestFullCycleWithoutGateCompletes(t *testing.T) {
	protocol, _ := newTestProtocol(t, DefaultConfig(), "the executed answer")

	result, err := protocol.Run(context.Background(), Input{TaskInput: "do the thing"})
	require.NoError(t, err)
	assert.Equal(t, TerminationCompleted, result.Termination)
	assert.Equal(t, 5, result.TotalSteps)
	assert.Equal(t, "the executed answer", result.FinalOutput)

	phases := make([]Phase, 0, len(result.Steps))
	for _, step := range result.Steps {
		phases = append(phases, step.Phase)
	}
	assert.Equal(t, []Phase{PhaseObserve, PhasePlan, PhaseExecute, PhaseVerify, PhaseLearn}, phases)

	// VERIFY auto-passed without a gate.
	require.NotNil(t, result.Artifacts.Verify)
	assert.True(t, result.Artifacts.Verify.AllPassed)
}

func TestAllPassingGateCompletesWithExecuteOutput(t *testing.T) {
	gate := &staticGate{results: []CriterionResult{
		{Name: "output_present", Success: true},
		{Name: "no_errors", Success: true},
	}}
	protocol, _ := newTestProtocol(t, DefaultConfig(), "verified answer", WithGate(gate))

	result, err := protocol.Run(context.Background(), Input{TaskInput: "do the thing"})
	require.NoError(t, err)
	assert.Equal(t, TerminationCompleted, result.Termination)
	assert.Equal(t, "verified answer", result.FinalOutput)
	assert.Equal(t, 1, gate.calls)
	require.NotNil(t, result.Artifacts.Execute)
	assert.Equal(t, result.Artifacts.Execute.RawOutput, result.FinalOutput)
}

func TestAlwaysFailingGateExhaustsResetBudget(t *testing.T) {
	gate := &staticGate{results: []CriterionResult{
		{Name: "impossible", Success: false},
	}}
	cfg := DefaultConfig()
	cfg.MaxSteps = 50
	protocol, _ := newTestProtocol(t, cfg, "never good enough", WithGate(gate))

	result, err := protocol.Run(context.Background(), Input{TaskInput: "do the thing"})
	require.NoError(t, err)
	assert.Equal(t, TerminationMaxResetsExceeded, result.Termination)
	assert.Greater(t, result.ResetCount, 3)
	assert.Equal(t, 4, gate.calls)

	// Failed criterion names are recorded on the VERIFY step.
	var verifySteps int
	for _, step := range result.Steps {
		if step.Phase == PhaseVerify {
			verifySteps++
			assert.Contains(t, step.Result, "impossible")
		}
	}
	assert.Equal(t, 4, verifySteps)
}

func TestQualityGateForcesResetOnPhaseFailure(t *testing.T) {
	phaseClient := &staticClient{err: errors.New("provider down")}
	loopClient := &staticClient{content: "unused"}
	loopCfg := toolloop.DefaultConfig()
	loopCfg.EnableDoubleConfirmation = false
	loop := toolloop.New(loopClient, tools.NewRegistry(), loopCfg)

	protocol := New(phaseClient, loop, DefaultConfig())

	result, err := protocol.Run(context.Background(), Input{TaskInput: "do the thing"})
	require.NoError(t, err)
	// Every OBSERVE step fails with confidence 0, so the quality gate resets
	// until the budget runs out: MAX_RESETS + 1 attempts.
	assert.Equal(t, TerminationMaxResetsExceeded, result.Termination)
	assert.Equal(t, 4, result.ResetCount)
	assert.Equal(t, 4, result.TotalSteps)
	for _, step := range result.Steps {
		assert.Equal(t, PhaseObserve, step.Phase)
		assert.Equal(t, 0.0, step.Confidence)
	}
}

func TestDisabledPhasesAreSkippedWithoutSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 3
	cfg.EnabledPhases = map[Phase]bool{PhaseObserve: true}
	protocol, _ := newTestProtocol(t, cfg, "unused")

	result, err := protocol.Run(context.Background(), Input{TaskInput: "observe only"})
	require.NoError(t, err)
	assert.Equal(t, TerminationMaxStepsExceeded, result.Termination)
	require.Len(t, result.Steps, 3)
	for _, step := range result.Steps {
		assert.Equal(t, PhaseObserve, step.Phase)
	}
}

func TestAllPhasesDisabledIsAnError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledPhases = map[Phase]bool{PhaseObserve: false}
	protocol, _ := newTestProtocol(t, cfg, "unused")

	_, err := protocol.Run(context.Background(), Input{TaskInput: "nothing enabled"})
	require.ErrorIs(t, err, ErrNoPhasesEnabled)
}

func TestObserveArtifactPopulatedFromModelOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSteps = 1
	protocol, _ := newTestProtocol(t, cfg, "unused")

	result, err := protocol.Run(context.Background(), Input{TaskInput: "do the thing"})
	require.NoError(t, err)
	require.NotNil(t, result.Artifacts.Observe)
	assert.Equal(t, []string{"obs"}, result.Artifacts.Observe.Observations)
	assert.Equal(t, []string{"c"}, result.Artifacts.Observe.Constraints)
}

func TestLegalityTableMatchesPhaseContract(t *testing.T) {
	assert.True(t, legalActions[PhaseObserve][ActionContinue])
	assert.True(t, legalActions[PhaseObserve][ActionReset])
	assert.False(t, legalActions[PhaseObserve][ActionFinalAnswer])
	assert.False(t, legalActions[PhaseObserve][ActionValidate])

	assert.True(t, legalActions[PhaseExecute][ActionValidate])
	assert.False(t, legalActions[PhasePlan][ActionValidate])

	assert.True(t, legalActions[PhaseLearn][ActionFinalAnswer])
	assert.True(t, legalActions[PhaseLearn][ActionReset])
	assert.False(t, legalActions[PhaseLearn][ActionContinue])

	assert.True(t, legalActions[PhaseVerify][ActionValidate])
	assert.True(t, legalActions[PhaseVerify][ActionContinue])
}
