// Package reasoning implements the five-phase reasoning protocol: a state
// machine that cycles OBSERVE, PLAN, EXECUTE, VERIFY, LEARN around the tool
// invocation loop, with a confidence quality gate, a bounded reset budget,
// and a final-answer admission rule requiring a validated LEARN phase.
package reasoning

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"agentcore/pkg/llm"
	"agentcore/pkg/logx"
	"agentcore/pkg/toolloop"
)

// maxResets bounds quality-gate and verification resets per run. Exceeding it
// terminates the run rather than looping forever on a task the agent cannot
// validate.
const maxResets = 3

// ErrNoPhasesEnabled is returned when the configuration disables every phase.
var ErrNoPhasesEnabled = errors.New("reasoning: at least one phase must be enabled")

// Config bounds one reasoning run.
type Config struct {
	// EnabledPhases restricts the cycle to a subset of phases. Nil or empty
	// enables all five.
	EnabledPhases        map[Phase]bool
	MaxSteps             int
	QualityGateThreshold float64
	EnableAntiCriteria   bool
}

// DefaultConfig returns the platform defaults.
func DefaultConfig() Config {
	return Config{
		MaxSteps:             50,
		QualityGateThreshold: 0.5,
	}
}

func (c Config) normalized() Config {
	if c.MaxSteps <= 0 {
		c.MaxSteps = 50
	}
	return c
}

// Input is one reasoning task.
type Input struct {
	TaskInput    string
	SystemPrompt string
	Model        string
	Temperature  float32
	MaxTokens    int
}

// Step is one append-only trace record of a phase execution.
type Step struct {
	StepID     string
	Title      string
	Action     string
	Result     string
	Reasoning  string
	NextAction NextAction
	Confidence float64
	Phase      Phase
}

// Result is the immutable outcome of one reasoning run.
type Result struct {
	Steps       []Step
	FinalOutput string
	Artifacts   *Artifacts
	Termination Termination
	TotalSteps  int
	ResetCount  int
}

// runState is created fresh per Run and never shared.
type runState struct {
	artifacts  Artifacts
	steps      []Step
	phase      Phase
	stepIndex  int
	resetCount int
	validated  bool
}

// Option configures optional collaborators on a Protocol.
type Option func(*Protocol)

// WithGate installs the verification gate evaluated during VERIFY.
func WithGate(g Gate) Option { return func(p *Protocol) { p.gate = g } }

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option { return func(p *Protocol) { p.recorder = r } }

// Protocol drives the reasoning cycle. The model client serves OBSERVE, PLAN,
// and LEARN; the tool loop serves EXECUTE; the gate, when present, serves
// VERIFY.
type Protocol struct {
	client   llm.LLMClient
	loop     *toolloop.ToolLoop
	gate     Gate
	recorder Recorder
	logger   *logx.Logger
	cfg      Config
}

// New creates a reasoning protocol bound to a model client and tool loop.
func New(client llm.LLMClient, loop *toolloop.ToolLoop, cfg Config, opts ...Option) *Protocol {
	p := &Protocol{
		client: client,
		loop:   loop,
		cfg:    cfg.normalized(),
		logger: logx.NewLogger("reasoning"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Protocol) enabled(phase Phase) bool {
	if len(p.cfg.EnabledPhases) == 0 {
		return true
	}
	return p.cfg.EnabledPhases[phase]
}

// Run executes the reasoning cycle over one task. Like the tool loop, it
// reserves errors for programmer misuse; every runtime outcome is a
// Termination on the Result.
func (p *Protocol) Run(ctx context.Context, in Input) (*Result, error) {
	if len(p.cfg.EnabledPhases) > 0 {
		enabled := false
		for _, on := range p.cfg.EnabledPhases {
			if on {
				enabled = true
				break
			}
		}
		if !enabled {
			return nil, ErrNoPhasesEnabled
		}
	}
	if in.Model == "" && p.client != nil {
		in.Model = p.client.GetModelName()
	}

	st := &runState{phase: PhaseObserve}
	p.logger.Debug("reasoning run starting: model=%s max_steps=%d", in.Model, p.cfg.MaxSteps)

	for {
		if st.stepIndex >= p.cfg.MaxSteps {
			return p.finish(st, TerminationMaxStepsExceeded), nil
		}
		if !p.enabled(st.phase) {
			st.phase = st.phase.next()
			continue
		}

		step, action, err := p.runPhase(ctx, st, in)
		if err != nil {
			return nil, err
		}
		st.stepIndex++
		st.steps = append(st.steps, step)
		if p.recorder != nil {
			p.recorder.RecordPhaseStep(st.phase.String(), action.String())
		}

		// Validation order is fixed: legality first, then the quality gate,
		// which overrides unconditionally.
		if !legalActions[st.phase][action] {
			p.logger.Warn("illegal action %s proposed in phase %s, overriding to continue", action, st.phase)
			action = ActionContinue
		}
		if step.Confidence < p.cfg.QualityGateThreshold {
			p.logger.Info("quality gate: confidence %.2f below %.2f in %s, forcing reset",
				step.Confidence, p.cfg.QualityGateThreshold, st.phase)
			action = ActionReset
		}

		switch action {
		case ActionReset:
			st.resetCount++
			if st.resetCount > maxResets {
				p.logger.Warn("reset budget exhausted (%d resets)", st.resetCount)
				return p.finish(st, TerminationMaxResetsExceeded), nil
			}
			st.phase = PhaseObserve
			st.validated = false
		case ActionValidate:
			st.phase = PhaseVerify
		case ActionFinalAnswer:
			if st.phase == PhaseLearn && st.validated {
				return p.finish(st, TerminationCompleted), nil
			}
			// Not admissible: downgrade to CONTINUE.
			p.logger.Warn("final answer rejected (phase=%s validated=%v), continuing", st.phase, st.validated)
			st.phase = st.phase.next()
		case ActionContinue:
			st.phase = st.phase.next()
		}
	}
}

func (p *Protocol) runPhase(ctx context.Context, st *runState, in Input) (Step, NextAction, error) {
	switch st.phase {
	case PhaseObserve:
		step, action := p.observe(ctx, st, in)
		return step, action, nil
	case PhasePlan:
		step, action := p.plan(ctx, st, in)
		return step, action, nil
	case PhaseExecute:
		return p.execute(ctx, st, in)
	case PhaseVerify:
		step, action := p.verify(ctx, st, in)
		return step, action, nil
	case PhaseLearn:
		step, action := p.learn(ctx, st, in)
		return step, action, nil
	default:
		return Step{}, ActionContinue, errors.New("reasoning: unrecognized phase")
	}
}

func (p *Protocol) finish(st *runState, term Termination) *Result {
	finalOutput := ""
	if term == TerminationCompleted && st.artifacts.Execute != nil {
		finalOutput = st.artifacts.Execute.RawOutput
	}
	steps := st.steps
	if steps == nil {
		steps = []Step{}
	}
	p.logger.Info("reasoning run finished: %s (steps=%d resets=%d)", term, st.stepIndex, st.resetCount)
	return &Result{
		Steps:       steps,
		FinalOutput: finalOutput,
		Artifacts:   &st.artifacts,
		Termination: term,
		TotalSteps:  st.stepIndex,
		ResetCount:  st.resetCount,
	}
}

func newStep(phase Phase, title, actionDesc, result, reasoning string, next NextAction, confidence float64) Step {
	return Step{
		StepID:     uuid.NewString(),
		Title:      title,
		Action:     actionDesc,
		Result:     result,
		Reasoning:  reasoning,
		NextAction: next,
		Confidence: confidence,
		Phase:      phase,
	}
}
