package reasoning

// Phase is one stage of the reasoning cycle. Phases are visited in fixed
// order; LEARN wraps around to OBSERVE for multi-cycle reasoning.
type Phase int

const (
	// PhaseObserve gathers observations, constraints, and anti-criteria.
	PhaseObserve Phase = iota
	// PhasePlan turns observations into an ordered plan.
	PhasePlan
	// PhaseExecute delegates to the tool invocation loop.
	PhaseExecute
	// PhaseVerify evaluates the verification gate and sets the validated flag.
	PhaseVerify
	// PhaseLearn reflects on the outcome and proposes the final answer.
	PhaseLearn
)

const phaseCount = 5

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseObserve:
		return "observe"
	case PhasePlan:
		return "plan"
	case PhaseExecute:
		return "execute"
	case PhaseVerify:
		return "verify"
	case PhaseLearn:
		return "learn"
	default:
		return "invalid"
	}
}

// next returns the following phase in the cycle, wrapping LEARN to OBSERVE.
func (p Phase) next() Phase {
	return (p + 1) % phaseCount
}

// NextAction is what a phase handler proposes after producing its step.
type NextAction int

const (
	// ActionContinue advances to the next phase in sequence.
	ActionContinue NextAction = iota
	// ActionValidate jumps directly to VERIFY.
	ActionValidate
	// ActionFinalAnswer proposes terminating with the executed result. It is
	// only accepted in LEARN with the validated flag set.
	ActionFinalAnswer
	// ActionReset returns to OBSERVE and clears the validated flag.
	ActionReset
)

// String returns the string representation of the action.
func (a NextAction) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionValidate:
		return "validate"
	case ActionFinalAnswer:
		return "final_answer"
	case ActionReset:
		return "reset"
	default:
		return "invalid"
	}
}

// legalActions is the transition table: which actions each phase's handler may
// legally propose. Anything else is overridden to CONTINUE and logged.
var legalActions = map[Phase]map[NextAction]bool{
	PhaseObserve: {ActionContinue: true, ActionReset: true},
	PhasePlan:    {ActionContinue: true, ActionReset: true},
	PhaseExecute: {ActionContinue: true, ActionValidate: true, ActionReset: true},
	PhaseVerify:  {ActionValidate: true, ActionReset: true, ActionContinue: true},
	PhaseLearn:   {ActionFinalAnswer: true, ActionReset: true},
}

// Termination classifies how a reasoning run ended.
type Termination int

const (
	// TerminationCompleted means a validated final answer was accepted.
	TerminationCompleted Termination = iota
	// TerminationMaxResetsExceeded means the reset budget ran out.
	TerminationMaxResetsExceeded
	// TerminationMaxStepsExceeded means the step budget ran out.
	TerminationMaxStepsExceeded
)

// String returns the string representation of the termination reason.
func (t Termination) String() string {
	switch t {
	case TerminationCompleted:
		return "completed"
	case TerminationMaxResetsExceeded:
		return "max_resets_exceeded"
	case TerminationMaxStepsExceeded:
		return "max_steps_exceeded"
	default:
		return "invalid"
	}
}
