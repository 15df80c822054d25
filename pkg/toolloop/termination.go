package toolloop

// Termination classifies how a tool loop run ended. Every Result carries
// exactly one; recoverable conditions never surface as errors.
type Termination int

const (
	// TerminationCompleted means the model produced a final text response
	// (confirmed, when double confirmation is enabled).
	TerminationCompleted Termination = iota
	// TerminationMaxIterations means the iteration budget ran out; the Result
	// carries the best available partial output.
	TerminationMaxIterations
	// TerminationError means consecutive failures reached the error threshold.
	TerminationError
	// TerminationBudgetExceeded means a runtime enforcer check came back blocked.
	TerminationBudgetExceeded
	// TerminationLoopDetected means the doom-loop detector saw the same tool
	// call repeated past the threshold.
	TerminationLoopDetected
)

// String returns the string representation of the termination reason.
func (t Termination) String() string {
	switch t {
	case TerminationCompleted:
		return "completed"
	case TerminationMaxIterations:
		return "max_iterations"
	case TerminationError:
		return "error"
	case TerminationBudgetExceeded:
		return "budget_exceeded"
	case TerminationLoopDetected:
		return "loop_detected"
	default:
		return "invalid"
	}
}
