package toolloop

import (
	"context"
	"time"

	"agentcore/pkg/llm"
	"agentcore/pkg/tools"
)

// Verdict is the outcome of a runtime budget or autonomy check. A blocked
// verdict is a typed result, never a sentinel string in tool output.
type Verdict int

const (
	// VerdictAllowed permits the checked operation.
	VerdictAllowed Verdict = iota
	// VerdictBlocked denies the operation and terminates the run BudgetExceeded.
	VerdictBlocked
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAllowed:
		return "allowed"
	case VerdictBlocked:
		return "blocked"
	default:
		return "invalid"
	}
}

// Governance performs policy checks before tool execution and keeps the audit
// trail. A denial synthesizes a failed result for the model to see; it is not
// counted against the error budget.
type Governance interface {
	PreExecuteCheck(toolName string, args map[string]any) bool
	LogExecution(toolName string, args map[string]any, result *tools.ToolResult)
}

// Enforcer applies runtime resource and autonomy budgets. Category checks run
// per tool call; RecordIteration and CheckDuration run once per iteration.
type Enforcer interface {
	CheckCommand(command string) Verdict
	CheckFileRead(path string) Verdict
	CheckFileWrite(path string) Verdict
	CheckNetwork(url string) Verdict
	RecordIteration() Verdict
	CheckDuration() Verdict
}

// HookContext is the mutable context passed to pre/post execute hooks. A pre
// hook may rewrite Arguments or set Abort; a post hook may rewrite Result.
type HookContext struct {
	ToolName    string
	Arguments   map[string]any
	Result      *tools.ToolResult
	Abort       bool
	AbortReason string
}

// HookRunner runs user-registered hooks around tool execution.
type HookRunner interface {
	PreExecute(ctx context.Context, hc *HookContext)
	PostExecute(ctx context.Context, hc *HookContext)
}

// Event is one observation emitted by the loop: a raw model response or a
// tool execution.
type Event struct {
	Time      time.Time
	RunID     string
	Kind      string
	ToolName  string
	Payload   string
	Iteration int
}

// Event kinds.
const (
	EventModelResponse = "model_response"
	EventToolExecution = "tool_execution"
)

// Observer records loop events for tracing. Record failures are swallowed and
// logged by the loop, never surfaced to the caller.
type Observer interface {
	Record(event Event) error
}

// ContextManager fits the conversation into a token budget between
// iterations. Implementations must preserve every system message and the
// intent of anything removed.
type ContextManager interface {
	Manage(messages []llm.CompletionMessage) ([]llm.CompletionMessage, error)
}

// HandoffExecutor builds the replacement conversation after a successful
// handoff tool call. The loop discards the entire prior message history and
// continues from the returned messages.
type HandoffExecutor interface {
	BuildContext(payload map[string]any) ([]llm.CompletionMessage, error)
}

// LeakScanner inspects successful tool output for secrets. A positive match
// causes the loop to replace the output with RedactionNotice.
type LeakScanner interface {
	Scan(output string) bool
}

// Recorder receives loop-level metrics.
type Recorder interface {
	RecordRun(termination string, iterations, tokensUsed int)
	RecordToolExecution(toolName string, success bool, duration time.Duration)
}
