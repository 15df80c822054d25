// Package toolloop implements the iterative tool invocation engine: request a
// completion, execute the tool calls it returns, decide whether to stop. Runs
// are bounded four ways: iteration count, consecutive-error threshold,
// runtime enforcer budgets, and doom-loop detection. The loop never returns
// an error for recoverable conditions; every Result carries a Termination.
package toolloop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentcore/pkg/llm"
	"agentcore/pkg/llm/llmerrors"
	"agentcore/pkg/logx"
	"agentcore/pkg/tools"
)

const (
	// HandoffToolName is the tool whose successful execution triggers a full
	// context reset via the handoff executor.
	HandoffToolName = "handoff"

	// RedactionNotice replaces tool output that the leak scanner flagged.
	RedactionNotice = "[REDACTED: output withheld because it matched a credential pattern]"

	// confirmationRequest is injected after a text-only response when double
	// confirmation is enabled.
	confirmationRequest = "Before finishing, confirm explicitly: reply starting with " +
		"COMPLETED: followed by your final answer if the task is done, or " +
		"CONTINUE: followed by what remains if you still have work to do."

	// continueAck keeps the conversation alternating after a CONTINUE reply.
	continueAck = "Understood, continue with the task."
)

// Config bounds one tool loop run. It is immutable once the run starts.
type Config struct {
	MaxIterations            int
	MaxToolCallsPerIteration int
	ErrorThreshold           int
	EnableDoubleConfirmation bool
	LoopDetectionThreshold   int
}

// DefaultConfig returns the platform defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:            10,
		MaxToolCallsPerIteration: 5,
		ErrorThreshold:           3,
		EnableDoubleConfirmation: true,
		LoopDetectionThreshold:   3,
	}
}

func (c Config) normalized() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	if c.MaxToolCallsPerIteration <= 0 {
		c.MaxToolCallsPerIteration = 5
	}
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = 3
	}
	// LoopDetectionThreshold stays as given: zero disables detection.
	return c
}

// RunOptions selects the model and sampling parameters for one run. Zero
// values fall back to the client's defaults.
type RunOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Result is the immutable outcome of one run.
type Result struct {
	Output        map[string]any
	RawResponse   string
	Model         string
	ToolsUsed     []string
	TokensUsed    int
	Iterations    int
	ToolCallsMade int
	Termination   Termination
}

// runState is the per-run mutable state, created fresh on every Run call and
// never shared across runs.
type runState struct {
	detector            *doomDetector
	seenTools           map[string]bool
	toolsUsed           []string
	lastContent         string
	iteration           int
	tokensUsed          int
	toolCallsMade       int
	consecutiveErrors   int
	confirmationPending bool
}

// Option configures optional collaborators on a ToolLoop.
type Option func(*ToolLoop)

// WithGovernance installs a governance policy consulted before every tool call.
func WithGovernance(g Governance) Option { return func(tl *ToolLoop) { tl.governance = g } }

// WithEnforcer installs a runtime budget enforcer.
func WithEnforcer(e Enforcer) Option { return func(tl *ToolLoop) { tl.enforcer = e } }

// WithHooks installs pre/post execute hooks.
func WithHooks(h HookRunner) Option { return func(tl *ToolLoop) { tl.hooks = h } }

// WithObserver installs an observation sink for model responses and tool runs.
func WithObserver(o Observer) Option { return func(tl *ToolLoop) { tl.observer = o } }

// WithContextManager installs conversation compaction between iterations.
func WithContextManager(cm ContextManager) Option { return func(tl *ToolLoop) { tl.contextMgr = cm } }

// WithHandoffExecutor installs the context builder used on handoff.
func WithHandoffExecutor(h HandoffExecutor) Option { return func(tl *ToolLoop) { tl.handoff = h } }

// WithLeakScanner installs credential scanning of successful tool output.
func WithLeakScanner(ls LeakScanner) Option { return func(tl *ToolLoop) { tl.leaks = ls } }

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option { return func(tl *ToolLoop) { tl.recorder = r } }

// WithTruncator installs the tool-output truncation helper applied before a
// result enters the conversation.
func WithTruncator(fn func(string) string) Option { return func(tl *ToolLoop) { tl.truncate = fn } }

// ToolLoop drives the tool invocation cycle. The client and registry are
// injected at construction; the registry may be nil for text-only agents.
type ToolLoop struct {
	client     llm.LLMClient
	registry   *tools.Registry
	governance Governance
	enforcer   Enforcer
	hooks      HookRunner
	observer   Observer
	contextMgr ContextManager
	handoff    HandoffExecutor
	leaks      LeakScanner
	recorder   Recorder
	truncate   func(string) string
	logger     *logx.Logger
	cfg        Config
}

// New creates a tool loop bound to a model client and tool registry.
func New(client llm.LLMClient, registry *tools.Registry, cfg Config, opts ...Option) *ToolLoop {
	tl := &ToolLoop{
		client:   client,
		registry: registry,
		cfg:      cfg.normalized(),
		logger:   logx.NewLogger("toolloop"),
	}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// Run executes the tool invocation loop over the given conversation. It
// returns an error only for programmer misuse; every runtime outcome,
// including budget exhaustion and repeated failures, is a Termination on the
// Result.
func (tl *ToolLoop) Run(ctx context.Context, messages []llm.CompletionMessage, opts RunOptions) (*Result, error) {
	if tl.client == nil {
		return nil, ErrNilClient
	}
	if !hasRole(messages, llm.RoleSystem) || !hasRole(messages, llm.RoleUser) {
		return nil, ErrInvalidMessages
	}
	if opts.Model == "" {
		opts.Model = tl.client.GetModelName()
	}
	if opts.Temperature == 0 {
		opts.Temperature = llm.TemperatureDefault
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = llm.MaxTokensDefault
	}

	runID := uuid.NewString()
	st := &runState{
		detector:  newDoomDetector(tl.cfg.LoopDetectionThreshold),
		seenTools: make(map[string]bool),
	}
	msgs := append([]llm.CompletionMessage(nil), messages...)

	tl.logger.Debug("run %s starting: model=%s max_iterations=%d", runID, opts.Model, tl.cfg.MaxIterations)

	for st.iteration < tl.cfg.MaxIterations {
		st.iteration++

		req := llm.CompletionRequest{
			Messages:    msgs,
			Model:       opts.Model,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}
		if tl.registry != nil && tl.registry.Len() > 0 {
			req.Tools = tl.registry.ListAll()
		}

		resp, err := tl.client.Complete(ctx, req)
		if err != nil {
			st.consecutiveErrors++
			tl.logger.Warn("run %s: completion failed (%d/%d, %s): %v",
				runID, st.consecutiveErrors, tl.cfg.ErrorThreshold, llmerrors.TypeOf(err), err)
			if st.consecutiveErrors >= tl.cfg.ErrorThreshold {
				return tl.finish(runID, st, opts, TerminationError, nil, ""), nil
			}
			continue
		}

		st.tokensUsed += resp.Usage.Total()
		if strings.TrimSpace(resp.Content) != "" {
			st.lastContent = resp.Content
		}
		tl.observe(Event{
			Time:      time.Now().UTC(),
			RunID:     runID,
			Kind:      EventModelResponse,
			Payload:   resp.Content,
			Iteration: st.iteration,
		})

		if !resp.HasToolCalls() {
			// Text-only response: either final output or a confirmation exchange.
			if !tl.cfg.EnableDoubleConfirmation {
				return tl.finish(runID, st, opts, TerminationCompleted, ParseOutput(resp.Content), resp.Content), nil
			}
			if !st.confirmationPending {
				st.confirmationPending = true
				msgs = append(msgs,
					llm.NewAssistantMessage(resp.Content),
					llm.NewUserMessage(confirmationRequest))
				continue
			}
			switch classifyConfirmation(resp.Content) {
			case ConfirmationCompleted:
				answer := stripCompletedPrefix(resp.Content)
				return tl.finish(runID, st, opts, TerminationCompleted, ParseOutput(answer), answer), nil
			case ConfirmationContinue:
				st.confirmationPending = false
				msgs = append(msgs,
					llm.NewAssistantMessage(resp.Content),
					llm.NewUserMessage(continueAck))
			default:
				// Ambiguous: re-issue the request, stay pending. Bounded only
				// by the iteration budget.
				tl.logger.Debug("run %s: ambiguous confirmation reply, re-asking", runID)
				msgs = append(msgs,
					llm.NewAssistantMessage(resp.Content),
					llm.NewUserMessage(confirmationRequest))
			}
			continue
		}

		// Tool calls mean forward progress: clear the error streak and any
		// pending confirmation.
		st.consecutiveErrors = 0
		st.confirmationPending = false

		st.detector.Observe(resp.ToolCalls[0])
		if st.detector.Looping() {
			tl.logger.Warn("run %s: doom loop detected on %s after %d identical calls",
				runID, resp.ToolCalls[0].Name, tl.cfg.LoopDetectionThreshold)
			return tl.finish(runID, st, opts, TerminationLoopDetected, nil, ""), nil
		}

		processed := resp.ToolCalls
		if len(processed) > tl.cfg.MaxToolCallsPerIteration {
			tl.logger.Warn("run %s: %d tool calls returned, capping at %d",
				runID, len(processed), tl.cfg.MaxToolCallsPerIteration)
			processed = processed[:tl.cfg.MaxToolCallsPerIteration]
		}

		results := make([]llm.ToolResultMessage, 0, len(processed))
		var handoffPayload map[string]any
		for _, call := range processed {
			result, blocked, args := tl.execOne(ctx, runID, st, call)
			if blocked {
				return tl.finish(runID, st, opts, TerminationBudgetExceeded, nil, ""), nil
			}
			results = append(results, llm.ToolResultMessage{
				ToolCallID: call.ID,
				Content:    tl.truncated(result.Text()),
				IsError:    !result.Success,
			})
			if call.Name == HandoffToolName && result.Success {
				handoffPayload = args
			}
		}

		// Pair only the calls actually processed with their results; calls
		// dropped by the per-iteration cap never enter the conversation.
		msgs = append(msgs,
			llm.CompletionMessage{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: processed},
			llm.CompletionMessage{Role: llm.RoleUser, ToolResults: results})

		if handoffPayload != nil && tl.handoff != nil {
			fresh, err := tl.handoff.BuildContext(handoffPayload)
			if err != nil {
				tl.logger.Error("run %s: handoff context build failed: %v", runID, err)
			} else {
				tl.logger.Info("run %s: handoff executed, context reset (%d messages)", runID, len(fresh))
				msgs = fresh
			}
		}

		if tl.contextMgr != nil {
			managed, err := tl.contextMgr.Manage(msgs)
			if err != nil {
				tl.logger.Warn("run %s: context management failed, keeping full history: %v", runID, err)
			} else {
				msgs = managed
			}
		}

		if st.consecutiveErrors >= tl.cfg.ErrorThreshold {
			return tl.finish(runID, st, opts, TerminationError, nil, ""), nil
		}
		if tl.enforcer != nil {
			if tl.enforcer.RecordIteration() == VerdictBlocked || tl.enforcer.CheckDuration() == VerdictBlocked {
				return tl.finish(runID, st, opts, TerminationBudgetExceeded, nil, ""), nil
			}
		}
	}

	return tl.finish(runID, st, opts, TerminationMaxIterations, nil, ""), nil
}

// execOne runs the full per-call pipeline: argument parsing, governance
// pre-check, budget check, pre hook, schema-validated dispatch, post hook,
// audit log, leak scan, observation, stats. A blocked budget verdict is the
// only outcome that halts the iteration.
func (tl *ToolLoop) execOne(ctx context.Context, runID string, st *runState, call llm.ToolCall) (result *tools.ToolResult, blocked bool, args map[string]any) {
	args = make(map[string]any)
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			st.consecutiveErrors++
			result = tools.Fail(fmt.Sprintf("malformed arguments for %s: %v", call.Name, err))
			tl.observeTool(runID, st, call.Name, result)
			return result, false, nil
		}
	}

	if tl.governance != nil && !tl.governance.PreExecuteCheck(call.Name, args) {
		// Policy denial is not a fault: the model sees the failure and can
		// choose a different approach without burning the error budget.
		result = tools.Fail(fmt.Sprintf("tool %s denied by governance policy", call.Name))
		tl.governance.LogExecution(call.Name, args, result)
		tl.observeTool(runID, st, call.Name, result)
		return result, false, nil
	}

	if tl.enforcer != nil && tl.budgetVerdict(call.Name, args) == VerdictBlocked {
		tl.logger.Warn("run %s: tool %s blocked by runtime budget", runID, call.Name)
		return tools.Fail(fmt.Sprintf("tool %s blocked by runtime budget", call.Name)), true, nil
	}

	hc := &HookContext{ToolName: call.Name, Arguments: args}
	if tl.hooks != nil {
		tl.hooks.PreExecute(ctx, hc)
		if hc.Abort {
			result = tools.Fail(fmt.Sprintf("tool %s aborted by pre-execute hook: %s", call.Name, hc.AbortReason))
			tl.observeTool(runID, st, call.Name, result)
			return result, false, args
		}
		if hc.Arguments != nil {
			args = hc.Arguments
		}
	}

	started := time.Now()
	if tl.registry != nil {
		result = tl.registry.ValidatedExecute(ctx, call.Name, args)
	} else {
		result = tools.Fail(fmt.Sprintf("tool %s not available: no registry configured", call.Name))
	}
	if !result.Success {
		st.consecutiveErrors++
	}

	if tl.hooks != nil {
		hc.Result = result
		tl.hooks.PostExecute(ctx, hc)
		if hc.Result != nil {
			result = hc.Result
		}
	}
	if tl.governance != nil {
		tl.governance.LogExecution(call.Name, args, result)
	}
	if result.Success && tl.leaks != nil && tl.leaks.Scan(result.Output) {
		tl.logger.Warn("run %s: leak scanner flagged output of %s, redacting", runID, call.Name)
		redacted := *result
		redacted.Output = RedactionNotice
		result = &redacted
	}
	if tl.recorder != nil {
		tl.recorder.RecordToolExecution(call.Name, result.Success, time.Since(started))
	}
	tl.observeTool(runID, st, call.Name, result)

	st.toolCallsMade++
	if !st.seenTools[call.Name] {
		st.seenTools[call.Name] = true
		st.toolsUsed = append(st.toolsUsed, call.Name)
	}
	return result, false, args
}

// budgetVerdict dispatches the autonomy check by tool category. Tools in the
// general category carry no budgeted argument and always pass.
func (tl *ToolLoop) budgetVerdict(name string, args map[string]any) Verdict {
	tool, err := tl.registry.Get(name)
	if err != nil {
		// Unknown tools fail at dispatch; nothing to budget here.
		return VerdictAllowed
	}
	cat := tool.Definition().Category
	argName := cat.BudgetArg()
	if argName == "" {
		return VerdictAllowed
	}
	value, _ := args[argName].(string)
	switch cat {
	case tools.CategoryCommand:
		return tl.enforcer.CheckCommand(value)
	case tools.CategoryFileRead:
		return tl.enforcer.CheckFileRead(value)
	case tools.CategoryFileWrite:
		return tl.enforcer.CheckFileWrite(value)
	case tools.CategoryNetwork:
		return tl.enforcer.CheckNetwork(value)
	default:
		return VerdictAllowed
	}
}

func (tl *ToolLoop) finish(runID string, st *runState, opts RunOptions, term Termination, output map[string]any, raw string) *Result {
	if output == nil {
		// Best available partial output.
		if st.lastContent != "" {
			output = ParseOutput(st.lastContent)
			raw = st.lastContent
		} else {
			output = map[string]any{}
		}
	}
	toolsUsed := st.toolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	if tl.recorder != nil {
		tl.recorder.RecordRun(term.String(), st.iteration, st.tokensUsed)
	}
	tl.logger.Info("run %s finished: %s (iterations=%d tool_calls=%d tokens=%d)",
		runID, term, st.iteration, st.toolCallsMade, st.tokensUsed)
	return &Result{
		Output:        output,
		RawResponse:   raw,
		Model:         opts.Model,
		ToolsUsed:     toolsUsed,
		TokensUsed:    st.tokensUsed,
		Iterations:    st.iteration,
		ToolCallsMade: st.toolCallsMade,
		Termination:   term,
	}
}

func (tl *ToolLoop) truncated(output string) string {
	if tl.truncate == nil {
		return output
	}
	return tl.truncate(output)
}

// observe records an event, swallowing sink failures.
func (tl *ToolLoop) observe(ev Event) {
	if tl.observer == nil {
		return
	}
	if err := tl.observer.Record(ev); err != nil {
		tl.logger.Warn("observation record failed: %v", err)
	}
}

func (tl *ToolLoop) observeTool(runID string, st *runState, toolName string, result *tools.ToolResult) {
	tl.observe(Event{
		Time:      time.Now().UTC(),
		RunID:     runID,
		Kind:      EventToolExecution,
		ToolName:  toolName,
		Payload:   result.Text(),
		Iteration: st.iteration,
	})
}

func hasRole(messages []llm.CompletionMessage, role llm.CompletionRole) bool {
	for i := range messages {
		if messages[i].Role == role {
			return true
		}
	}
	return false
}
