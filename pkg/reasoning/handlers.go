package reasoning

import (
	"context"
	"fmt"
	"strings"

	"agentcore/pkg/llm"
	"agentcore/pkg/toolloop"
)

// Fixed per-phase confidences. The quality gate compares against these, so a
// phase that fails outright reports zero and is reset rather than trusted.
const (
	confidenceObserve    = 0.8
	confidencePlan       = 0.8
	confidenceExecute    = 0.8
	confidenceAutoPass   = 0.9
	confidenceVerified   = 0.95
	confidenceFailed     = 0.3
	confidenceLearn      = 0.85
	confidencePhaseError = 0.0
)

const defaultSystemPrompt = "You are an autonomous agent. Work the task to completion using the tools available to you."

const observePrompt = `Study the task below and respond with a JSON object:
{"observations": [...], "constraints": [...], "anti_criteria": [...]}
observations: what you notice about the task. constraints: hard requirements.
anti_criteria: outcomes that would mean failure even if the task looks done.

Task:
%s`

const planPrompt = `Given the task and the observations below, respond with a JSON object:
{"plan_steps": [...], "approach": "...", "estimated_steps": N}

Task:
%s

Observations:
%s`

const learnPrompt = `The task below was executed. Reflect on the outcome and respond with a JSON object:
{"lessons": [...], "recommendations": [...], "confidence_delta": 0.0}

Task:
%s

Execution output:
%s`

func (p *Protocol) observe(ctx context.Context, st *runState, in Input) (Step, NextAction) {
	out, raw, err := p.complete(ctx, in, fmt.Sprintf(observePrompt, in.TaskInput))
	if err != nil {
		p.logger.Warn("observe phase completion failed: %v", err)
		return newStep(PhaseObserve, "Observe", "gather observations",
			fmt.Sprintf("model call failed: %v", err), "", ActionContinue, confidencePhaseError), ActionContinue
	}

	artifact := &ObserveArtifact{
		Observations: stringList(out, "observations"),
		Constraints:  stringList(out, "constraints"),
		AntiCriteria: stringList(out, "anti_criteria"),
	}
	st.artifacts.Observe = artifact

	result := fmt.Sprintf("%d observations, %d constraints, %d anti-criteria",
		len(artifact.Observations), len(artifact.Constraints), len(artifact.AntiCriteria))
	return newStep(PhaseObserve, "Observe", "gather observations",
		result, raw, ActionContinue, confidenceObserve), ActionContinue
}

func (p *Protocol) plan(ctx context.Context, st *runState, in Input) (Step, NextAction) {
	observations := "(none)"
	if st.artifacts.Observe != nil {
		observations = strings.Join(st.artifacts.Observe.Observations, "\n")
	}
	out, raw, err := p.complete(ctx, in, fmt.Sprintf(planPrompt, in.TaskInput, observations))
	if err != nil {
		p.logger.Warn("plan phase completion failed: %v", err)
		return newStep(PhasePlan, "Plan", "produce a plan",
			fmt.Sprintf("model call failed: %v", err), "", ActionContinue, confidencePhaseError), ActionContinue
	}

	artifact := &PlanArtifact{
		PlanSteps:      stringList(out, "plan_steps"),
		Approach:       stringField(out, "approach"),
		EstimatedSteps: intField(out, "estimated_steps"),
	}
	st.artifacts.Plan = artifact

	result := fmt.Sprintf("%d plan steps, approach: %s", len(artifact.PlanSteps), artifact.Approach)
	return newStep(PhasePlan, "Plan", "produce a plan",
		result, raw, ActionContinue, confidencePlan), ActionContinue
}

// execute delegates to the tool invocation loop with the full message set.
// The loop owns its own retry and termination policy; whatever it returns is
// wrapped as the execute artifact, and the action is always VALIDATE so every
// cycle passes through verification.
func (p *Protocol) execute(ctx context.Context, st *runState, in Input) (Step, NextAction, error) {
	system := in.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	var task strings.Builder
	task.WriteString(in.TaskInput)
	if plan := st.artifacts.Plan; plan != nil && len(plan.PlanSteps) > 0 {
		task.WriteString("\n\nFollow this plan:\n")
		for i, ps := range plan.PlanSteps {
			fmt.Fprintf(&task, "%d. %s\n", i+1, ps)
		}
	}
	msgs := []llm.CompletionMessage{
		llm.NewSystemMessage(system),
		llm.NewUserMessage(task.String()),
	}

	lr, err := p.loop.Run(ctx, msgs, toolloop.RunOptions{
		Model:       in.Model,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return Step{}, ActionValidate, err
	}

	st.artifacts.Execute = &ExecuteArtifact{LoopResult: lr, RawOutput: lr.RawResponse}

	result := fmt.Sprintf("tool loop %s: %d iterations, %d tool calls",
		lr.Termination, lr.Iterations, lr.ToolCallsMade)
	return newStep(PhaseExecute, "Execute", "run the tool loop",
		result, lr.RawResponse, ActionValidate, confidenceExecute), ActionValidate, nil
}

func (p *Protocol) verify(ctx context.Context, st *runState, in Input) (Step, NextAction) {
	if p.gate == nil {
		st.validated = true
		st.artifacts.Verify = &VerifyArtifact{AllPassed: true}
		return newStep(PhaseVerify, "Verify", "evaluate criteria",
			"no verification gate configured, auto-pass", "", ActionContinue, confidenceAutoPass), ActionContinue
	}

	results := p.gate.EvaluateAll(ctx, GateContext{TaskInput: in.TaskInput, Artifacts: &st.artifacts},
		p.cfg.EnableAntiCriteria)

	allPassed := true
	var failed []string
	for _, cr := range results {
		if !cr.Success {
			allPassed = false
			failed = append(failed, cr.Name)
		}
	}
	st.validated = allPassed
	st.artifacts.Verify = &VerifyArtifact{
		CriterionResults: results,
		FailedCriteria:   failed,
		AllPassed:        allPassed,
	}

	if allPassed {
		return newStep(PhaseVerify, "Verify", "evaluate criteria",
			fmt.Sprintf("all %d criteria passed", len(results)), "", ActionContinue, confidenceVerified), ActionContinue
	}
	return newStep(PhaseVerify, "Verify", "evaluate criteria",
		fmt.Sprintf("failed criteria: %s", strings.Join(failed, ", ")), "", ActionReset, confidenceFailed), ActionReset
}

func (p *Protocol) learn(ctx context.Context, st *runState, in Input) (Step, NextAction) {
	executed := "(no execution output)"
	if st.artifacts.Execute != nil {
		executed = st.artifacts.Execute.RawOutput
	}
	out, raw, err := p.complete(ctx, in, fmt.Sprintf(learnPrompt, in.TaskInput, executed))
	if err != nil {
		p.logger.Warn("learn phase completion failed: %v", err)
		return newStep(PhaseLearn, "Learn", "reflect on the cycle",
			fmt.Sprintf("model call failed: %v", err), "", ActionReset, confidencePhaseError), ActionReset
	}

	artifact := &LearnArtifact{
		Lessons:         stringList(out, "lessons"),
		Recommendations: stringList(out, "recommendations"),
		ConfidenceDelta: floatField(out, "confidence_delta"),
	}
	st.artifacts.Learn = artifact

	action := ActionReset
	if st.validated {
		action = ActionFinalAnswer
	}
	result := fmt.Sprintf("%d lessons, %d recommendations", len(artifact.Lessons), len(artifact.Recommendations))
	return newStep(PhaseLearn, "Learn", "reflect on the cycle",
		result, raw, action, confidenceLearn), action
}

func (p *Protocol) complete(ctx context.Context, in Input, prompt string) (map[string]any, string, error) {
	temperature := in.Temperature
	if temperature == 0 {
		temperature = llm.TemperatureDefault
	}
	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = llm.MaxTokensDefault
	}
	system := in.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(system),
			llm.NewUserMessage(prompt),
		},
		Model:       in.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, "", err
	}
	return toolloop.ParseOutput(resp.Content), resp.Content, nil
}

func stringList(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func floatField(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}
