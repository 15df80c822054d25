// Package metrics provides Prometheus recorders for tool loop runs, tool
// executions, and reasoning phase steps. The Recorder satisfies both the tool
// loop's and the reasoning protocol's metrics contracts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metric instruments for one process.
type Recorder struct {
	runsTotal      *prometheus.CounterVec
	runIterations  prometheus.Histogram
	tokensUsed     prometheus.Counter
	toolExecutions *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	phaseSteps     *prometheus.CounterVec
}

// NewRecorder registers the instruments with the given registerer. Pass nil
// to use the default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_toolloop_runs_total",
			Help: "Tool loop runs by termination reason.",
		}, []string{"termination"}),
		runIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentcore_toolloop_iterations",
			Help:    "Iterations per tool loop run.",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		tokensUsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_tokens_used_total",
			Help: "Total prompt and completion tokens consumed.",
		}),
		toolExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_tool_executions_total",
			Help: "Tool executions by tool name and status.",
		}, []string{"tool", "status"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_tool_duration_seconds",
			Help:    "Tool execution duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		phaseSteps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_reasoning_phase_steps_total",
			Help: "Reasoning steps by phase and proposed action.",
		}, []string{"phase", "action"}),
	}
}

// RecordRun records one finished tool loop run.
func (r *Recorder) RecordRun(termination string, iterations, tokensUsed int) {
	r.runsTotal.WithLabelValues(termination).Inc()
	r.runIterations.Observe(float64(iterations))
	r.tokensUsed.Add(float64(tokensUsed))
}

// RecordToolExecution records one tool dispatch.
func (r *Recorder) RecordToolExecution(toolName string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	r.toolExecutions.WithLabelValues(toolName, status).Inc()
	r.toolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordPhaseStep records one reasoning step.
func (r *Recorder) RecordPhaseStep(phase, action string) {
	r.phaseSteps.WithLabelValues(phase, action).Inc()
}
