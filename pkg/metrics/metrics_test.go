package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/reasoning"
	"agentcore/pkg/toolloop"
)

var (
	_ toolloop.Recorder  = (*Recorder)(nil)
	_ reasoning.Recorder = (*Recorder)(nil)
)

func TestRecorderCountsThroughRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordRun("completed", 3, 120)
	r.RecordRun("completed", 1, 30)
	r.RecordToolExecution("shell", true, 50*time.Millisecond)
	r.RecordToolExecution("shell", false, 10*time.Millisecond)
	r.RecordPhaseStep("OBSERVE", "CONTINUE")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, 150.0, testutil.ToFloat64(r.tokensUsed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolExecutions.WithLabelValues("shell", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolExecutions.WithLabelValues("shell", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseSteps.WithLabelValues("OBSERVE", "CONTINUE")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
