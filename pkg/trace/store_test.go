package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/toolloop"
)

func TestRecordAndQueryRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []toolloop.Event{
		{Time: base, RunID: "run-1", Kind: toolloop.EventModelResponse, Payload: "thinking...", Iteration: 1},
		{Time: base.Add(time.Second), RunID: "run-1", Kind: toolloop.EventToolExecution, ToolName: "shell", Payload: "ok", Iteration: 1},
		{Time: base.Add(2 * time.Second), RunID: "run-2", Kind: toolloop.EventModelResponse, Payload: "other run", Iteration: 1},
	}
	for _, ev := range events {
		require.NoError(t, store.Record(ev))
	}

	got, err := store.EventsForRun("run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, toolloop.EventModelResponse, got[0].Kind)
	assert.Equal(t, "thinking...", got[0].Payload)
	assert.Equal(t, "shell", got[1].ToolName)

	empty, err := store.EventsForRun("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecordFillsMissingTimestamp(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(toolloop.Event{RunID: "run-3", Kind: toolloop.EventModelResponse}))

	got, err := store.EventsForRun("run-3")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Time.IsZero())
}
