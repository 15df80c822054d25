package toolloop

import (
	"encoding/json"

	"agentcore/pkg/llm"
)

// doomDetector tracks a rolling history of tool call signatures and reports
// a loop once the most recent threshold signatures are identical. A zero
// threshold disables detection entirely.
type doomDetector struct {
	history   []string
	threshold int
}

func newDoomDetector(threshold int) *doomDetector {
	return &doomDetector{threshold: threshold}
}

// Observe appends the signature of one tool call to the history.
func (d *doomDetector) Observe(call llm.ToolCall) {
	if d.threshold <= 0 {
		return
	}
	d.history = append(d.history, callSignature(call))
}

// Looping reports whether the last threshold signatures are all identical.
func (d *doomDetector) Looping() bool {
	if d.threshold <= 0 || len(d.history) < d.threshold {
		return false
	}
	recent := d.history[len(d.history)-d.threshold:]
	for _, sig := range recent[1:] {
		if sig != recent[0] {
			return false
		}
	}
	return true
}

// callSignature canonicalizes a call as name plus sorted-key JSON of its
// arguments, so argument ordering differences do not defeat detection.
// Unparseable arguments fall back to the raw string.
func callSignature(call llm.ToolCall) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return call.Name + ":" + call.Arguments
	}
	canonical, err := json.Marshal(args)
	if err != nil {
		return call.Name + ":" + call.Arguments
	}
	return call.Name + ":" + string(canonical)
}
