package tools

// ToolResult is the uniform outcome of a tool execution. Failed results are
// reported back to the model rather than raised, so the agent can correct
// course.
type ToolResult struct {
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// OK builds a successful result.
func OK(output string) *ToolResult {
	return &ToolResult{Success: true, Output: output}
}

// Fail builds a failed result with an error message for the model.
func Fail(errMsg string) *ToolResult {
	return &ToolResult{Success: false, Error: errMsg}
}

// Text returns the output for successful results and the error text otherwise.
func (r *ToolResult) Text() string {
	if r.Success {
		return r.Output
	}
	return r.Error
}
