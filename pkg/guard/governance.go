package guard

import (
	"encoding/json"
	"sync"
	"time"

	"agentcore/pkg/logx"
	"agentcore/pkg/tools"
)

// AuditEntry is one record in the governance audit trail.
type AuditEntry struct {
	Time     time.Time
	ToolName string
	Args     string
	Success  bool
}

// Policy is a denylist-based governance policy with an in-memory audit trail.
type Policy struct {
	mu     sync.Mutex
	denied map[string]bool
	audit  []AuditEntry
	logger *logx.Logger
}

// NewPolicy creates a policy denying the listed tools.
func NewPolicy(deniedTools []string) *Policy {
	denied := make(map[string]bool, len(deniedTools))
	for _, name := range deniedTools {
		denied[name] = true
	}
	return &Policy{
		denied: denied,
		logger: logx.NewLogger("governance"),
	}
}

// PreExecuteCheck reports whether the tool may run.
func (p *Policy) PreExecuteCheck(toolName string, args map[string]any) bool {
	if p.denied[toolName] {
		p.logger.Warn("tool %s denied by policy", toolName)
		return false
	}
	return true
}

// LogExecution appends one audit entry.
func (p *Policy) LogExecution(toolName string, args map[string]any, result *tools.ToolResult) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = []byte("{}")
	}
	entry := AuditEntry{
		Time:     time.Now().UTC(),
		ToolName: toolName,
		Args:     string(argsJSON),
		Success:  result != nil && result.Success,
	}
	p.mu.Lock()
	p.audit = append(p.audit, entry)
	p.mu.Unlock()
	p.logger.Debug("audit: %s success=%v", toolName, entry.Success)
}

// AuditTrail returns a copy of the audit entries recorded so far.
func (p *Policy) AuditTrail() []AuditEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AuditEntry, len(p.audit))
	copy(out, p.audit)
	return out
}
