// Package guard provides the runtime safety collaborators consumed by the
// tool loop: a budget enforcer, a governance policy with an audit trail, and
// a credential leak scanner.
package guard

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"agentcore/pkg/logx"
	"agentcore/pkg/toolloop"
)

// Limits configures the runtime enforcer. Zero values disable the respective
// check; empty allowlists allow everything in that category.
type Limits struct {
	AllowedCommands []string
	ReadPaths       []string
	WritePaths      []string
	AllowedHosts    []string
	MaxIterations   int
	MaxDuration     time.Duration
}

// RuntimeEnforcer applies iteration, duration, and autonomy budgets. One
// enforcer covers one agent session; the iteration counter is cumulative
// across tool loop runs within that session.
type RuntimeEnforcer struct {
	mu         sync.Mutex
	limits     Limits
	started    time.Time
	iterations int
	logger     *logx.Logger
}

// NewRuntimeEnforcer creates an enforcer; the duration clock starts now.
func NewRuntimeEnforcer(limits Limits) *RuntimeEnforcer {
	return &RuntimeEnforcer{
		limits:  limits,
		started: time.Now(),
		logger:  logx.NewLogger("guard"),
	}
}

// CheckCommand allows a command when its first token matches the allowlist.
func (e *RuntimeEnforcer) CheckCommand(command string) toolloop.Verdict {
	if len(e.limits.AllowedCommands) == 0 {
		return toolloop.VerdictAllowed
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return toolloop.VerdictBlocked
	}
	for _, allowed := range e.limits.AllowedCommands {
		if fields[0] == allowed {
			return toolloop.VerdictAllowed
		}
	}
	e.logger.Warn("command blocked: %s", fields[0])
	return toolloop.VerdictBlocked
}

// CheckFileRead allows reads under any allowlisted path prefix.
func (e *RuntimeEnforcer) CheckFileRead(path string) toolloop.Verdict {
	return e.checkPath(path, e.limits.ReadPaths, "read")
}

// CheckFileWrite allows writes under any allowlisted path prefix.
func (e *RuntimeEnforcer) CheckFileWrite(path string) toolloop.Verdict {
	return e.checkPath(path, e.limits.WritePaths, "write")
}

func (e *RuntimeEnforcer) checkPath(path string, prefixes []string, op string) toolloop.Verdict {
	if len(prefixes) == 0 {
		return toolloop.VerdictAllowed
	}
	clean := filepath.Clean(path)
	for _, prefix := range prefixes {
		prefix = filepath.Clean(prefix)
		if clean == prefix || strings.HasPrefix(clean, prefix+string(filepath.Separator)) {
			return toolloop.VerdictAllowed
		}
	}
	e.logger.Warn("file %s blocked: %s", op, clean)
	return toolloop.VerdictBlocked
}

// CheckNetwork allows requests whose host matches an allowlisted host or one
// of its subdomains.
func (e *RuntimeEnforcer) CheckNetwork(rawURL string) toolloop.Verdict {
	if len(e.limits.AllowedHosts) == 0 {
		return toolloop.VerdictAllowed
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		e.logger.Warn("network blocked, unparseable url: %s", rawURL)
		return toolloop.VerdictBlocked
	}
	host := u.Hostname()
	for _, allowed := range e.limits.AllowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return toolloop.VerdictAllowed
		}
	}
	e.logger.Warn("network blocked: %s", host)
	return toolloop.VerdictBlocked
}

// RecordIteration counts one loop iteration against the session budget.
func (e *RuntimeEnforcer) RecordIteration() toolloop.Verdict {
	if e.limits.MaxIterations <= 0 {
		return toolloop.VerdictAllowed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.iterations++
	if e.iterations > e.limits.MaxIterations {
		e.logger.Warn("iteration budget exhausted: %d", e.iterations)
		return toolloop.VerdictBlocked
	}
	return toolloop.VerdictAllowed
}

// CheckDuration blocks once the session has run past its wall-clock budget.
func (e *RuntimeEnforcer) CheckDuration() toolloop.Verdict {
	if e.limits.MaxDuration <= 0 {
		return toolloop.VerdictAllowed
	}
	if time.Since(e.started) > e.limits.MaxDuration {
		e.logger.Warn("duration budget exhausted after %s", e.limits.MaxDuration)
		return toolloop.VerdictBlocked
	}
	return toolloop.VerdictAllowed
}
