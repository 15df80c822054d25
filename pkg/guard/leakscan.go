package guard

import "regexp"

// leakPatterns cover the credential shapes most likely to surface in tool
// output: cloud access keys, bearer-style API keys, PEM private keys, and
// key=value assignments.
var leakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`sk-[A-Za-z0-9_\-]{20,}`),
	regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}`),
}

// LeakScanner flags tool output that looks like it contains credentials. The
// loop replaces flagged output with a fixed redaction notice.
type LeakScanner struct {
	patterns []*regexp.Regexp
}

// NewLeakScanner creates a scanner with the default patterns.
func NewLeakScanner() *LeakScanner {
	return &LeakScanner{patterns: leakPatterns}
}

// NewLeakScannerWithPatterns creates a scanner with custom patterns.
func NewLeakScannerWithPatterns(patterns []*regexp.Regexp) *LeakScanner {
	return &LeakScanner{patterns: patterns}
}

// Scan reports whether the output matches any credential pattern.
func (s *LeakScanner) Scan(output string) bool {
	for _, re := range s.patterns {
		if re.MatchString(output) {
			return true
		}
	}
	return false
}
