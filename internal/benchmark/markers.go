package benchmark

import (
	"strings"

	"github.com/lawndlwd/repair-bench/internal/types"
)

// Markers are substrings that identify the outcome on the last line of a
// test run.
type Markers struct {
	Pass []string `yaml:"pass"`
	Fail []string `yaml:"fail"`
}

func (m Markers) empty() bool {
	return len(m.Pass) == 0 && len(m.Fail) == 0
}

// DetectTestResult inspects the last non-empty line of output. Fail markers
// win over pass markers; an unrecognized line counts as failing.
func DetectTestResult(output string, markers Markers) types.TestResult {
	last := lastLine(output)
	if last == "" {
		return types.TestResult{}
	}
	for _, m := range markers.Fail {
		if m != "" && strings.Contains(last, m) {
			return types.TestResult{}
		}
	}
	for _, m := range markers.Pass {
		if m != "" && strings.Contains(last, m) {
			return types.TestResult{Passing: true}
		}
	}
	return types.TestResult{}
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
