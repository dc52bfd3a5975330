// Package filter decides which bugs are eligible for single-function extraction.
package filter

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/benchmark"
	"github.com/lawndlwd/repair-bench/internal/diff"
	"github.com/lawndlwd/repair-bench/internal/lang"
)

// EligibleBugs keeps bugs whose ground truth touches exactly one source file
// of the bug's language. A positive limit caps the result.
func EligibleBugs(bugs []benchmark.Bug, limit int) []benchmark.Bug {
	var result []benchmark.Bug

	for _, bug := range bugs {
		if reason := skipReason(bug); reason != "" {
			log.Debug().Str("bug", bug.Identifier()).Str("reason", reason).Msg("skipping bug")
			continue
		}
		result = append(result, bug)
		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result
}

func skipReason(bug benchmark.Bug) string {
	if strings.TrimSpace(bug.GroundTruth()) == "" {
		return "empty ground truth"
	}
	patch, err := diff.Parse(bug.GroundTruth())
	if err != nil {
		return "unparsable ground truth"
	}
	if len(patch.Files) != 1 {
		return "ground truth touches more than one file"
	}

	language, err := lang.Lookup(bug.Language())
	if err != nil {
		return "unsupported language"
	}
	path := diff.SourceFilename(patch)
	if bug.GroundTruthInverted() {
		path = diff.TargetFilename(patch)
	}
	if !hasAnySuffix(path, language.Extension) {
		return "file is not " + language.Tag + " source"
	}
	if containsAny(path, "/test/", "/tests/") || strings.HasPrefix(path, "test/") || strings.HasPrefix(path, "tests/") {
		return "fix is in test code"
	}
	return ""
}

func hasAnySuffix(path string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func containsAny(path string, needles ...string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(path, needle) {
			return true
		}
	}
	return false
}
