// Package reconcile extracts the buggy/fixed function pair of a bug and
// checks it against the bug's ground-truth diff.
package reconcile

import (
	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/diff"
	"github.com/lawndlwd/repair-bench/internal/types"
)

type Hypothesis string

const (
	// FullFull keeps both extracted fragments.
	FullFull Hypothesis = "full_full"
	// BuggyOnly models the fix as removing the buggy function.
	BuggyOnly Hypothesis = "buggy_only"
	// FixedOnly models the fix as adding the fixed function.
	FixedOnly Hypothesis = "fixed_only"
	NoMatch   Hypothesis = "no_match"
)

type Outcome struct {
	Pair       types.FunctionPair
	Hypothesis Hypothesis
}

// Found reports whether any hypothesis reproduced the ground truth.
func (o Outcome) Found() bool { return o.Hypothesis != NoMatch }

type checkFunc func(original *diff.Patch, candidate []string, inverted bool) bool

// Reconcile picks the first of (buggy, fixed), (buggy, "") and ("", fixed)
// whose full-context diff is equivalent to original.
func Reconcile(original *diff.Patch, inverted bool, buggy, fixed string) Outcome {
	return reconcileWith(diff.SameDiff, original, inverted, buggy, fixed)
}

func reconcileWith(check checkFunc, original *diff.Patch, inverted bool, buggy, fixed string) Outcome {
	ladder := []struct {
		hypothesis Hypothesis
		pair       types.FunctionPair
	}{
		{FullFull, types.FunctionPair{Buggy: buggy, Fixed: fixed}},
		{BuggyOnly, types.FunctionPair{Buggy: buggy}},
		{FixedOnly, types.FunctionPair{Fixed: fixed}},
	}

	for _, step := range ladder {
		if check(original, diff.FullContext(step.pair.Buggy, step.pair.Fixed), inverted) {
			log.Debug().Str("hypothesis", string(step.hypothesis)).Msg("fragments reproduce ground truth")
			return Outcome{Pair: step.pair, Hypothesis: step.hypothesis}
		}
	}
	return Outcome{Hypothesis: NoMatch}
}
