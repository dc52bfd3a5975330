// Package evaluate applies generated candidate functions to a bug and checks
// whether they compile, pass the tests and match the reference fix.
package evaluate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/ai"
	"github.com/lawndlwd/repair-bench/internal/benchmark"
	"github.com/lawndlwd/repair-bench/internal/diff"
	"github.com/lawndlwd/repair-bench/internal/lang"
	"github.com/lawndlwd/repair-bench/internal/types"
	"github.com/lawndlwd/repair-bench/internal/workdir"
)

// Evaluator replaces the buggy function with each candidate in a fresh
// buggy checkout.
type Evaluator struct {
	Workdirs *workdir.Allocator
	Language lang.Language
	// Reverse takes the last code block of a generation instead of the first.
	Reverse bool
}

func (e *Evaluator) Evaluate(ctx context.Context, bug benchmark.Bug, sample types.Sample) (types.Evaluation, error) {
	eval := types.Evaluation{Identifier: bug.Identifier(), Model: sample.Model}

	patch, err := diff.Parse(bug.GroundTruth())
	if err != nil {
		return eval, fmt.Errorf("bug %s: %w", bug.Identifier(), err)
	}
	buggyFile := diff.ResolveSides(patch, bug.GroundTruthInverted()).Buggy.File

	for i, g := range sample.Generations {
		candidate, ok := ai.ExtractPatch(g.Content, e.Reverse)
		if !ok {
			eval.Candidates = append(eval.Candidates, types.CandidateResult{Explanation: "no code block in generation"})
			continue
		}
		res, err := e.evaluateCandidate(ctx, bug, buggyFile, sample, candidate)
		if err != nil {
			return eval, fmt.Errorf("bug %s: candidate %d: %w", bug.Identifier(), i, err)
		}
		eval.Candidates = append(eval.Candidates, res)
	}
	return eval, nil
}

func (e *Evaluator) evaluateCandidate(ctx context.Context, bug benchmark.Bug, file string, sample types.Sample, candidate string) (types.CandidateResult, error) {
	res := types.CandidateResult{Patch: candidate, ExactMatch: e.exactMatch(candidate, sample.FixedCode)}

	if strings.TrimSpace(sample.BuggyCode) == "" {
		res.Explanation = "buggy fragment is empty, nothing to replace"
		return res, nil
	}

	path, err := e.Workdirs.New(bug.Identifier())
	if err != nil {
		return res, err
	}
	defer workdir.Remove(path)

	ok, err := bug.Checkout(ctx, path, false)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, benchmark.ErrCheckoutFailed
	}

	target := filepath.Join(path, file)
	content, err := os.ReadFile(target)
	if err != nil {
		return res, fmt.Errorf("read buggy file: %w", err)
	}
	if !strings.Contains(string(content), sample.BuggyCode) {
		res.Explanation = "buggy fragment not found in checkout"
		return res, nil
	}
	if strings.HasSuffix(sample.BuggyCode, "\n") && !strings.HasSuffix(candidate, "\n") {
		candidate += "\n"
	}
	patched := strings.Replace(string(content), sample.BuggyCode, candidate, 1)
	if err := os.WriteFile(target, []byte(patched), 0o644); err != nil {
		return res, fmt.Errorf("write patched file: %w", err)
	}
	res.Applied = true

	compiled, err := bug.Compile(ctx, path)
	if err != nil {
		return res, err
	}
	res.Compiles = compiled.Passing
	if !res.Compiles {
		res.Explanation = "does not compile"
		return res, nil
	}

	tested, err := bug.Test(ctx, path)
	if err != nil {
		return res, err
	}
	res.TestsPass = tested.Passing
	if !res.TestsPass {
		res.Explanation = "tests fail"
	}

	log.Debug().Str("bug", bug.Identifier()).Bool("plausible", res.TestsPass).Bool("exact", res.ExactMatch).Msg("candidate evaluated")
	return res, nil
}

// exactMatch compares candidate and fixed with comments and whitespace
// differences removed.
func (e *Evaluator) exactMatch(candidate, fixed string) bool {
	if strings.TrimSpace(fixed) == "" {
		return false
	}
	a, errA := e.normalize(candidate)
	b, errB := e.normalize(fixed)
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

func (e *Evaluator) normalize(source string) (string, error) {
	if e.Language.RemoveComments != nil {
		stripped, err := e.Language.RemoveComments(source)
		if err != nil {
			return "", err
		}
		source = stripped
	}
	return strings.Join(strings.Fields(lang.RemoveEmptyLines(source)), " "), nil
}
