package reconcile

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/benchmark"
	"github.com/lawndlwd/repair-bench/internal/diff"
	"github.com/lawndlwd/repair-bench/internal/extractor"
	"github.com/lawndlwd/repair-bench/internal/lang"
	"github.com/lawndlwd/repair-bench/internal/types"
	"github.com/lawndlwd/repair-bench/internal/workdir"
)

// Reconciler runs extraction for bugs of one language. It holds no per-bug
// state and may be shared by concurrent workers.
type Reconciler struct {
	Extractor extractor.Extractor
	Workdirs  *workdir.Allocator
	Language  lang.Language
}

// ExtractSingleFunction returns the function pair implicated by the bug's
// ground truth. found is false, with a nil error, when no hypothesis
// reproduces the ground truth. Working copies are removed on every path.
func (r *Reconciler) ExtractSingleFunction(ctx context.Context, bug benchmark.Bug) (types.FunctionPair, bool, error) {
	outcome, err := r.Extract(ctx, bug)
	if err != nil {
		return types.FunctionPair{}, false, err
	}
	return outcome.Pair, outcome.Found(), nil
}

// Extract is ExtractSingleFunction reporting which hypothesis matched.
func (r *Reconciler) Extract(ctx context.Context, bug benchmark.Bug) (Outcome, error) {
	patch, err := diff.Parse(bug.GroundTruth())
	if err != nil {
		return Outcome{}, fmt.Errorf("bug %s: %w", bug.Identifier(), err)
	}
	inverted := bug.GroundTruthInverted()

	buggyPath, err := r.checkout(ctx, bug, false)
	defer workdir.Remove(buggyPath)
	if err != nil {
		return Outcome{}, err
	}
	fixedPath, err := r.checkout(ctx, bug, true)
	defer workdir.Remove(fixedPath)
	if err != nil {
		return Outcome{}, err
	}

	sides := diff.ResolveSides(patch, inverted)
	buggy := extractor.Safe(ctx, r.Extractor, filepath.Join(buggyPath, sides.Buggy.File), sides.Buggy.Lines)
	fixed := extractor.Safe(ctx, r.Extractor, filepath.Join(fixedPath, sides.Fixed.File), sides.Fixed.Lines)

	outcome := Reconcile(patch, inverted, buggy, fixed)
	log.Debug().
		Str("bug", bug.Identifier()).
		Str("hypothesis", string(outcome.Hypothesis)).
		Msg("reconciled")
	return outcome, nil
}

// checkout allocates a fresh working copy and materializes one version of
// bug in it. The returned path is set whenever allocation succeeded, even if
// the checkout failed, so the caller can remove it.
func (r *Reconciler) checkout(ctx context.Context, bug benchmark.Bug, fixed bool) (string, error) {
	path, err := r.Workdirs.New(bug.Identifier())
	if err != nil {
		return "", err
	}
	ok, err := bug.Checkout(ctx, path, fixed)
	if err != nil {
		return path, fmt.Errorf("bug %s: checkout (fixed=%t): %w", bug.Identifier(), fixed, err)
	}
	if !ok {
		return path, fmt.Errorf("bug %s: checkout (fixed=%t): %w", bug.Identifier(), fixed, benchmark.ErrCheckoutFailed)
	}
	return path, nil
}

// ExtractFailingTestCases returns the source of every failing test method,
// keyed by test identifier. If any test cannot be located or extracted the
// result is empty, as it is for extractors that cannot look methods up.
func (r *Reconciler) ExtractFailingTestCases(ctx context.Context, bug benchmark.Bug) (map[string]string, error) {
	methods, ok := r.Extractor.(extractor.MethodExtractor)
	if !ok {
		return map[string]string{}, nil
	}

	failing := bug.FailingTests()
	if len(failing) == 0 {
		return map[string]string{}, nil
	}

	path, err := r.checkout(ctx, bug, false)
	defer workdir.Remove(path)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(failing))
	for id := range failing {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	testDir := bug.SrcTestDir(path)
	result := make(map[string]string, len(ids))
	for _, id := range ids {
		file, method, ok := r.locateTest(path, testDir, id)
		if !ok {
			log.Debug().Str("bug", bug.Identifier()).Str("test", id).Msg("test class not found")
			return map[string]string{}, nil
		}
		source, err := methods.ExtractMethod(ctx, file, method)
		if err != nil || strings.TrimSpace(source) == "" {
			log.Debug().Err(err).Str("bug", bug.Identifier()).Str("test", id).Msg("test method not extracted")
			return map[string]string{}, nil
		}
		result[id] = source
	}
	return result, nil
}

// locateTest resolves "pkg.Class::method" or "path/to/test_file.py::Class::method"
// to a file and a method name.
func (r *Reconciler) locateTest(root, testDir, id string) (string, string, bool) {
	parts := strings.Split(id, "::")
	if len(parts) < 2 {
		return "", "", false
	}
	method := parts[len(parts)-1]

	if ext := r.Language.Extension; ext != "" && strings.HasSuffix(parts[0], ext) {
		file := filepath.Join(root, filepath.FromSlash(parts[0]))
		return file, method, true
	}

	class := parts[len(parts)-2]
	if i := strings.LastIndex(class, "."); i >= 0 {
		class = class[i+1:]
	}
	file, ok := FindTestClass(testDir, class, r.Language.Extension)
	return file, method, ok
}

// FindTestClass looks for exactly one file named className+ext under dir.
func FindTestClass(dir, className, ext string) (string, bool) {
	want := className + ext
	var matches []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == want {
			matches = append(matches, p)
		}
		return nil
	})
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}
