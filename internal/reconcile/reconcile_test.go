package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawndlwd/repair-bench/internal/benchmark"
	"github.com/lawndlwd/repair-bench/internal/diff"
	"github.com/lawndlwd/repair-bench/internal/extractor"
	"github.com/lawndlwd/repair-bench/internal/lang"
	"github.com/lawndlwd/repair-bench/internal/types"
	"github.com/lawndlwd/repair-bench/internal/workdir"
)

const buggyFunction = `def compute(values):
    total = 0
    for v in values:
        total += v
    x = 1
    if total > 10:
        return total * x
    for v in values:
        total -= v
    return total
`

var fixedFunction = strings.Replace(buggyFunction, "    x = 1\n", "    x = 2\n", 1)

// groundTruth builds a single-hunk diff of buggy -> fixed covering every line.
func groundTruth(file, buggy, fixed string) string {
	b, f := strings.SplitAfter(buggy, "\n"), strings.SplitAfter(fixed, "\n")
	b, f = b[:len(b)-1], f[:len(f)-1]

	var out strings.Builder
	out.WriteString("--- a/" + file + "\n+++ b/" + file + "\n")
	out.WriteString("@@ -1," + strconv.Itoa(len(b)) + " +1," + strconv.Itoa(len(f)) + " @@\n")
	for i := 0; i < len(b) || i < len(f); i++ {
		switch {
		case i < len(b) && i < len(f) && b[i] == f[i]:
			out.WriteString(" " + b[i])
		default:
			if i < len(b) {
				out.WriteString("-" + b[i])
			}
			if i < len(f) {
				out.WriteString("+" + f[i])
			}
		}
	}
	return out.String()
}

func mustParse(t *testing.T, text string) *diff.Patch {
	t.Helper()
	p, err := diff.Parse(text)
	require.NoError(t, err)
	return p
}

func TestReconcileMatchingFragments(t *testing.T) {
	original := mustParse(t, groundTruth("calc.py", buggyFunction, fixedFunction))

	out := Reconcile(original, false, buggyFunction, fixedFunction)
	assert.Equal(t, FullFull, out.Hypothesis)
	assert.True(t, out.Found())
	assert.Equal(t, types.FunctionPair{Buggy: buggyFunction, Fixed: fixedFunction}, out.Pair)
}

func TestReconcileEmptyFixedFragment(t *testing.T) {
	original := mustParse(t, groundTruth("calc.py", buggyFunction, fixedFunction))

	out := Reconcile(original, false, buggyFunction, "")
	assert.Equal(t, NoMatch, out.Hypothesis)
	assert.False(t, out.Found())
	assert.Equal(t, types.FunctionPair{}, out.Pair)
}

func TestReconcileWholeFunctionRemoved(t *testing.T) {
	original := mustParse(t, `--- a/Util.java
+++ b/Util.java
@@ -1,5 +1,2 @@
 class Util {
-    int helper() {
-        return 1;
-    }
 }
`)
	helper := "    int helper() {\n        return 1;\n    }\n"
	other := "    int other() {\n        return 3;\n    }\n"

	out := Reconcile(original, false, helper, other)
	assert.Equal(t, BuggyOnly, out.Hypothesis)
	assert.Equal(t, types.FunctionPair{Buggy: helper}, out.Pair)
}

func TestReconcileFunctionAdded(t *testing.T) {
	original := mustParse(t, `--- a/Util.java
+++ b/Util.java
@@ -1,2 +1,5 @@
 class Util {
+    int helper() {
+        return 1;
+    }
 }
`)
	helper := "    int helper() {\n        return 1;\n    }\n"

	other := "    int other() {\n        return 3;\n    }\n"

	out := Reconcile(original, false, other, helper)
	assert.Equal(t, FixedOnly, out.Hypothesis)
	assert.Equal(t, types.FunctionPair{Fixed: helper}, out.Pair)
}

func TestReconcileFallbackOrder(t *testing.T) {
	original := &diff.Patch{}
	want := [][]string{
		diff.FullContext("B", "F"),
		diff.FullContext("B", ""),
		diff.FullContext("", "F"),
	}

	for accept, hypothesis := range []Hypothesis{FullFull, BuggyOnly, FixedOnly, NoMatch} {
		var seen [][]string
		check := func(p *diff.Patch, candidate []string, inverted bool) bool {
			assert.Same(t, original, p)
			assert.True(t, inverted)
			seen = append(seen, candidate)
			return len(seen) == accept+1
		}

		out := reconcileWith(check, original, true, "B", "F")
		assert.Equal(t, hypothesis, out.Hypothesis)
		calls := min(accept+1, len(want))
		if d := cmp.Diff(want[:calls], seen); d != "" {
			t.Errorf("accept at %d: candidates (-want +got):\n%s", accept, d)
		}
	}
}

// fakeBug materializes buggy/fixed file trees and records every path it was
// asked to check out.
type fakeBug struct {
	id          string
	groundTruth string
	inverted    bool
	buggy       map[string]string
	fixed       map[string]string
	failing     map[string]string
	testDir     string

	failFixed bool
	errFixed  error

	mu    sync.Mutex
	paths []string
}

func (b *fakeBug) Identifier() string { return b.id }
func (b *fakeBug) Language() string { return "python" }
func (b *fakeBug) GroundTruth() string { return b.groundTruth }
func (b *fakeBug) GroundTruthInverted() bool { return b.inverted }
func (b *fakeBug) FailingTests() map[string]string { return b.failing }
func (b *fakeBug) SrcTestDir(path string) string { return filepath.Join(path, b.testDir) }

func (b *fakeBug) Compile(context.Context, string) (types.CompileResult, error) {
	return types.CompileResult{Passing: true}, nil
}

func (b *fakeBug) Test(context.Context, string) (types.TestResult, error) {
	return types.TestResult{Passing: true}, nil
}

func (b *fakeBug) Checkout(_ context.Context, path string, fixed bool) (bool, error) {
	b.mu.Lock()
	b.paths = append(b.paths, path)
	b.mu.Unlock()

	files := b.buggy
	if fixed {
		files = b.fixed
	}
	for name, content := range files {
		full := filepath.Join(path, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return false, err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return false, err
		}
	}
	if fixed && b.errFixed != nil {
		return false, b.errFixed
	}
	return !(fixed && b.failFixed), nil
}

func (b *fakeBug) assertCleanedUp(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, b.paths)
	for _, p := range b.paths {
		assert.NoDirExists(t, p)
	}
}

var _ benchmark.Bug = (*fakeBug)(nil)

// wholeFile returns the full file as the fragment.
type wholeFile struct{}

func (wholeFile) Extract(_ context.Context, path string, _ []int) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

type methodTable map[string]string

func (m methodTable) Extract(context.Context, string, []int) (string, error) { return "", nil }

func (m methodTable) ExtractMethod(_ context.Context, path, method string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return m[method], nil
}

func newReconciler(t *testing.T, ex extractor.Extractor) *Reconciler {
	return &Reconciler{
		Extractor: ex,
		Workdirs:  &workdir.Allocator{Root: t.TempDir()},
		Language:  lang.Python,
	}
}

func calcBug() *fakeBug {
	return &fakeBug{
		id:          "calc-1",
		groundTruth: groundTruth("src/calc.py", buggyFunction, fixedFunction),
		buggy:       map[string]string{"src/calc.py": buggyFunction},
		fixed:       map[string]string{"src/calc.py": fixedFunction},
	}
}

func TestExtractSingleFunction(t *testing.T) {
	bug := calcBug()
	r := newReconciler(t, wholeFile{})

	pair, found, err := r.ExtractSingleFunction(context.Background(), bug)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.FunctionPair{Buggy: buggyFunction, Fixed: fixedFunction}, pair)
	assert.Len(t, bug.paths, 2)
	assert.NotEqual(t, bug.paths[0], bug.paths[1])
	bug.assertCleanedUp(t)
}

func TestExtractSingleFunctionInverted(t *testing.T) {
	bug := calcBug()
	bug.inverted = true
	bug.groundTruth = groundTruth("src/calc.py", fixedFunction, buggyFunction)
	r := newReconciler(t, wholeFile{})

	pair, found, err := r.ExtractSingleFunction(context.Background(), bug)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.FunctionPair{Buggy: buggyFunction, Fixed: fixedFunction}, pair)
}

func TestExtractSingleFunctionNoMatch(t *testing.T) {
	bug := calcBug()
	bug.fixed = map[string]string{"src/calc.py": strings.Replace(buggyFunction, "x = 1", "x = 3", 1)}
	r := newReconciler(t, wholeFile{})

	pair, found, err := r.ExtractSingleFunction(context.Background(), bug)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, types.FunctionPair{}, pair)
	bug.assertCleanedUp(t)
}

func TestExtractSingleFunctionExtractorFailure(t *testing.T) {
	bug := calcBug()
	bug.fixed = map[string]string{"elsewhere.py": fixedFunction}
	r := newReconciler(t, wholeFile{})

	_, found, err := r.ExtractSingleFunction(context.Background(), bug)
	require.NoError(t, err)
	assert.False(t, found)
	bug.assertCleanedUp(t)
}

func TestExtractSingleFunctionCheckoutFailure(t *testing.T) {
	bug := calcBug()
	bug.failFixed = true
	r := newReconciler(t, wholeFile{})

	_, found, err := r.ExtractSingleFunction(context.Background(), bug)
	assert.ErrorIs(t, err, benchmark.ErrCheckoutFailed)
	assert.False(t, found)
	bug.assertCleanedUp(t)
}

func TestExtractSingleFunctionCheckoutError(t *testing.T) {
	bug := calcBug()
	boom := errors.New("benchmark binary missing")
	bug.errFixed = boom
	r := newReconciler(t, wholeFile{})

	_, _, err := r.ExtractSingleFunction(context.Background(), bug)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, bug.paths, 2)
	bug.assertCleanedUp(t)
}

func TestExtractSingleFunctionBadGroundTruth(t *testing.T) {
	bug := calcBug()
	bug.groundTruth = ""
	r := newReconciler(t, wholeFile{})

	_, _, err := r.ExtractSingleFunction(context.Background(), bug)
	assert.ErrorIs(t, err, diff.ErrEmptyDiff)
	assert.Empty(t, bug.paths)
}

func TestExtractFailingTestCases(t *testing.T) {
	bug := &fakeBug{
		id:      "calc-2",
		testDir: "tests",
		buggy: map[string]string{
			"tests/unit/test_calc.py": "class TestCalc: ...\n",
			"tests/unit/CalcTest.py":  "...",
		},
		failing: map[string]string{
			"tests/unit/test_calc.py::TestCalc::test_add": "",
			"pkg.CalcTest::test_sub":                      "",
		},
	}
	r := newReconciler(t, methodTable{"test_add": "def test_add(self): ...", "test_sub": "def test_sub(self): ..."})

	got, err := r.ExtractFailingTestCases(context.Background(), bug)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"tests/unit/test_calc.py::TestCalc::test_add": "def test_add(self): ...",
		"pkg.CalcTest::test_sub":                      "def test_sub(self): ...",
	}, got)
	bug.assertCleanedUp(t)
}

func TestExtractFailingTestCasesMissingMethod(t *testing.T) {
	bug := &fakeBug{
		id:      "calc-3",
		testDir: "tests",
		buggy:   map[string]string{"tests/test_calc.py": "..."},
		failing: map[string]string{
			"tests/test_calc.py::test_add":  "",
			"tests/test_calc.py::test_gone": "",
		},
	}
	r := newReconciler(t, methodTable{"test_add": "def test_add(): ..."})

	got, err := r.ExtractFailingTestCases(context.Background(), bug)
	require.NoError(t, err)
	assert.Empty(t, got)
	bug.assertCleanedUp(t)
}

func TestExtractFailingTestCasesWithoutMethodExtractor(t *testing.T) {
	bug := calcBug()
	bug.failing = map[string]string{"tests/test_calc.py::test_add": ""}
	r := newReconciler(t, wholeFile{})

	got, err := r.ExtractFailingTestCases(context.Background(), bug)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, bug.paths)
}

func TestFindTestClass(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a/FooTest.java", "b/BarTest.java", "c/BarTest.java"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, filepath.Dir(p)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, p), nil, 0o644))
	}

	got, ok := FindTestClass(dir, "FooTest", ".java")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "a", "FooTest.java"), got)

	_, ok = FindTestClass(dir, "BarTest", ".java")
	assert.False(t, ok, "ambiguous class")

	_, ok = FindTestClass(dir, "BazTest", ".java")
	assert.False(t, ok)

	_, ok = FindTestClass(filepath.Join(dir, "missing"), "FooTest", ".java")
	assert.False(t, ok)
}
