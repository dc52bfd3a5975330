package diff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

const replaceDiff = `diff --git a/src/compute.py b/src/compute.py
index 1111111..2222222 100644
--- a/src/compute.py
+++ b/src/compute.py
@@ -2,7 +2,7 @@ def compute(values):
     total = 0
     for v in values:
         total += v
-    x = 1
+    x = 2
     if total > 10:
         return total * x
     for v in values:
`

const insertionDiff = `--- a/pkg/File.java
+++ b/pkg/File.java
@@ -10,5 +10,6 @@
 line10
 line11
 line12
+inserted
 line13
 line14
`

func mustParse(t *testing.T, text string) *Patch {
	t.Helper()
	p, err := Parse(text)
	require.NoError(t, err)
	return p
}

func TestParse(t *testing.T) {
	p := mustParse(t, replaceDiff)
	require.Len(t, p.Files, 1)

	file := p.Files[0]
	assert.Equal(t, "a/src/compute.py", file.SourceFile)
	assert.Equal(t, "b/src/compute.py", file.TargetFile)
	require.Len(t, file.Hunks, 1)

	hunk := file.Hunks[0]
	assert.Equal(t, 2, hunk.SourceStart)
	assert.Equal(t, 7, hunk.SourceLength)
	require.Len(t, hunk.Lines, 8)

	removed := hunk.Lines[3]
	assert.Equal(t, Removed, removed.Kind)
	assert.Equal(t, "    x = 1\n", removed.Value)
	assert.Equal(t, 5, removed.SourceLineNo)
	assert.Zero(t, removed.TargetLineNo)

	added := hunk.Lines[4]
	assert.Equal(t, Added, added.Kind)
	assert.Equal(t, 5, added.TargetLineNo)
	assert.Zero(t, added.SourceLineNo)

	last := hunk.Lines[7]
	assert.Equal(t, Context, last.Kind)
	assert.Equal(t, 8, last.SourceLineNo)
	assert.Equal(t, 8, last.TargetLineNo)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("  \n")
	assert.ErrorIs(t, err, ErrEmptyDiff)
}

func TestFilenames(t *testing.T) {
	p := mustParse(t, replaceDiff)
	assert.Equal(t, "src/compute.py", SourceFilename(p))
	assert.Equal(t, "src/compute.py", TargetFilename(p))

	unprefixed := &Patch{Files: []FileDiff{{SourceFile: "orig/A.java", TargetFile: "A.java"}}}
	assert.Equal(t, "orig/A.java", SourceFilename(unprefixed))
	assert.Equal(t, "A.java", TargetFilename(unprefixed))
}

func TestModifiedLines(t *testing.T) {
	p := mustParse(t, replaceDiff)
	assert.Equal(t, []int{5}, ModifiedSourceLines(p))
	assert.Equal(t, []int{5}, ModifiedTargetLines(p))
}

func TestModifiedSourceLinesMedianFallback(t *testing.T) {
	p := mustParse(t, insertionDiff)

	assert.Equal(t, []int{12}, ModifiedSourceLines(p))
	assert.Equal(t, []int{13}, ModifiedTargetLines(p))
}

func TestModifiedLinesIdempotent(t *testing.T) {
	p := mustParse(t, insertionDiff)

	first := ModifiedSourceLines(p)
	second := ModifiedSourceLines(p)
	if d := cmp.Diff(first, second); d != "" {
		t.Errorf("ModifiedSourceLines not stable (-first +second):\n%s", d)
	}
	if d := cmp.Diff(ModifiedTargetLines(p), ModifiedTargetLines(p)); d != "" {
		t.Errorf("ModifiedTargetLines not stable:\n%s", d)
	}
}

func TestModifiedLinesNoContext(t *testing.T) {
	p := &Patch{Files: []FileDiff{{SourceFile: "a/x", TargetFile: "b/x"}}}
	assert.Empty(t, ModifiedSourceLines(p))
	assert.Empty(t, ModifiedTargetLines(p))
}

func TestResolveSides(t *testing.T) {
	p := &Patch{Files: []FileDiff{{
		SourceFile: "a/Fixed.java",
		TargetFile: "b/Buggy.java",
		Hunks: []Hunk{{Lines: []Line{
			{Kind: Context, Value: "a\n", SourceLineNo: 1, TargetLineNo: 1},
			{Kind: Removed, Value: "b\n", SourceLineNo: 2},
			{Kind: Added, Value: "c\n", TargetLineNo: 2},
			{Kind: Added, Value: "d\n", TargetLineNo: 3},
		}}},
	}}}

	straight := ResolveSides(p, false)
	assert.Equal(t, Locator{File: "Fixed.java", Lines: []int{2}}, straight.Buggy)
	assert.Equal(t, Locator{File: "Buggy.java", Lines: []int{2, 3}}, straight.Fixed)

	inverted := ResolveSides(p, true)
	assert.Equal(t, straight.Buggy, inverted.Fixed)
	assert.Equal(t, straight.Fixed, inverted.Buggy)
}

func TestUnified(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want []string
	}{
		{
			name: "replace",
			a:    "a\nb\nc\n",
			b:    "a\nx\nc\n",
			want: []string{"--- \n", "+++ \n", "@@ -1,3 +1,3 @@\n", " a\n", "-b\n", "+x\n", " c\n"},
		},
		{
			name: "delete everything",
			a:    "x\n",
			b:    "",
			want: []string{"--- \n", "+++ \n", "@@ -1 +0,0 @@\n", "-x\n"},
		},
		{
			name: "insert everything",
			a:    "",
			b:    "x\ny",
			want: []string{"--- \n", "+++ \n", "@@ -0,0 +1,2 @@\n", "+x\n", "+y"},
		},
		{
			name: "identical",
			a:    "same\n",
			b:    "same\n",
			want: nil,
		},
		{
			name: "both empty",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unified(tt.a, tt.b, 3)
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("Unified() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestFullContextShowsWholeFragment(t *testing.T) {
	lines := FullContext(buggyFunction, fixedFunction)
	// headers + range + 10 context/changed lines + 1 extra for the replacement
	assert.Len(t, lines, 3+11)
	assert.Equal(t, "@@ -1,10 +1,10 @@\n", lines[2])
}

func TestSameDiff(t *testing.T) {
	original := mustParse(t, replaceDiff)

	t.Run("matching fragments", func(t *testing.T) {
		assert.True(t, SameDiff(original, FullContext(buggyFunction, fixedFunction), false))
	})

	t.Run("reflexive on the diff's own text", func(t *testing.T) {
		var source, target strings.Builder
		for _, line := range original.Files[0].Hunks[0].Lines {
			if line.Kind != Added {
				source.WriteString(line.Value)
			}
			if line.Kind != Removed {
				target.WriteString(line.Value)
			}
		}
		assert.True(t, SameDiff(original, FullContext(source.String(), target.String()), false))
	})

	t.Run("reindented fragments", func(t *testing.T) {
		dedent := func(s string) string {
			var b strings.Builder
			for _, line := range strings.SplitAfter(s, "\n") {
				b.WriteString(strings.TrimLeft(line, " "))
			}
			return b.String()
		}
		assert.True(t, SameDiff(original, FullContext(dedent(buggyFunction), dedent(fixedFunction)), false))
	})

	t.Run("fixed side missing", func(t *testing.T) {
		assert.False(t, SameDiff(original, FullContext(buggyFunction, ""), false))
	})

	t.Run("buggy side missing", func(t *testing.T) {
		assert.False(t, SameDiff(original, FullContext("", fixedFunction), false))
	})

	t.Run("wrong edit", func(t *testing.T) {
		other := strings.Replace(buggyFunction, "    x = 1\n", "    x = 3\n", 1)
		assert.False(t, SameDiff(original, FullContext(buggyFunction, other), false))
	})

	t.Run("inverted ground truth", func(t *testing.T) {
		assert.True(t, SameDiff(original, FullContext(fixedFunction, buggyFunction), true))
		assert.False(t, SameDiff(original, FullContext(buggyFunction, fixedFunction), true))
	})

	t.Run("empty candidate against a real edit", func(t *testing.T) {
		assert.False(t, SameDiff(original, FullContext("", ""), false))
	})
}

func TestSameDiffEmptyCandidateOnNoOpDiff(t *testing.T) {
	noop := &Patch{Files: []FileDiff{{
		SourceFile: "a/x.py",
		TargetFile: "b/x.py",
		Hunks: []Hunk{{Lines: []Line{
			{Kind: Context, Value: "pass\n", SourceLineNo: 1, TargetLineNo: 1},
		}}},
	}}}

	assert.True(t, SameDiff(noop, FullContext("", ""), false))
}

func TestSameDiffWholeFunctionRemoved(t *testing.T) {
	removal := `--- a/Util.java
+++ b/Util.java
@@ -1,5 +1,2 @@
 class Util {
-    int helper() {
-        return 1;
-    }
 }
`
	original := mustParse(t, removal)
	buggy := "    int helper() {\n        return 1;\n    }\n"

	changed := "    int helper() {\n        return 2;\n    }\n"
	assert.False(t, SameDiff(original, FullContext(buggy, changed), false))
	assert.True(t, SameDiff(original, FullContext(buggy, ""), false))
}
