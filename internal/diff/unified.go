package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns the unified diff of a and b as a sequence of lines, the
// same shape Python's difflib.unified_diff produces: "--- "/"+++ " headers,
// "@@" range lines, then prefixed content lines. Identical inputs produce no
// lines at all.
func Unified(a, b string, context int) []string {
	aLines, bLines := splitLines(a), splitLines(b)
	matcher := difflib.NewMatcher(aLines, bLines)

	var out []string
	for i, group := range matcher.GetGroupedOpCodes(context) {
		if i == 0 {
			out = append(out, "--- \n", "+++ \n")
		}
		first, last := group[0], group[len(group)-1]
		out = append(out, fmt.Sprintf("@@ -%s +%s @@\n",
			unifiedRange(first.I1, last.I2), unifiedRange(first.J1, last.J2)))

		for _, op := range group {
			if op.Tag == 'e' {
				for _, line := range aLines[op.I1:op.I2] {
					out = append(out, " "+line)
				}
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				for _, line := range aLines[op.I1:op.I2] {
					out = append(out, "-"+line)
				}
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				for _, line := range bLines[op.J1:op.J2] {
					out = append(out, "+"+line)
				}
			}
		}
	}
	return out
}

// FullContext diffs a and b with a context wide enough to always show both
// fragments in full.
func FullContext(a, b string) []string {
	return Unified(a, b, max(len(a), len(b)))
}

func unifiedRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}
