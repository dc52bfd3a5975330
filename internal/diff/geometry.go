package diff

import "strings"

// SourceFilename returns the first file's source path without its a/ prefix.
func SourceFilename(p *Patch) string {
	if p == nil || len(p.Files) == 0 {
		return ""
	}
	return strings.TrimPrefix(p.Files[0].SourceFile, "a/")
}

// TargetFilename returns the first file's target path without its b/ prefix.
func TargetFilename(p *Patch) string {
	if p == nil || len(p.Files) == 0 {
		return ""
	}
	return strings.TrimPrefix(p.Files[0].TargetFile, "b/")
}

// ModifiedSourceLines lists the source numbers of the removed lines of the
// first file. Without removed lines it falls back to the median context line
// so a pure insertion still points inside the enclosing function.
func ModifiedSourceLines(p *Patch) []int {
	return modifiedLines(p, Removed, func(l Line) int { return l.SourceLineNo })
}

// ModifiedTargetLines is the target-side counterpart of ModifiedSourceLines,
// using added lines.
func ModifiedTargetLines(p *Patch) []int {
	return modifiedLines(p, Added, func(l Line) int { return l.TargetLineNo })
}

func modifiedLines(p *Patch, kind LineKind, number func(Line) int) []int {
	if p == nil || len(p.Files) == 0 {
		return nil
	}

	var changed, context []int
	for _, hunk := range p.Files[0].Hunks {
		for _, line := range hunk.Lines {
			switch line.Kind {
			case kind:
				changed = append(changed, number(line))
			case Context:
				context = append(context, number(line))
			}
		}
	}

	if len(changed) > 0 {
		return changed
	}
	if len(context) == 0 {
		return []int{}
	}
	return []int{context[len(context)/2]}
}

// Locator names a file inside a checked-out tree and the lines of interest in it.
type Locator struct {
	File  string
	Lines []int
}

type Sides struct {
	Buggy Locator
	Fixed Locator
}

// ResolveSides maps the diff's source/target onto buggy/fixed. An inverted
// ground truth stores the buggy code on the target side.
func ResolveSides(p *Patch, inverted bool) Sides {
	source := Locator{File: SourceFilename(p), Lines: ModifiedSourceLines(p)}
	target := Locator{File: TargetFilename(p), Lines: ModifiedTargetLines(p)}
	if inverted {
		return Sides{Buggy: target, Fixed: source}
	}
	return Sides{Buggy: source, Fixed: target}
}
