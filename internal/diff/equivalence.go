package diff

import "strings"

// SameDiff reports whether candidate, a line sequence as returned by Unified,
// describes the same edit as original regardless of context width.
//
// Equivalence is by substring containment of stripped lines: every changed
// line of one diff has to occur somewhere in the matching side of the other.
// This tolerates re-indentation by extraction tools, and it also accepts
// coincidental matches of short or common lines. Keep it that way: the set of
// bugs accepted as single-function depends on it.
func SameDiff(original *Patch, candidate []string, inverted bool) bool {
	var origSource, origTarget strings.Builder
	var origRemoved, origAdded []string

	for _, file := range original.Files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				removed := line.Kind == Removed
				added := line.Kind == Added
				if inverted {
					removed, added = added, removed
				}

				switch {
				case removed:
					origRemoved = append(origRemoved, strings.TrimSpace(line.Value))
					origSource.WriteString(line.Value)
				case added:
					origAdded = append(origAdded, strings.TrimSpace(line.Value))
					origTarget.WriteString(line.Value)
				default:
					origSource.WriteString(line.Value)
					origTarget.WriteString(line.Value)
				}
			}
		}
	}

	var newSource, newTarget strings.Builder
	var newRemoved, newAdded []string

	for _, line := range candidate {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "@@"):
			continue
		case line[0] == '+':
			newAdded = append(newAdded, strings.TrimSpace(line[1:]))
			newTarget.WriteString(line[1:])
		case line[0] == '-':
			newRemoved = append(newRemoved, strings.TrimSpace(line[1:]))
			newSource.WriteString(line[1:])
		default:
			newSource.WriteString(line[1:])
			newTarget.WriteString(line[1:])
		}
	}

	return allContained(newRemoved, origSource.String()) &&
		allContained(newAdded, origTarget.String()) &&
		allContained(origRemoved, newSource.String()) &&
		allContained(origAdded, newTarget.String())
}

func allContained(lines []string, text string) bool {
	for _, line := range lines {
		if !strings.Contains(text, line) {
			return false
		}
	}
	return true
}
