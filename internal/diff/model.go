// Package diff models unified diffs and answers the questions the extraction
// pipeline asks of them: which files and lines a fix touches, and whether two
// diffs describe the same edit.
package diff

import (
	"errors"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ErrEmptyDiff is returned when a diff text contains no file entries.
var ErrEmptyDiff = errors.New("diff has no file entries")

type LineKind int

const (
	Context LineKind = iota
	Added
	Removed
)

func (k LineKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// Line is a single hunk line. Value keeps its trailing newline. SourceLineNo
// is set for context and removed lines, TargetLineNo for context and added
// lines; both are 1-indexed and zero means absent.
type Line struct {
	Kind         LineKind
	Value        string
	SourceLineNo int
	TargetLineNo int
}

type Hunk struct {
	SourceStart  int
	SourceLength int
	TargetStart  int
	TargetLength int
	Lines        []Line
}

// FileDiff keeps the paths exactly as written in the diff headers, including
// any a/ or b/ prefix.
type FileDiff struct {
	SourceFile string
	TargetFile string
	Hunks      []Hunk
}

type Patch struct {
	Files []FileDiff
}

// Parse reads a unified diff (git style or plain ---/+++ headers).
func Parse(text string) (*Patch, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDiff
	}

	parsed, err := godiff.ParseMultiFileDiff([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	if len(parsed) == 0 {
		return nil, ErrEmptyDiff
	}

	patch := &Patch{Files: make([]FileDiff, 0, len(parsed))}
	for _, fd := range parsed {
		file := FileDiff{
			SourceFile: fd.OrigName,
			TargetFile: fd.NewName,
			Hunks:      make([]Hunk, 0, len(fd.Hunks)),
		}
		for _, h := range fd.Hunks {
			file.Hunks = append(file.Hunks, parseHunk(h))
		}
		patch.Files = append(patch.Files, file)
	}
	return patch, nil
}

func parseHunk(h *godiff.Hunk) Hunk {
	hunk := Hunk{
		SourceStart:  int(h.OrigStartLine),
		SourceLength: int(h.OrigLines),
		TargetStart:  int(h.NewStartLine),
		TargetLength: int(h.NewLines),
	}

	source, target := hunk.SourceStart, hunk.TargetStart
	if source == 0 {
		source = 1
	}
	if target == 0 {
		target = 1
	}

	for _, raw := range splitLines(string(h.Body)) {
		switch raw[0] {
		case '\\':
			// "\ No newline at end of file"
			continue
		case '+':
			hunk.Lines = append(hunk.Lines, Line{Kind: Added, Value: raw[1:], TargetLineNo: target})
			target++
		case '-':
			hunk.Lines = append(hunk.Lines, Line{Kind: Removed, Value: raw[1:], SourceLineNo: source})
			source++
		default:
			value := raw[1:]
			if raw[0] == '\n' || raw[0] == '\r' {
				// blank context line emitted without the leading space
				value = raw
			}
			hunk.Lines = append(hunk.Lines, Line{Kind: Context, Value: value, SourceLineNo: source, TargetLineNo: target})
			source++
			target++
		}
	}
	return hunk
}

// splitLines splits s after every newline, keeping the terminators. A final
// line without a newline is kept; no trailing empty element is produced.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
