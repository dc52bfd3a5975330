package ai

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lawndlwd/repair-bench/internal/types"
)

var fencedCode = regexp.MustCompile("```(\\w*)\\n([\\s\\S]*?)\\n```")

// BuildInstructPrompt asks for a fixed version of the record's buggy
// function. Failing tests and extra instructions are included when present.
func BuildInstructPrompt(record types.Record, language, instructions string) string {
	var b strings.Builder
	b.WriteString("You are an automatic program repair tool. Your task is to fix the provided buggy code.\n\n")

	b.WriteString("The following code contains a buggy function:\n")
	b.WriteString(fmt.Sprintf("```%s\n%s\n```\n\n", language, strings.TrimRight(record.BuggyCode, "\n")))

	if len(record.FailingTests) > 0 {
		b.WriteString("The code fails the following tests.\n\n")

		ids := make([]string, 0, len(record.FailingTests))
		for id := range record.FailingTests {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			b.WriteString(fmt.Sprintf("Test `%s`:\n", id))
			if src := strings.TrimSpace(record.FailingTests[id]); src != "" {
				b.WriteString(fmt.Sprintf("```%s\n%s\n```\n", language, src))
			}
			b.WriteString("\n")
		}
	}

	if strings.TrimSpace(instructions) != "" {
		b.WriteString("Follow these instructions when writing the fix:\n\n")
		b.WriteString(strings.TrimSpace(instructions))
		b.WriteString("\n\n")
	}

	b.WriteString("Please provide a fixed version of the buggy function, and only that function, inside a code block.\n")
	return b.String()
}

// ExtractPatch returns the content of the first fenced code block in
// message, or the last one when reverse is set.
func ExtractPatch(message string, reverse bool) (string, bool) {
	matches := fencedCode.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return "", false
	}
	if reverse {
		return matches[len(matches)-1][2], true
	}
	return matches[0][2], true
}
