package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lawndlwd/repair-bench/internal/types"
)

// PrintSummary writes per-project extraction counts to w.
func PrintSummary(w io.Writer, records []types.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "\nℹ️  No bugs were processed.")
		return
	}

	// Group records by project
	byProject := make(map[string][]types.Record)
	for _, r := range records {
		byProject[r.Project] = append(byProject[r.Project], r)
	}

	var projects []string
	for project := range byProject {
		projects = append(projects, project)
	}
	sort.Strings(projects)

	fmt.Fprintln(w, "\n"+strings.Repeat("═", 80))
	fmt.Fprintln(w, "📋 EXTRACTION RESULTS")
	fmt.Fprintln(w, strings.Repeat("═", 80))
	fmt.Fprintf(w, "%-40s %10s %10s %10s\n", "PROJECT", "EXTRACTED", "SKIPPED", "ERRORS")
	fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, project := range projects {
		group := byProject[project]
		fmt.Fprintf(w, "%-40s %10d %10d %10d\n",
			truncate(project, 40),
			CountStatus(group, types.StatusExtracted),
			CountStatus(group, types.StatusSkipped),
			CountStatus(group, types.StatusError),
		)
	}

	fmt.Fprintln(w, strings.Repeat("═", 80))
	fmt.Fprintf(w, "%s Extracted %d of %d bug(s) across %d project(s); %d skipped, %d error(s)\n",
		statusEmoji(records),
		CountStatus(records, types.StatusExtracted),
		len(records),
		len(projects),
		CountStatus(records, types.StatusSkipped),
		CountStatus(records, types.StatusError),
	)
	fmt.Fprintln(w, strings.Repeat("═", 80))
}

func statusEmoji(records []types.Record) string {
	switch {
	case CountStatus(records, types.StatusError) > 0:
		return "⚠️ "
	case CountStatus(records, types.StatusExtracted) == len(records):
		return "✅"
	default:
		return "💡"
	}
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func CountStatus(records []types.Record, status string) int {
	count := 0
	for _, r := range records {
		if r.Status == status {
			count++
		}
	}
	return count
}
