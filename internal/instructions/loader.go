// Package instructions loads markdown guidance appended to repair prompts.
package instructions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load concatenates a single .md file, or every .md file in a directory in
// name order, each under a heading derived from its file name.
func Load(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	var files []string

	if info.IsDir() {
		pattern := filepath.Join(path, "*.md")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", fmt.Errorf("glob markdown: %w", err)
		}
		if len(matches) == 0 {
			return "", fmt.Errorf("no markdown files found in directory %s", path)
		}
		files = matches
	} else {
		if !strings.HasSuffix(path, ".md") {
			return "", fmt.Errorf("instructions file must be a .md file, got: %s", path)
		}
		files = []string{path}
	}

	sort.Strings(files)

	var sections []string
	for _, file := range files {
		content, readErr := os.ReadFile(file)
		if readErr != nil {
			return "", fmt.Errorf("read %s: %w", file, readErr)
		}
		body := strings.TrimSpace(string(content))
		if body == "" {
			continue
		}
		sections = append(sections, "## "+title(file)+"\n\n"+body)
	}

	if len(sections) == 0 {
		return "", fmt.Errorf("no markdown instructions found in %s", path)
	}

	return strings.Join(sections, "\n\n"), nil
}

// title turns "NullChecks.md" into "Null Checks".
func title(file string) string {
	base := filepath.Base(file)
	return strings.TrimSpace(splitCamelCase(strings.TrimSuffix(base, filepath.Ext(base))))
}

func splitCamelCase(input string) string {
	var result []rune
	for idx, r := range input {
		if idx > 0 && r >= 'A' && r <= 'Z' {
			result = append(result, ' ')
		}
		result = append(result, r)
	}
	return string(result)
}
