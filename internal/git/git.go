// Package git wraps the git command line for materializing bug versions.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckoutCommit clones repo into path and checks out commit there. Any
// existing content at path is removed first.
func CheckoutCommit(ctx context.Context, repo, commit, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clear %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}

	if _, err := run(ctx, "", "clone", "--quiet", "--no-checkout", repo, path); err != nil {
		return err
	}
	if _, err := run(ctx, path, "checkout", "--quiet", "--detach", commit); err != nil {
		return err
	}
	return nil
}

// Diff returns the unified diff between two commits of repo.
func Diff(ctx context.Context, repo, from, to string) (string, error) {
	return run(ctx, repo, "diff", "--no-color", "--no-ext-diff", from, to)
}

// ChangedFiles lists the paths that differ between two commits.
func ChangedFiles(ctx context.Context, repo, from, to string) ([]string, error) {
	out, err := run(ctx, repo, "diff", "--name-only", from, to)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var unique []string
	for _, entry := range parseLines(out) {
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		unique = append(unique, entry)
	}
	return unique, nil
}

func run(ctx context.Context, repo string, args ...string) (string, error) {
	if repo != "" {
		args = append([]string{"-C", repo}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

func parseLines(input string) []string {
	var result []string
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
