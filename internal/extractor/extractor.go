// Package extractor turns a checked-out file plus line numbers into a code
// fragment, usually the function containing those lines.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lawndlwd/repair-bench/internal/command"
)

// ErrUnknownLanguage is returned by Registry.Lookup for unregistered tags.
var ErrUnknownLanguage = errors.New("no extractor registered for language")

// Extractor produces the fragment enclosing lines (1-indexed) of the file at
// path. An empty fragment with a nil error means nothing usable was found.
// Errors are reserved for environment failures.
type Extractor interface {
	Extract(ctx context.Context, path string, lines []int) (string, error)
}

// MethodExtractor is implemented by extractors that can also look a method
// up by name.
type MethodExtractor interface {
	ExtractMethod(ctx context.Context, path, method string) (string, error)
}

// Safe runs ex and converts any error into an empty fragment.
func Safe(ctx context.Context, ex Extractor, path string, lines []int) string {
	fragment, err := ex.Extract(ctx, path, lines)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Ints("lines", lines).Msg("extraction failed")
		return ""
	}
	return fragment
}

// ToolExtractor delegates to an external structured-code extractor. Command
// is the base argv; LineArgs is appended once per requested line and
// MethodArgs once for a method lookup. Arguments may use {file}, {dir},
// {line} and {method}.
type ToolExtractor struct {
	Command    []string
	LineArgs   []string
	MethodArgs []string
}

// NewToolExtractor builds a ToolExtractor from shell-style templates, for
// example ("java -jar extractor.jar {file}", "--line {line}", "--method {method}").
func NewToolExtractor(cmd, lineArg, methodArg string) (*ToolExtractor, error) {
	base, err := command.Expand(cmd, nil)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return nil, errors.New("tool extractor: empty command")
	}
	lineArgs, err := command.Expand(lineArg, nil)
	if err != nil {
		return nil, err
	}
	methodArgs, err := command.Expand(methodArg, nil)
	if err != nil {
		return nil, err
	}
	return &ToolExtractor{Command: base, LineArgs: lineArgs, MethodArgs: methodArgs}, nil
}

func (t *ToolExtractor) Extract(ctx context.Context, path string, lines []int) (string, error) {
	vars, err := fileVars(path)
	if err != nil {
		return "", err
	}
	argv := expandAll(t.Command, vars)
	for _, line := range lines {
		vars["line"] = strconv.Itoa(line)
		argv = append(argv, expandAll(t.LineArgs, vars)...)
	}
	return t.run(ctx, vars["dir"], argv)
}

func (t *ToolExtractor) ExtractMethod(ctx context.Context, path, method string) (string, error) {
	vars, err := fileVars(path)
	if err != nil {
		return "", err
	}
	vars["method"] = method
	argv := append(expandAll(t.Command, vars), expandAll(t.MethodArgs, vars)...)
	return t.run(ctx, vars["dir"], argv)
}

func (t *ToolExtractor) run(ctx context.Context, dir string, argv []string) (string, error) {
	res, err := command.Run(ctx, dir, argv)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		log.Debug().Int("exit", res.ExitCode).Str("stderr", res.Stderr).Strs("argv", argv).Msg("extractor exited non-zero")
		return "", nil
	}
	return res.Stdout, nil
}

func fileVars(path string) (map[string]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return map[string]string{"file": abs, "dir": filepath.Dir(abs)}, nil
}

func expandAll(args []string, vars map[string]string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, command.Substitute(a, vars))
	}
	return out
}

// RawLineExtractor returns exactly the requested lines, for benchmarks whose
// ground truth is line-granular.
type RawLineExtractor struct{}

func (RawLineExtractor) Extract(_ context.Context, path string, lines []int) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	fileLines := strings.SplitAfter(string(content), "\n")

	var b strings.Builder
	for _, n := range lines {
		if n < 1 || n > len(fileLines) {
			continue
		}
		b.WriteString(fileLines[n-1])
	}
	return strings.TrimSpace(b.String()), nil
}

// Registry maps a language tag to its extractor. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

func (r *Registry) Register(tag string, ex Extractor) {
	r.extractors[tag] = ex
}

func (r *Registry) Lookup(tag string) (Extractor, error) {
	ex, ok := r.extractors[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, tag)
	}
	return ex, nil
}

// Tags lists registered languages in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.extractors))
	for tag := range r.extractors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Close releases extractors that hold resources.
func (r *Registry) Close() {
	for _, ex := range r.extractors {
		if c, ok := ex.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
