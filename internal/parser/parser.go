// Package parser provides Tree-sitter based function extraction for
// JavaScript sources.
package parser

import (
	"context"
	"fmt"
	"os"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

var functionKinds = map[string]bool{
	"function_declaration":           true,
	"function_expression":            true,
	"function":                       true,
	"arrow_function":                 true,
	"method_definition":              true,
	"generator_function_declaration": true,
	"generator_function":             true,
}

// FunctionExtractor returns the source of the function enclosing a set of
// lines. A tree-sitter parser is not safe for concurrent use, so calls are
// serialized.
type FunctionExtractor struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
}

// NewFunctionExtractor creates an extractor with the JavaScript grammar loaded.
func NewFunctionExtractor() (*FunctionExtractor, error) {
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(tree_sitter.NewLanguage(tree_sitter_javascript.Language())); err != nil {
		p.Close()
		return nil, fmt.Errorf("load javascript grammar: %w", err)
	}
	return &FunctionExtractor{parser: p}, nil
}

// Close releases parser resources.
func (f *FunctionExtractor) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.parser != nil {
		f.parser.Close()
		f.parser = nil
	}
}

// Extract returns the smallest function that contains every line in lines,
// or "" when there is none.
func (f *FunctionExtractor) Extract(_ context.Context, path string, lines []int) (string, error) {
	if len(lines) == 0 {
		return "", nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	first, last := lines[0], lines[0]
	for _, l := range lines {
		first = min(first, l)
		last = max(last, l)
	}
	if first < 1 {
		return "", nil
	}

	return f.withTree(src, func(root *tree_sitter.Node) string {
		row := uint(first - 1)
		if row > root.EndPosition().Row {
			return ""
		}
		at := tree_sitter.Point{Row: row, Column: firstNonSpace(src, row)}
		for n := root.DescendantForPointRange(at, at); n != nil; n = n.Parent() {
			if !functionKinds[n.Kind()] {
				continue
			}
			if n.StartPosition().Row <= row && n.EndPosition().Row >= uint(last-1) {
				return n.Utf8Text(src)
			}
		}
		return ""
	})
}

// ExtractMethod returns the first function or method named method.
func (f *FunctionExtractor) ExtractMethod(_ context.Context, path, method string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return f.withTree(src, func(root *tree_sitter.Node) string {
		if n := findNamed(root, src, method); n != nil {
			return n.Utf8Text(src)
		}
		return ""
	})
}

func (f *FunctionExtractor) withTree(src []byte, fn func(root *tree_sitter.Node) string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.parser == nil {
		return "", fmt.Errorf("function extractor is closed")
	}

	tree := f.parser.Parse(src, nil)
	if tree == nil {
		return "", fmt.Errorf("parse failed")
	}
	defer tree.Close()

	return fn(tree.RootNode()), nil
}

func findNamed(n *tree_sitter.Node, src []byte, name string) *tree_sitter.Node {
	if functionKinds[n.Kind()] && functionName(n, src) == name {
		return n
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if found := findNamed(n.NamedChild(i), src, name); found != nil {
			return found
		}
	}
	return nil
}

// functionName handles `function f() {}`, methods, and `const f = () => {}`.
func functionName(n *tree_sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Utf8Text(src)
	}
	if parent := n.Parent(); parent != nil && parent.Kind() == "variable_declarator" {
		if name := parent.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(src)
		}
	}
	return ""
}

func firstNonSpace(src []byte, row uint) uint {
	var cur uint
	start := 0
	for i, b := range src {
		if cur == row {
			start = i
			break
		}
		if b == '\n' {
			cur++
			start = i + 1
		}
	}
	var col uint
	for i := start; i < len(src); i++ {
		if src[i] != ' ' && src[i] != '\t' {
			break
		}
		col++
	}
	return col
}
