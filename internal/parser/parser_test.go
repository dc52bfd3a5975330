package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `const util = require("util");

function add(a, b) {
  const sum = a + b;
  return sum;
}

class Counter {
  increment() {
    this.count += 1;
  }
}

const double = (x) => {
  return x * 2;
};
`

func setup(t *testing.T) (*FunctionExtractor, string) {
	t.Helper()
	fe, err := NewFunctionExtractor()
	require.NoError(t, err)
	t.Cleanup(fe.Close)

	path := filepath.Join(t.TempDir(), "index.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return fe, path
}

func TestExtract(t *testing.T) {
	fe, path := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		lines []int
		want  string
	}{
		{"function body", []int{4, 5}, "function add(a, b) {\n  const sum = a + b;\n  return sum;\n}"},
		{"method", []int{10}, "increment() {\n    this.count += 1;\n  }"},
		{"arrow", []int{15}, "(x) => {\n  return x * 2;\n}"},
		{"top level", []int{1}, ""},
		{"spans two functions", []int{4, 10}, ""},
		{"past end of file", []int{400}, ""},
		{"no lines", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fe.Extract(ctx, path, tt.lines)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractMethod(t *testing.T) {
	fe, path := setup(t)
	ctx := context.Background()

	got, err := fe.ExtractMethod(ctx, path, "increment")
	require.NoError(t, err)
	assert.Equal(t, "increment() {\n    this.count += 1;\n  }", got)

	got, err = fe.ExtractMethod(ctx, path, "double")
	require.NoError(t, err)
	assert.Equal(t, "(x) => {\n  return x * 2;\n}", got)

	got, err = fe.ExtractMethod(ctx, path, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractUnreadableFile(t *testing.T) {
	fe, _ := setup(t)
	_, err := fe.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.js"), []int{1})
	assert.Error(t, err)
}

func TestClosedExtractor(t *testing.T) {
	fe, path := setup(t)
	fe.Close()
	_, err := fe.Extract(context.Background(), path, []int{4})
	assert.Error(t, err)
}
