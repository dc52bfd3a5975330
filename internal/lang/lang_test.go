package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJavaRemoveComments(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"line comment", "int a = 1; // one\nint b;", "int a = 1; \nint b;"},
		{"block comment", "int /* hidden */ a;", "int  a;"},
		{"multi-line block", "/**\n * doc\n */\nvoid f() {}", "\nvoid f() {}"},
		{"comment marker in string", `String s = "// not a comment";`, `String s = "// not a comment";`},
		{"escaped quote in string", `String s = "a\"//b"; // c`, `String s = "a\"//b"; `},
		{"char literal", `char c = '/'; /* x */`, `char c = '/'; `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Java.RemoveComments(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPythonRemoveComments(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"hash comment", "x = 1  # set x\ny = 2\n", "x = 1  \ny = 2\n"},
		{"docstring", "def f():\n    \"\"\"Doc.\"\"\"\n    return 1\n", "def f():\n    \n    return 1\n"},
		{"single quoted docstring", "'''a\nb'''\nx = 1", "\nx = 1"},
		{"hash in string", "s = '# keep'\n", "s = '# keep'\n"},
		{"escape in string", `s = "a\"b"  # c`, `s = "a\"b"  `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Python.RemoveComments(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoveCommentsTruncatedEscape(t *testing.T) {
	_, err := Java.RemoveComments(`String s = "abc\`)
	assert.Error(t, err)

	_, err = Python.RemoveComments(`s = 'abc\`)
	assert.Error(t, err)
}

func TestRemoveEmptyLines(t *testing.T) {
	assert.Equal(t, "a\nb\n", RemoveEmptyLines("a\n\n   \nb\n\t\n"))
}

func TestLookup(t *testing.T) {
	l, err := Lookup(" Java ")
	require.NoError(t, err)
	assert.Equal(t, ".java", l.Extension)

	_, err = Lookup("cobol")
	assert.Error(t, err)

	l, ok := ForPath("src/main/Foo.py")
	require.True(t, ok)
	assert.Equal(t, "python", l.Tag)

	_, ok = ForPath("README.md")
	assert.False(t, ok)
}
