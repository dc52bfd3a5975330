// Package lang describes the source languages benchmarks are written in.
package lang

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

type Language struct {
	Tag       string
	Extension string
	// RemoveComments strips comments while leaving string literals intact.
	RemoveComments func(source string) (string, error)
}

var (
	Java       = Language{Tag: "java", Extension: ".java", RemoveComments: removeCStyleComments}
	Python     = Language{Tag: "python", Extension: ".py", RemoveComments: removePythonComments}
	JavaScript = Language{Tag: "javascript", Extension: ".js", RemoveComments: removeCStyleComments}
)

var languages = map[string]Language{
	Java.Tag:       Java,
	Python.Tag:     Python,
	JavaScript.Tag: JavaScript,
}

func Lookup(tag string) (Language, error) {
	l, ok := languages[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return Language{}, fmt.Errorf("unsupported language: %q", tag)
	}
	return l, nil
}

// ForPath picks a language from a file extension.
func ForPath(path string) (Language, bool) {
	ext := filepath.Ext(path)
	for _, l := range languages {
		if l.Extension == ext {
			return l, true
		}
	}
	return Language{}, false
}

var emptyLine = regexp.MustCompile(`(?m)^[ \t\r\f\v]*\n`)

// RemoveEmptyLines drops lines that contain only whitespace.
func RemoveEmptyLines(source string) string {
	return emptyLine.ReplaceAllString(source, "")
}
