package lang

import (
	"errors"
	"strings"
)

var errTruncatedEscape = errors.New("escape sequence at end of input")

const (
	normal = iota
	lineComment
	blockComment
	stringLiteral
	charLiteral
)

func removeCStyleComments(source string) (string, error) {
	var out strings.Builder
	state := normal

	for i := 0; i < len(source); {
		c := source[i]
		switch state {
		case normal:
			switch {
			case strings.HasPrefix(source[i:], "//"):
				state = lineComment
				i += 2
			case strings.HasPrefix(source[i:], "/*"):
				state = blockComment
				i += 2
			case c == '"':
				state = stringLiteral
				out.WriteByte(c)
				i++
			case c == '\'':
				state = charLiteral
				out.WriteByte(c)
				i++
			default:
				out.WriteByte(c)
				i++
			}
		case lineComment:
			if c == '\n' {
				state = normal
				out.WriteByte(c)
			}
			i++
		case blockComment:
			if strings.HasPrefix(source[i:], "*/") {
				state = normal
				i += 2
			} else {
				i++
			}
		case stringLiteral, charLiteral:
			quote := byte('"')
			if state == charLiteral {
				quote = '\''
			}
			switch c {
			case '\\':
				if i+1 >= len(source) {
					return "", errTruncatedEscape
				}
				out.WriteString(source[i : i+2])
				i += 2
			case quote:
				state = normal
				out.WriteByte(c)
				i++
			default:
				out.WriteByte(c)
				i++
			}
		}
	}
	return out.String(), nil
}

func removePythonComments(source string) (string, error) {
	var out strings.Builder
	state := normal
	var quote byte

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch state {
		case normal:
			switch {
			case c == '#':
				state = lineComment
			case strings.HasPrefix(source[i:], `"""`), strings.HasPrefix(source[i:], `'''`):
				state = blockComment
				i += 2
			case c == '"' || c == '\'':
				state = stringLiteral
				quote = c
				out.WriteByte(c)
			default:
				out.WriteByte(c)
			}
		case lineComment:
			if c == '\n' {
				state = normal
				out.WriteByte(c)
			}
		case blockComment:
			if strings.HasPrefix(source[i:], `"""`) || strings.HasPrefix(source[i:], `'''`) {
				state = normal
				i += 2
			}
		case stringLiteral:
			switch c {
			case '\\':
				if i+1 >= len(source) {
					return "", errTruncatedEscape
				}
				out.WriteString(source[i : i+2])
				i++
			case quote:
				state = normal
				out.WriteByte(c)
			default:
				out.WriteByte(c)
			}
		}
	}
	return out.String(), nil
}
