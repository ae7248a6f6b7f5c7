// Package env expands ${env.NAME} references in configuration documents.
package env

import (
	"os"
	"strings"
	"unicode"
)

const prefix = "${env."

// LookupFunc resolves a variable; os.Getenv by default.
var LookupFunc = os.Getenv

// Expand replaces every ${env.NAME} with the variable's value, empty when
// unset. NAME may hold letters, digits and underscores; anything else, or a
// missing closing brace, leaves the text as is.
func Expand(value string) string {
	if !strings.Contains(value, prefix) {
		return value
	}
	var b strings.Builder
	for {
		start := strings.Index(value, prefix)
		if start < 0 {
			b.WriteString(value)
			return b.String()
		}
		b.WriteString(value[:start])
		rest := value[start+len(prefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(value[start:])
			return b.String()
		}
		name := rest[:end]
		if !isName(name) {
			// keep the prefix literally and rescan right after it
			b.WriteString(prefix)
			value = rest
			continue
		}
		b.WriteString(LookupFunc(name))
		value = rest[end+1:]
	}
}

func isName(name string) bool {
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
