// Package util provides small string helpers shared by the command parsers.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// TrimQuotes removes one pair of surrounding double quotes from a string.
// Unbalanced or missing quotes are left alone.
func TrimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// Unquote trims surrounding quotes and whitespace, then collapses escaped quotes.
func Unquote(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// SplitArray splits a flat bracketed list such as "[1.5, 2, 3]" into its
// trimmed elements. The brackets are optional. Nested lists are not supported.
func SplitArray(s string) []string {
	s = strings.TrimSpace(Unquote(s))
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = Unquote(p)
	}
	return parts
}

// ParseFloat parses a possibly quoted float.
func ParseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(Unquote(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return f, nil
}
