package util

import (
	"strconv"
	"strings"
)

// ShellEscape wraps s in single quotes so that /bin/sh treats it as one literal word.
// Embedded single quotes become '\'' (close, escaped quote, reopen).
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// ShellEscapeAll escapes every element on its own; the elements are never joined before escaping.
func ShellEscapeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, ShellEscape(v))
	}
	return out
}

func FirstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func Truncate(s string, length int) string {
	if length <= 0 {
		return ""
	}
	if len(s) <= length {
		return s
	}
	if length <= 3 {
		return s[:length]
	}
	return s[:length-3] + "..."
}

// TrimQuotes removes one pair of surrounding double quotes. docker prints some fields
// Go-quoted, so a field that unquotes cleanly is returned with its escapes resolved.
func TrimQuotes(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s[1 : len(s)-1]
}

// NonEmptyLines splits on \n and drops empty lines. A trailing \r is kept as content.
func NonEmptyLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
