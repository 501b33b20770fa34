package util

import (
	"sort"
	"strings"
)

// FormatInfo renders key-values as sorted "key: value" lines.
func FormatInfo(info map[string]string) string {
	var builder strings.Builder
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(": ")
		builder.WriteString(info[k])
		builder.WriteString("\n")
	}
	return builder.String()
}

// Indent prefixes every non-empty line of s.
func Indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var builder strings.Builder
	for _, line := range lines {
		if line != "" && line != "\n" {
			builder.WriteString(prefix)
		}
		builder.WriteString(line)
	}
	return builder.String()
}
