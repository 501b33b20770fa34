package pattern

import (
	"regexp"
	"sort"
	"strings"
)

// Match reports whether str matches a glob pattern.
// Supported wildcards:
// * - matches any sequence of characters
// ? - matches any single character
// [...] - matches any single character within the brackets
// \x - escape character x
func Match(pattern, str string) bool {
	if pattern == "*" {
		return true
	}
	regex, err := regexp.Compile("^" + globToRegex(pattern) + "$")
	if err != nil {
		return false
	}
	return regex.MatchString(str)
}

func globToRegex(pattern string) string {
	var result strings.Builder
	result.Grow(len(pattern) * 2)

	inCharClass := false
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '\\' && i < len(pattern)-1:
			i++
			result.WriteString(regexp.QuoteMeta(string(pattern[i])))
		case inCharClass:
			if ch == ']' {
				inCharClass = false
			}
			result.WriteByte(ch)
		case ch == '*':
			result.WriteString(".*")
		case ch == '?':
			result.WriteByte('.')
		case ch == '[':
			inCharClass = true
			result.WriteByte(ch)
		default:
			result.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return result.String()
}

// IsPattern checks if a string contains glob metacharacters.
func IsPattern(str string) bool {
	escaped := false
	for i := 0; i < len(str); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch str[i] {
		case '\\':
			escaped = true
		case '*', '?', '[', ']':
			return true
		}
	}
	return false
}

// Filter returns the sorted names matching any of the patterns. No patterns
// match everything.
func Filter(names []string, patterns ...string) []string {
	var out []string
	for _, name := range names {
		if len(patterns) == 0 || MatchMultiple(patterns, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// MatchMultiple checks if a string matches any of the provided patterns.
func MatchMultiple(patterns []string, str string) bool {
	for _, pattern := range patterns {
		if Match(pattern, str) {
			return true
		}
	}
	return false
}
