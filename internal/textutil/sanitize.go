package textutil

import "strings"

// SanitizeFileName turns a run or shot id into a single safe path element.
// Path separators, colons and asterisks become dashes; quotes, angle
// brackets, pipes and question marks are dropped. Surrounding whitespace is
// trimmed.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, strings.TrimSpace(name)))
}
