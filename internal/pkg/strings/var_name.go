// Package strings provides string utility functions for variable naming.
package strings

import (
	"strings"
	"unicode"
)

// ToLowerCamel lowers the leading upper-case run of s. The last letter of a
// run followed by a lower-case letter starts the next word, so HTTPClient
// becomes httpClient.
func ToLowerCamel(s string) string {
	i := 0
	for i < len(s) && unicode.IsUpper(rune(s[i])) {
		i++
	}
	if i > 1 && i < len(s) && unicode.IsLower(rune(s[i])) {
		i--
	}

	return strings.ToLower(s[:i]) + s[i:]
}

func ToUpperFirst(s string) string {
	if s == "" {
		return s
	}
	return string(unicode.ToUpper(rune(s[0]))) + s[1:]
}

// TrimInterfacePrefix turns IService into Service.
func TrimInterfacePrefix(name string) string {
	if len(name) > 1 && name[0] == 'I' && unicode.IsUpper(rune(name[1])) {
		return name[1:]
	}
	return name
}
