package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold maps s to a case- and diacritic-insensitive form so that
// "Lừa Đảo", "lừa đảo" and "lua dao" compare equal. Vietnamese "đ" is
// mapped to "d" since it is a distinct letter, not a combining mark.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = norm.NFC.String(s)
	}
	out = strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
	return folder.String(out)
}

// ContainsFolded reports whether needle occurs in haystack after folding
// both. An empty needle always matches.
func ContainsFolded(haystack, needle string) bool {
	n := strings.TrimSpace(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), Fold(n))
}
