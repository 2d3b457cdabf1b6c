// Package textmatch holds the accent-insensitive text helpers shared by the
// VIP detector, the response cache and the municipality resolver.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize removes combining diacritical marks and lowercases text.
// "Cuánto" and "CUANTO" both become "cuanto".
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

// ContainsWord reports whether alias occurs in message as a whole word.
// Both sides are normalised and padded with spaces, so "ana" does not match
// "banana" but "Daniel," (punctuation glued to the word) does not match
// "daniel" either.
func ContainsWord(message, alias string) bool {
	a := strings.TrimSpace(Normalize(alias))
	if a == "" {
		return false
	}
	return strings.Contains(" "+Normalize(message)+" ", " "+a+" ")
}

// ContainsAny reports whether the normalised text contains any of the
// normalised needles as a plain substring.
func ContainsAny(text string, needles []string) bool {
	n := Normalize(text)
	for _, needle := range needles {
		if needle = Normalize(needle); needle != "" && strings.Contains(n, needle) {
			return true
		}
	}
	return false
}
