package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// newFolder builds the transform chain used by FoldText.
// Chains keep internal state so each call gets its own.
func newFolder() transform.Transformer {
	return transform.Chain(
		norm.NFKD,                          // Decompose with compatibility decomposition
		runes.Remove(runes.In(unicode.Mn)), // Remove non-spacing marks
		runes.Map(unicode.ToLower),
		norm.NFKC,
	)
}

// FoldText lowercases s, strips accents and folds compatibility forms so that
// "Café", "cafe" and fullwidth "ｃａｆｅ" compare equal. Surrounding whitespace
// and a leading '#' or '@' are removed.
func FoldText(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "#@")
	if s == "" {
		return ""
	}

	result, _, err := transform.String(newFolder(), s)
	if err != nil {
		return strings.ToLower(s)
	}

	return result
}

// FoldEqual reports whether a and b are equal after folding.
func FoldEqual(a, b string) bool {
	return FoldText(a) == FoldText(b)
}
