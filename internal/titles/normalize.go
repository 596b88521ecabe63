// Package titles provides the title normalization used for cross-source
// story identity. Two items are the same logical story iff their
// normalized titles are byte-equal.
package titles

import (
	"strings"
	"unicode"
)

// Normalize removes every unicode whitespace rune from title. The result is
// the canonical story key; it is stored alongside items and compared exactly.
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StripLegacy removes only ASCII and ideographic spaces, matching the SQL
// expression REPLACE(REPLACE(title, ' ', ''), '　', '') used to compare
// against rows written before normalized titles were stored.
func StripLegacy(title string) string {
	title = strings.ReplaceAll(title, " ", "")
	return strings.ReplaceAll(title, "　", "")
}
