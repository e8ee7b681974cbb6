package custom

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IDPrefix marks user-defined system ids.
const IDPrefix = "user-"

// Slugify lowercases value, folds diacritics, and collapses every run of
// non-alphanumeric characters into a single '-', trimming '-' at the ends.
func Slugify(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// SystemID derives the registry id for a user system named name.
// It returns "" when the name has no usable characters.
func SystemID(name string) string {
	slug := Slugify(name)
	if slug == "" {
		return ""
	}
	return IDPrefix + slug
}
