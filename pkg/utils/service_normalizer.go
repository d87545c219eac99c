package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// serviceAliases maps common shorthand and colloquial spellings to the
// canonical service name used across listings. Keys are folded forms.
var serviceAliases = map[string]string{
	"urgence":      "urgences",
	"labo":         "laboratoire d'analyses",
	"laboratoire":  "laboratoire d'analyses",
	"analyses":     "laboratoire d'analyses",
	"pharma":       "pharmacie",
	"garde":        "pharmacie de garde",
	"consultation": "consultation generale",
	"echo":         "echographie",
	"radio":        "radiologie",
	"accouchement": "maternite",
	"vaccin":       "vaccination",
}

var diacriticsRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldServiceName canonicalizes a service name for comparison: trimmed,
// lowercased, inner whitespace collapsed and diacritics stripped, so
// "  Pédiatrie " and "pediatrie" compare equal.
func FoldServiceName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(diacriticsRemover, name); err == nil {
		name = folded
	}
	return strings.Join(strings.Fields(name), " ")
}

// CanonicalServiceName resolves shorthand like "labo" or "urgence" to the
// canonical folded service name. Unknown names come back folded unchanged.
func CanonicalServiceName(name string) string {
	folded := FoldServiceName(name)
	if canonical, ok := serviceAliases[folded]; ok {
		return canonical
	}
	return folded
}

// ServiceNamesMatch reports whether two service names refer to the same
// service, tolerating accents, case and partial forms in either direction.
func ServiceNamesMatch(a, b string) bool {
	fa, fb := CanonicalServiceName(a), CanonicalServiceName(b)
	if fa == "" || fb == "" {
		return false
	}
	return fa == fb || strings.Contains(fa, fb) || strings.Contains(fb, fa)
}
