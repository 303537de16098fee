package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BrandKey folds a brand or tag into its matching key: lowercase, diacritics
// and punctuation removed, whitespace collapsed. BrandKey(BrandKey(s)) == BrandKey(s).
func BrandKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// BrandKeys applies BrandKey to every entry, dropping blanks and duplicates.
func BrandKeys(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		k := BrandKey(n)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// CompactKey is BrandKey without spaces, so "Coca Cola" and "#cocacola" meet.
func CompactKey(name string) string {
	return strings.ReplaceAll(BrandKey(name), " ", "")
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "from": {},
	"our": {}, "your": {}, "their": {}, "into": {}, "about": {}, "more": {},
	"los": {}, "las": {}, "del": {}, "con": {}, "para": {}, "una": {}, "que": {},
}

// Tokens splits text into comparable words, dropping short words and stopwords.
func Tokens(text string) []string {
	fields := strings.Fields(BrandKey(text))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
