package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks while keeping the base letters.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// Decompose returns the NFKD form, which splits ligatures and compatibility
// characters (e.g. "ﬁ" -> "fi").
func Decompose(s string) string {
	return norm.NFKD.String(s)
}

// ToLatinASCII transliterates anything still outside ASCII once the
// diacritics are gone. Đ/đ have no decomposition and are handled by unidecode.
func ToLatinASCII(s string) string {
	s = StripDiacritics(s)
	for _, r := range s {
		if r > unicode.MaxASCII {
			return unidecode.Unidecode(s)
		}
	}
	return s
}

// RemoveAccentsAndLowercase folds s to lowercase Latin ASCII. Place names and
// dictionary lookups are keyed on this form.
func RemoveAccentsAndLowercase(s string) string {
	return strings.ToLower(ToLatinASCII(s))
}
