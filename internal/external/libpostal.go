//go:build cgo

package external

import (
	"strings"

	"github.com/address-dedupe/internal/address"
	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
)

// Available reports whether this build links libpostal.
const Available = true

// Libpostal implements address.Normalizer and address.Parser on top of the
// libpostal C library. gopostal serializes calls into the library itself.
type Libpostal struct{}

var (
	_ address.Normalizer = (*Libpostal)(nil)
	_ address.Parser     = (*Libpostal)(nil)
)

// NewLibpostal returns the libpostal binding. libpostal loads its data files
// on first use.
func NewLibpostal() (*Libpostal, error) {
	return &Libpostal{}, nil
}

func toExpandOptions(o address.ExpandOptions, languages []string) expand.ExpandOptions {
	return expand.ExpandOptions{
		Languages:              languages,
		AddressComponents:      uint16(o.Components),
		LatinAscii:             o.LatinASCII,
		Transliterate:          o.Transliterate,
		StripAccents:           o.StripAccents,
		Decompose:              o.Decompose,
		Lowercase:              o.Lowercase,
		TrimString:             o.TrimString,
		ReplaceWordHyphens:     o.ReplaceWordHyphens,
		DeleteWordHyphens:      o.DeleteWordHyphens,
		ReplaceNumericHyphens:  o.ReplaceNumericHyphens,
		DeleteNumericHyphens:   o.DeleteNumericHyphens,
		SplitAlphaFromNumeric:  o.SplitAlphaFromNumeric,
		DeleteFinalPeriods:     o.DeleteFinalPeriods,
		DeleteAcronymPeriods:   o.DeleteAcronymPeriods,
		DropEnglishPossessives: o.DropEnglishPossessives,
		DeleteApostrophes:      o.DeleteApostrophes,
		ExpandNumex:            o.ExpandNumex,
		RomanNumerals:          o.RomanNumerals,
	}
}

func (l *Libpostal) Expand(value string, opts address.ExpandOptions, languages []string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return expand.ExpandAddressOptions(value, toExpandOptions(opts, languages))
}

// Canonical is the first expansion libpostal returns, which is stable for a
// given input and option set.
func (l *Libpostal) Canonical(value string, opts address.ExpandOptions, languages []string) string {
	exps := l.Expand(value, opts, languages)
	if len(exps) == 0 {
		return ""
	}
	return exps[0]
}

func (l *Libpostal) Parse(raw, language, country string) address.LabeledAddress {
	out := address.LabeledAddress{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	comps := parser.ParseAddressOptions(raw, parser.ParserOptions{
		Language: language,
		Country:  country,
	})
	for _, c := range comps {
		out = append(out, address.Component{Label: address.ParseLabel(c.Label), Value: c.Value})
	}
	return out
}
