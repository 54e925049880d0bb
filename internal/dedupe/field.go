package dedupe

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/normalizer"
	"github.com/xrash/smetrics"
)

// FieldKind selects the equivalence rules for ClassifyField.
type FieldKind string

const (
	FieldName        FieldKind = "name"
	FieldStreet      FieldKind = "street"
	FieldHouseNumber FieldKind = "house_number"
	FieldUnit        FieldKind = "unit"
	FieldFloor       FieldKind = "floor"
	FieldPOBox       FieldKind = "po_box"
	FieldPostalCode  FieldKind = "postal_code"
	FieldToponym     FieldKind = "toponym"
)

// FieldKinds lists the kinds accepted by ParseFieldKind.
var FieldKinds = []FieldKind{FieldName, FieldStreet, FieldHouseNumber, FieldUnit, FieldFloor, FieldPOBox, FieldPostalCode, FieldToponym}

// ParseFieldKind accepts the kind names plus a few aliases ("road", "level", "postcode").
func ParseFieldKind(s string) (FieldKind, error) {
	switch k := FieldKind(strings.ToLower(strings.TrimSpace(s))); k {
	case FieldName, FieldStreet, FieldHouseNumber, FieldUnit, FieldFloor, FieldPOBox, FieldPostalCode, FieldToponym:
		return k, nil
	case "road":
		return FieldStreet, nil
	case "level":
		return FieldFloor, nil
	case "postcode":
		return FieldPostalCode, nil
	case "house":
		return FieldName, nil
	}
	return "", fmt.Errorf("%w: unknown field kind %q", address.ErrInvalidInput, s)
}

// ExpandOptions returns the normalizer options used for the kind.
func (k FieldKind) ExpandOptions() address.ExpandOptions {
	opts := address.DefaultExpandOptions()
	switch k {
	case FieldName:
		opts.Components = address.ComponentName
	case FieldStreet:
		opts.Components = address.ComponentStreet
	case FieldHouseNumber:
		opts.Components = address.ComponentHouseNumber
	case FieldUnit:
		opts.Components = address.ComponentUnit
	case FieldFloor:
		opts.Components = address.ComponentLevel
	case FieldPOBox:
		opts.Components = address.ComponentPOBox
	case FieldPostalCode:
		opts.Components = address.ComponentPostalCode
	case FieldToponym:
		opts.Components = address.ComponentToponym
	}
	opts.RomanNumerals = k == FieldUnit || k == FieldFloor
	return opts
}

// Options tunes a Classifier.
type Options struct {
	Fuzzy FuzzyOptions `yaml:"fuzzy" json:"fuzzy"`
	// PostalRules are tried in order; the first one matching both codes decides.
	PostalRules []PostalRule `yaml:"postal_rules" json:"postal_rules"`
	// NearTokenSimilarity is the Jaro-Winkler score above which two otherwise
	// disjoint tokens count as an ambiguous spelling variant.
	NearTokenSimilarity float64 `yaml:"near_token_similarity" json:"near_token_similarity"`
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		Fuzzy:               DefaultFuzzyOptions(),
		PostalRules:         DefaultPostalRules(),
		NearTokenSimilarity: 0.9,
	}
}

// Classifier holds read-only configuration and a normalizer; it is safe for
// concurrent use as long as the normalizer is.
type Classifier struct {
	normalizer address.Normalizer
	opts       Options
	postal     []compiledPostalRule
}

// NewClassifier builds a classifier. Invalid postal rule patterns are
// reported here rather than at classification time.
func NewClassifier(n address.Normalizer, opts Options) (*Classifier, error) {
	postal, err := compilePostalRules(opts.PostalRules)
	if err != nil {
		return nil, err
	}
	if opts.NearTokenSimilarity <= 0 {
		opts.NearTokenSimilarity = DefaultOptions().NearTokenSimilarity
	}
	if err := opts.Fuzzy.Validate(); err != nil {
		return nil, err
	}
	opts.Fuzzy = opts.Fuzzy.withDefaults()
	return &Classifier{normalizer: n, opts: opts, postal: postal}, nil
}

// Options returns the effective configuration.
func (c *Classifier) Options() Options { return c.opts }

// ClassifyField compares two values of the same field kind.
func (c *Classifier) ClassifyField(value1, value2 string, kind FieldKind, languages []string) Status {
	a, b := strings.TrimSpace(value1), strings.TrimSpace(value2)
	if a == "" || b == "" {
		return NullDuplicate
	}

	opts := kind.ExpandOptions()
	forms1 := c.forms(a, opts, languages)
	forms2 := c.forms(b, opts, languages)
	if intersects(forms1, forms2) {
		return ExactDuplicate
	}

	switch kind {
	case FieldHouseNumber:
		if s, ok := houseNumberStatus(forms1, forms2); ok {
			return s
		}
	case FieldPostalCode:
		if s, ok := c.postalCodeStatus(a, b); ok {
			return s
		}
	case FieldPOBox:
		if s, ok := poBoxStatus(forms1, forms2); ok {
			return s
		}
	case FieldUnit, FieldFloor:
		if s, ok := numberedStatus(forms1, forms2); ok {
			return s
		}
	}
	return c.overlapStatus(forms1, forms2)
}

// ClassifyValues compares every value of one side with every value of the
// other and keeps the strongest verdict. Labels such as name may repeat with
// alternate values.
func (c *Classifier) ClassifyValues(values1, values2 []string, kind FieldKind, languages []string) Status {
	best := NullDuplicate
	for _, x := range values1 {
		for _, y := range values2 {
			if s := c.ClassifyField(x, y, kind, languages); s > best {
				best = s
				if best == ExactDuplicate {
					return best
				}
			}
		}
	}
	return best
}

func (c *Classifier) IsNameDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldName, languages)
}

func (c *Classifier) IsStreetDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldStreet, languages)
}

func (c *Classifier) IsHouseNumberDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldHouseNumber, languages)
}

func (c *Classifier) IsPOBoxDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldPOBox, languages)
}

func (c *Classifier) IsUnitDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldUnit, languages)
}

func (c *Classifier) IsFloorDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldFloor, languages)
}

func (c *Classifier) IsPostalCodeDuplicate(v1, v2 string, languages []string) Status {
	return c.ClassifyField(v1, v2, FieldPostalCode, languages)
}

// forms falls back to the lowercased value so that a value the normalizer
// discards entirely still equals itself.
func (c *Classifier) forms(value string, opts address.ExpandOptions, languages []string) []string {
	if forms := c.normalizer.Expand(value, opts, languages); len(forms) > 0 {
		return forms
	}
	return []string{strings.ToLower(value)}
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

var (
	reHouseNumber = regexp.MustCompile(`^0*([0-9]+)\s*([a-z]{0,2})$`)
	reUnitNumber  = regexp.MustCompile(`^([a-z]?)\s*0*([0-9]+)\s*([a-z]?)$`)
	reDigits      = regexp.MustCompile(`[0-9]+`)
)

// houseNumberStatus compares numeric cores: same core with a different
// letter suffix is likely the same building, different cores are not.
func houseNumberStatus(forms1, forms2 []string) (Status, bool) {
	cores1 := numericCores(forms1, reHouseNumber, 1)
	cores2 := numericCores(forms2, reHouseNumber, 1)
	if len(cores1) == 0 || len(cores2) == 0 {
		return NullDuplicate, false
	}
	for core := range cores1 {
		if _, ok := cores2[core]; ok {
			return LikelyDuplicate, true
		}
	}
	return NonDuplicate, true
}

// numberedStatus only settles the clear mismatch for unit and floor values.
func numberedStatus(forms1, forms2 []string) (Status, bool) {
	cores1 := numericCores(forms1, reUnitNumber, 2)
	cores2 := numericCores(forms2, reUnitNumber, 2)
	if len(cores1) == 0 || len(cores2) == 0 {
		return NullDuplicate, false
	}
	for core := range cores1 {
		if _, ok := cores2[core]; ok {
			return NullDuplicate, false
		}
	}
	return NonDuplicate, true
}

func numericCores(forms []string, re *regexp.Regexp, group int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range forms {
		if m := re.FindStringSubmatch(f); m != nil {
			out[m[group]] = struct{}{}
		}
	}
	return out
}

// poBoxStatus compares box numbers once the designators are gone.
func poBoxStatus(forms1, forms2 []string) (Status, bool) {
	n1, n2 := boxNumbers(forms1), boxNumbers(forms2)
	if len(n1) == 0 || len(n2) == 0 {
		return NullDuplicate, false
	}
	for n := range n1 {
		if _, ok := n2[n]; ok {
			return ExactDuplicate, true
		}
	}
	return NonDuplicate, true
}

func boxNumbers(forms []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range forms {
		digits := reDigits.FindAllString(f, -1)
		if len(digits) == 0 {
			continue
		}
		n := strings.TrimLeft(strings.Join(digits, ""), "0")
		if n == "" {
			n = "0"
		}
		out[n] = struct{}{}
	}
	return out
}

// overlapStatus is the fallback for every kind: shared tokens, shared
// numbers or an abbreviation-like pair mean the pair needs review; two
// well-formed, fully disjoint values are not duplicates.
func (c *Classifier) overlapStatus(forms1, forms2 []string) Status {
	tokens1, tokens2 := tokenSet(forms1), tokenSet(forms2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return NullDuplicate
	}
	for t := range tokens1 {
		if _, ok := tokens2[t]; ok {
			return NeedsReview
		}
	}
	for t1 := range tokens1 {
		for t2 := range tokens2 {
			if c.nearTokens(t1, t2) {
				return NeedsReview
			}
		}
	}
	return NonDuplicate
}

func tokenSet(forms []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range forms {
		for _, t := range normalizer.Tokenize(f) {
			out[t] = struct{}{}
			for _, d := range reDigits.FindAllString(t, -1) {
				if d != t {
					out[d] = struct{}{}
				}
			}
		}
	}
	return out
}

// nearTokens reports an abbreviation (letters of the shorter token appear in
// order in the longer one, same first letter) or a close spelling variant.
func (c *Classifier) nearTokens(a, b string) bool {
	if !isAlpha(a) || !isAlpha(b) {
		return false
	}
	short, long := a, b
	if len(short) > len(long) || (len(short) == len(long) && short > long) {
		short, long = long, short
	}
	if len(short) >= 2 && short[0] == long[0] && isSubsequence(short, long) {
		return true
	}
	if len(short) < 4 {
		return false
	}
	jw := smetrics.JaroWinkler(short, long, 0.7, 4)
	return jw >= c.opts.NearTokenSimilarity
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isSubsequence(short, long string) bool {
	rs := []rune(short)
	i := 0
	for _, r := range long {
		if i < len(rs) && rs[i] == r {
			i++
		}
	}
	return i == len(rs)
}
