package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/address-dedupe/internal/address"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxExpansions caps the cartesian product of token alternatives.
const DefaultMaxExpansions = 64

var (
	rePossessive  = regexp.MustCompile(`([a-z0-9])'s\b`)
	reAcronym     = regexp.MustCompile(`\b(?:[a-z]\.){2,}`)
	reOrdinal     = regexp.MustCompile(`^([0-9]+)(?:st|nd|rd|th|er|eme|ste)$`)
	reRoman       = regexp.MustCompile(`^m{0,3}(?:cm|cd|d?c{0,3})(?:xc|xl|l?x{0,3})(?:ix|iv|v?i{0,3})$`)
	apostropheMap = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'")
)

// RuleNormalizer is a dictionary-driven Normalizer used when libpostal is not
// available. It is read-only after construction and safe for concurrent use.
type RuleNormalizer struct {
	rules         *RulesConfig
	languages     []string
	maxExpansions int
}

// NewRuleNormalizer builds a normalizer over rules. Calls without a
// language hint use every configured language.
func NewRuleNormalizer(rules *RulesConfig, maxExpansions int) *RuleNormalizer {
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	return &RuleNormalizer{
		rules:         rules,
		languages:     rules.LanguageCodes(),
		maxExpansions: maxExpansions,
	}
}

// NewDefaultRuleNormalizer loads the embedded dictionaries.
func NewDefaultRuleNormalizer() (*RuleNormalizer, error) {
	rules, err := LoadRulesConfig()
	if err != nil {
		return nil, err
	}
	return NewRuleNormalizer(rules, DefaultMaxExpansions), nil
}

// Rules exposes the dictionaries, e.g. for language detection.
func (n *RuleNormalizer) Rules() *RulesConfig { return n.rules }

// Expand returns the distinct normalized forms of value in generation order.
// The first form takes the first alternative of every token.
func (n *RuleNormalizer) Expand(value string, opts address.ExpandOptions, languages []string) []string {
	s := n.clean(value, opts)
	if s == "" {
		return nil
	}
	langs := n.resolveLanguages(languages)

	var out []string
	seen := make(map[string]struct{})
	for _, variant := range hyphenVariants(s, opts) {
		tokens := n.stripDesignators(Tokenize(variant), opts, langs)
		alts := make([][]string, 0, len(tokens))
		for _, t := range tokens {
			alts = append(alts, n.alternatives(t, opts, langs))
		}
		for _, e := range product(alts, n.maxExpansions-len(out)) {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
		if len(out) >= n.maxExpansions {
			break
		}
	}
	return out
}

// Canonical returns the first expansion, or "" when nothing survives.
func (n *RuleNormalizer) Canonical(value string, opts address.ExpandOptions, languages []string) string {
	if e := n.Expand(value, opts, languages); len(e) > 0 {
		return e[0]
	}
	return ""
}

func (n *RuleNormalizer) resolveLanguages(languages []string) []string {
	if len(languages) == 0 {
		return n.languages
	}
	out := make([]string, 0, len(languages))
	for _, l := range languages {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return n.languages
	}
	return out
}

func (n *RuleNormalizer) clean(s string, opts address.ExpandOptions) string {
	if opts.Decompose {
		s = Decompose(s)
	}
	switch {
	case opts.LatinASCII || opts.Transliterate:
		s = ToLatinASCII(s)
	case opts.StripAccents:
		s = StripDiacritics(s)
	default:
		s = norm.NFC.String(s)
	}
	if opts.Lowercase {
		s = strings.ToLower(s)
	}
	s = apostropheMap.Replace(s)
	if opts.DropEnglishPossessives {
		s = rePossessive.ReplaceAllString(s, "$1")
	}
	if opts.DeleteApostrophes {
		s = strings.ReplaceAll(s, "'", "")
	}
	if opts.DeleteAcronymPeriods {
		s = reAcronym.ReplaceAllStringFunc(s, func(m string) string {
			return strings.ReplaceAll(m, ".", "")
		})
	}
	if opts.TrimString {
		s = strings.TrimSpace(s)
	}
	return s
}

// hyphenVariants applies the hyphen options. With both replace and delete
// enabled for a hyphen class each choice yields its own variant.
func hyphenVariants(s string, opts address.ExpandOptions) []string {
	if !strings.Contains(s, "-") {
		return []string{s}
	}
	var wordModes, numModes []string
	if opts.ReplaceWordHyphens {
		wordModes = append(wordModes, " ")
	}
	if opts.DeleteWordHyphens {
		wordModes = append(wordModes, "")
	}
	if len(wordModes) == 0 {
		wordModes = []string{" "}
	}
	if opts.ReplaceNumericHyphens {
		numModes = append(numModes, " ")
	}
	if opts.DeleteNumericHyphens {
		numModes = append(numModes, "")
	}
	if len(numModes) == 0 {
		numModes = []string{"-"}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, wm := range wordModes {
		for _, nm := range numModes {
			v := replaceHyphens(s, wm, nm)
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

func replaceHyphens(s, word, numeric string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if r != '-' || i == 0 || i == len(rs)-1 {
			b.WriteRune(r)
			continue
		}
		prev, next := rs[i-1], rs[i+1]
		switch {
		case unicode.IsDigit(prev) && unicode.IsDigit(next):
			b.WriteString(numeric)
		case unicode.IsLetter(prev) && unicode.IsLetter(next):
			b.WriteString(word)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// Tokenize splits on anything that is not a letter or digit. '#' and '&'
// are kept as standalone tokens, and a hyphen between digits stays inside
// the token.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	rs := []rune(s)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			cur.WriteRune(r)
		case r == '-' && i > 0 && i < len(rs)-1 && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]):
			cur.WriteRune(r)
		case r == '#' || r == '&':
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// stripDesignators drops unit/level/PO box designator phrases. When that
// would leave nothing the tokens are returned untouched.
func (n *RuleNormalizer) stripDesignators(tokens []string, opts address.ExpandOptions, langs []string) []string {
	var phrases [][]string
	for _, l := range langs {
		r, ok := n.rules.Languages[l]
		if !ok {
			continue
		}
		if opts.Components.Has(address.ComponentUnit) {
			phrases = appendPhrases(phrases, r.UnitDesignators)
		}
		if opts.Components.Has(address.ComponentLevel) {
			phrases = appendPhrases(phrases, r.LevelDesignators)
		}
		if opts.Components.Has(address.ComponentPOBox) {
			phrases = appendPhrases(phrases, r.POBoxDesignators)
		}
	}
	if len(phrases) == 0 || len(tokens) < 2 {
		return tokens
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := 0
		for _, p := range phrases {
			if len(p) > matched && hasPrefixTokens(tokens[i:], p) {
				matched = len(p)
			}
		}
		if matched > 0 {
			i += matched
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	if len(out) == 0 {
		return tokens
	}
	return out
}

func appendPhrases(dst [][]string, phrases []string) [][]string {
	for _, p := range phrases {
		if t := Tokenize(strings.ToLower(p)); len(t) > 0 {
			dst = append(dst, t)
		}
	}
	return dst
}

func hasPrefixTokens(tokens, prefix []string) bool {
	if len(prefix) > len(tokens) {
		return false
	}
	for i := range prefix {
		if tokens[i] != prefix[i] {
			return false
		}
	}
	return true
}

// alternatives lists the normalized forms of a single token, canonical first.
func (n *RuleNormalizer) alternatives(t string, opts address.ExpandOptions, langs []string) []string {
	var alts []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		alts = append(alts, s)
	}

	numbered := opts.Components.Has(address.ComponentUnit) || opts.Components.Has(address.ComponentLevel)
	if numbered {
		if m := reOrdinal.FindStringSubmatch(t); m != nil {
			return []string{trimLeadingZeros(m[1])}
		}
	}

	toponymHit := false
	for _, l := range langs {
		r, ok := n.rules.Languages[l]
		if !ok {
			continue
		}
		for _, d := range n.dictionaries(r, opts.Components) {
			if exp, ok := d.entries[t]; ok {
				for _, e := range exp {
					add(e)
				}
				toponymHit = toponymHit || d.keepOriginal
			}
		}
	}
	if len(alts) > 0 {
		if toponymHit {
			add(t)
		}
		return alts
	}

	if opts.ExpandNumex {
		for _, l := range langs {
			if v, ok := n.rules.Languages[l].Numex[t]; ok {
				return []string{v}
			}
		}
	}

	add(t)
	if opts.RomanNumerals && numbered && len(t) > 1 && reRoman.MatchString(t) {
		if v := romanToInt(t); v > 0 {
			add(strconv.Itoa(v))
		}
	}
	if opts.SplitAlphaFromNumeric {
		if split := splitAlphaNumeric(t); split != t {
			add(split)
		}
	}
	return alts
}

type dictionary struct {
	entries      map[string][]string
	keepOriginal bool
}

// dictionaries returns the dictionaries enabled by components, in a fixed
// precedence order.
func (n *RuleNormalizer) dictionaries(r LanguageRules, c address.Components) []dictionary {
	var out []dictionary
	if c.Has(address.ComponentStreet) && r.Street != nil {
		out = append(out, dictionary{entries: r.Street})
	}
	if c.Has(address.ComponentName) && r.Name != nil {
		out = append(out, dictionary{entries: r.Name})
	}
	if c.Has(address.ComponentToponym) && r.Toponym != nil {
		out = append(out, dictionary{entries: r.Toponym, keepOriginal: true})
	}
	if c.Has(address.ComponentUnit) && r.Unit != nil {
		out = append(out, dictionary{entries: r.Unit})
	}
	if c.Has(address.ComponentLevel) && r.Level != nil {
		out = append(out, dictionary{entries: r.Level})
	}
	return out
}

// product joins the cartesian product of alts, varying the last token
// fastest, and stops after limit strings.
func product(alts [][]string, limit int) []string {
	if len(alts) == 0 || limit <= 0 {
		return nil
	}
	idx := make([]int, len(alts))
	var out []string
	parts := make([]string, 0, len(alts))
	for {
		parts = parts[:0]
		for i, a := range alts {
			if a[idx[i]] != "" {
				parts = append(parts, a[idx[i]])
			}
		}
		if len(parts) > 0 {
			out = append(out, strings.Join(parts, " "))
			if len(out) >= limit {
				return out
			}
		}
		i := len(alts) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(alts[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

func splitAlphaNumeric(t string) string {
	var b strings.Builder
	var prev rune
	for i, r := range t {
		if i > 0 && ((unicode.IsDigit(prev) && unicode.IsLetter(r)) || (unicode.IsLetter(prev) && unicode.IsDigit(r))) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func trimLeadingZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}

var romanValues = map[rune]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}

func romanToInt(s string) int {
	total, prev := 0, 0
	rs := []rune(s)
	for i := len(rs) - 1; i >= 0; i-- {
		v := romanValues[rs[i]]
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total
}
