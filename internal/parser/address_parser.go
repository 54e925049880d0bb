// Package parser is the built-in address parser used when libpostal is not
// compiled in. It reads comma-separated addresses ("name, 12 Main St, Apt 4,
// City, ST 12345, Country") with a handful of positional rules.
package parser

import (
	"strings"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/normalizer"
)

// RuleParser implements address.Parser. It is read-only after construction.
type RuleParser struct {
	places *dedupe.PlaceLanguageResolver
	postal postalMatcher
	all    designators
	byLang map[string]designators
}

var _ address.Parser = (*RuleParser)(nil)

// NewRuleParser builds a parser over the normalizer dictionaries.
func NewRuleParser(rules *normalizer.RulesConfig) *RuleParser {
	p := &RuleParser{
		places: dedupe.DefaultPlaceLanguageResolver(),
		postal: newPostalMatcher(),
		all:    loadDesignators(rules, rules.LanguageCodes()),
		byLang: make(map[string]designators),
	}
	for _, l := range rules.LanguageCodes() {
		p.byLang[l] = loadDesignators(rules, []string{l})
	}
	return p
}

type parsed struct {
	name, houseNumber, road, unit, level, poBox string
	localities                                   []string
	tailLocality, state, postcode, country       string
}

// Parse labels the comma separated parts of raw. language narrows the
// designator vocabulary; the country hint is not used by the rules.
func (p *RuleParser) Parse(raw, language, _ string) address.LabeledAddress {
	segs := splitSegments(raw)
	if len(segs) == 0 {
		return address.LabeledAddress{}
	}
	d := p.all
	if l, ok := p.byLang[strings.ToLower(language)]; ok {
		d = l
	}

	var r parsed
	end := p.parseTail(segs, &r)
	for _, seg := range segs[:end] {
		p.parseHead(seg, d, &r)
	}
	return r.labeled()
}

// parseTail consumes country, postcode and state from the end and returns
// the number of segments left for parseHead.
func (p *RuleParser) parseTail(segs []string, r *parsed) int {
	end := len(segs)
	if end > 1 && p.isCountry(segs[end-1]) {
		r.country = segs[end-1]
		end--
	}
	for end > 1 {
		seg := segs[end-1]
		switch {
		case r.postcode == "" && p.postal.match(seg):
			r.postcode = seg
		case r.postcode == "" && r.state == "":
			rest, code, ok := p.postal.split(seg)
			if !ok {
				if p.isState(seg) {
					r.state = seg
					break
				}
				return end
			}
			r.postcode = code
			switch {
			case rest == "":
			case p.isState(rest):
				r.state = rest
			default:
				r.tailLocality = rest
			}
		case r.state == "" && p.isState(seg):
			r.state = seg
		default:
			return end
		}
		end--
	}
	return end
}

// isCountry leaves two-letter codes such as "CA" to isState.
func (p *RuleParser) isCountry(seg string) bool {
	if len(seg) == 2 && reStateCode.MatchString(seg) {
		return false
	}
	return p.places.IsCountry(seg)
}

func (p *RuleParser) isState(seg string) bool {
	return reStateCode.MatchString(seg) || p.places.IsPlace(address.LabelState, seg)
}

func (p *RuleParser) parseHead(seg string, d designators, r *parsed) {
	tokens := normalizer.Tokenize(normalizer.RemoveAccentsAndLowercase(seg))
	if len(tokens) == 0 {
		return
	}

	switch {
	case startsWith(tokens, d.poBox) > 0 && strings.ContainsAny(seg, "0123456789"):
		r.poBox = seg
		return
	case startsWith(tokens, d.unit) > 0 && len(tokens) > 1:
		r.unit = seg
		return
	case startsWith(tokens, d.level) > 0 && len(tokens) > 1:
		r.level = seg
		return
	}

	if r.road == "" {
		if m := reLeadingHouseNumber.FindStringSubmatch(seg); m != nil {
			r.houseNumber = m[1]
			r.road, r.unit = p.splitUnit(m[2], d, r.unit)
			return
		}
		if m := reTrailingHouseNumber.FindStringSubmatch(seg); m != nil {
			r.road, r.houseNumber = strings.TrimSpace(m[1]), m[2]
			return
		}
		if r.name == "" && r.poBox == "" && len(r.localities) == 0 {
			r.name = seg
			return
		}
	}
	r.localities = append(r.localities, seg)
}

// splitUnit separates "Main St Apt 4" into road and unit.
func (p *RuleParser) splitUnit(road string, d designators, unit string) (string, string) {
	fields := strings.Fields(road)
	for i := 1; i < len(fields)-1; i++ {
		tokens := normalizer.Tokenize(strings.ToLower(strings.Join(fields[i:], " ")))
		if startsWith(tokens, d.unit) > 0 {
			return strings.Join(fields[:i], " "), strings.Join(fields[i:], " ")
		}
	}
	if i := strings.Index(road, "#"); i > 0 {
		return strings.TrimSpace(road[:i]), strings.TrimSpace(road[i:])
	}
	return road, unit
}

func (r parsed) labeled() address.LabeledAddress {
	out := address.LabeledAddress{}
	add := func(l address.Label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, address.Component{Label: l, Value: v})
		}
	}
	add(address.LabelName, r.name)
	add(address.LabelHouseNumber, r.houseNumber)
	add(address.LabelRoad, r.road)
	add(address.LabelUnit, r.unit)
	add(address.LabelLevel, r.level)
	add(address.LabelPOBox, r.poBox)
	localities := r.localities
	if r.tailLocality != "" {
		localities = append(localities, r.tailLocality)
	}
	if n := len(localities); n > 0 {
		for _, s := range localities[:n-1] {
			add(address.LabelSuburb, s)
		}
		add(address.LabelCity, localities[n-1])
	}
	add(address.LabelState, r.state)
	add(address.LabelPostcode, r.postcode)
	add(address.LabelCountry, r.country)
	return out
}

func splitSegments(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.Join(strings.Fields(part), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Coverage is the share of raw's tokens that ended up in a component.
func Coverage(raw string, a address.LabeledAddress) float64 {
	total := len(normalizer.Tokenize(raw))
	if total == 0 {
		return 0
	}
	covered := 0
	for _, c := range a {
		covered += len(normalizer.Tokenize(c.Value))
	}
	if covered > total {
		covered = total
	}
	return float64(covered) / float64(total)
}
