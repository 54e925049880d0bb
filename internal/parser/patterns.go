package parser

import (
	"regexp"
	"strings"

	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/normalizer"
)

var (
	reLeadingHouseNumber  = regexp.MustCompile(`^(\d+[A-Za-z]?(?:[-/]\d+[A-Za-z]?)?)\s+(.+)$`)
	reTrailingHouseNumber = regexp.MustCompile(`^(.*\D)\s+(\d+[A-Za-z]?(?:[-/]\d+)?)$`)
	reStateCode           = regexp.MustCompile(`^[A-Z]{2,3}$`)
)

// designators holds the tokenized designator phrases of the selected
// languages, longest first.
type designators struct {
	unit, level, poBox [][]string
}

func loadDesignators(rules *normalizer.RulesConfig, languages []string) designators {
	var d designators
	for _, l := range languages {
		r, ok := rules.Languages[l]
		if !ok {
			continue
		}
		d.unit = appendPhrases(d.unit, r.UnitDesignators)
		d.level = appendPhrases(d.level, r.LevelDesignators)
		d.poBox = appendPhrases(d.poBox, r.POBoxDesignators)
	}
	return d
}

func appendPhrases(dst [][]string, phrases []string) [][]string {
	for _, p := range phrases {
		t := normalizer.Tokenize(strings.ToLower(p))
		if len(t) == 0 {
			continue
		}
		i := 0
		for i < len(dst) && len(dst[i]) >= len(t) {
			i++
		}
		dst = append(dst, nil)
		copy(dst[i+1:], dst[i:])
		dst[i] = t
	}
	return dst
}

// startsWith returns the length of the longest phrase tokens starts with, or -1.
func startsWith(tokens []string, phrases [][]string) int {
	for _, p := range phrases {
		if len(p) > len(tokens) {
			continue
		}
		match := true
		for i := range p {
			if tokens[i] != p[i] {
				match = false
				break
			}
		}
		if match {
			return len(p)
		}
	}
	return -1
}

type postalMatcher struct {
	res []*regexp.Regexp
}

func newPostalMatcher() postalMatcher {
	var pm postalMatcher
	for _, r := range dedupe.DefaultPostalRules() {
		pm.res = append(pm.res, regexp.MustCompile(r.Pattern))
	}
	return pm
}

func (pm postalMatcher) match(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, re := range pm.res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// split separates a postal code from the place name next to it: trailing as
// in "NY 11211" or "Quebec H2X 1Y4", leading as in "10115 Berlin".
func (pm postalMatcher) split(seg string) (rest, postcode string, ok bool) {
	fields := strings.Fields(seg)
	for n := 2; n >= 1; n-- {
		if len(fields) <= n {
			continue
		}
		if code := strings.Join(fields[len(fields)-n:], " "); pm.match(code) {
			return strings.Join(fields[:len(fields)-n], " "), code, true
		}
		if code := strings.Join(fields[:n], " "); pm.match(code) {
			return strings.Join(fields[n:], " "), code, true
		}
	}
	return "", "", false
}
