package dedupe

import (
	"fmt"
	"regexp"
	"strings"
)

// PostalRule recognizes one country's postal code format. Significant is the
// number of leading characters (spaces and hyphens removed) that identify the
// delivery area; a negative value drops that many trailing characters instead,
// for formats whose area code has variable length (GB outward code).
type PostalRule struct {
	Country     string `yaml:"country" json:"country"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Significant int    `yaml:"significant" json:"significant"`
}

type compiledPostalRule struct {
	PostalRule
	re *regexp.Regexp
}

// DefaultPostalRules covers the common formats. Order matters: plain five
// digit codes are shared by several countries and all use the full code.
func DefaultPostalRules() []PostalRule {
	return []PostalRule{
		{Country: "us", Pattern: `^\d{5}(?:[- ]?\d{4})?$`, Significant: 5},
		{Country: "br", Pattern: `^\d{5}-?\d{3}$`, Significant: 5},
		{Country: "ca", Pattern: `^[A-Z]\d[A-Z] ?\d[A-Z]\d$`, Significant: 3},
		{Country: "gb", Pattern: `^[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}$`, Significant: -3},
		{Country: "ie", Pattern: `^[A-Z]\d[\dW] ?[A-Z\d]{4}$`, Significant: 3},
		{Country: "nl", Pattern: `^\d{4} ?[A-Z]{2}$`, Significant: 4},
		{Country: "jp", Pattern: `^\d{3}-?\d{4}$`, Significant: 3},
		{Country: "pl", Pattern: `^\d{2}-?\d{3}$`, Significant: 5},
		{Country: "pt", Pattern: `^\d{4}-?\d{3}$`, Significant: 4},
	}
}

func compilePostalRules(rules []PostalRule) ([]compiledPostalRule, error) {
	out := make([]compiledPostalRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("postal rule %s: %w", r.Country, err)
		}
		out = append(out, compiledPostalRule{PostalRule: r, re: re})
	}
	return out, nil
}

func compactPostalCode(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.ToUpper(strings.TrimSpace(s)))
}

func (r compiledPostalRule) significantPrefix(compact string) string {
	n := r.Significant
	if n < 0 {
		n = len(compact) + n
	}
	if n <= 0 || n > len(compact) {
		return compact
	}
	return compact[:n]
}

// postalCodeStatus applies the first rule that recognizes both codes.
func (c *Classifier) postalCodeStatus(a, b string) (Status, bool) {
	ua, ub := strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	ca, cb := compactPostalCode(a), compactPostalCode(b)
	for _, r := range c.postal {
		if !r.re.MatchString(ua) || !r.re.MatchString(ub) {
			continue
		}
		switch {
		case ca == cb:
			return ExactDuplicate, true
		case r.significantPrefix(ca) == r.significantPrefix(cb):
			return LikelyDuplicate, true
		default:
			return NonDuplicate, true
		}
	}
	return NullDuplicate, false
}
