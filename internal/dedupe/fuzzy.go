package dedupe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/address-dedupe/internal/address"
	"github.com/agnivade/levenshtein"
)

// WeightedToken is a token and its discriminative weight (e.g. IDF).
type WeightedToken struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// NewWeightedTokens zips parallel token and weight slices.
func NewWeightedTokens(tokens []string, weights []float64) ([]WeightedToken, error) {
	if len(tokens) != len(weights) {
		return nil, fmt.Errorf("%w: %d tokens but %d weights", address.ErrInvalidInput, len(tokens), len(weights))
	}
	out := make([]WeightedToken, len(tokens))
	for i := range tokens {
		out[i] = WeightedToken{Token: tokens[i], Weight: weights[i]}
	}
	return out, nil
}

// FuzzyOptions maps a similarity to a Status. Zero fields take their
// defaults; a negative MaxEditDistance disables near matches.
type FuzzyOptions struct {
	ExactThreshold       float64 `yaml:"exact_threshold" json:"exact_threshold"`
	LikelyDupeThreshold  float64 `yaml:"likely_dupe_threshold" json:"likely_dupe_threshold"`
	NeedsReviewThreshold float64 `yaml:"needs_review_threshold" json:"needs_review_threshold"`
	MaxEditDistance      int     `yaml:"max_edit_distance" json:"max_edit_distance"`
}

// DefaultFuzzyOptions returns the default thresholds.
func DefaultFuzzyOptions() FuzzyOptions {
	return FuzzyOptions{
		ExactThreshold:       0.9,
		LikelyDupeThreshold:  0.6,
		NeedsReviewThreshold: 0.3,
		MaxEditDistance:      2,
	}
}

func (o FuzzyOptions) withDefaults() FuzzyOptions {
	d := DefaultFuzzyOptions()
	if o.ExactThreshold == 0 {
		o.ExactThreshold = d.ExactThreshold
	}
	if o.LikelyDupeThreshold == 0 {
		o.LikelyDupeThreshold = d.LikelyDupeThreshold
	}
	if o.NeedsReviewThreshold == 0 {
		o.NeedsReviewThreshold = d.NeedsReviewThreshold
	}
	switch {
	case o.MaxEditDistance == 0:
		o.MaxEditDistance = d.MaxEditDistance
	case o.MaxEditDistance < 0:
		o.MaxEditDistance = 0
	}
	return o
}

// Validate checks the thresholds after defaults are filled in.
func (o FuzzyOptions) Validate() error {
	o = o.withDefaults()
	if !(o.ExactThreshold >= o.LikelyDupeThreshold && o.LikelyDupeThreshold >= o.NeedsReviewThreshold) {
		return fmt.Errorf("%w: fuzzy thresholds must satisfy exact >= likely >= needs_review (got %.2f, %.2f, %.2f)",
			address.ErrInvalidInput, o.ExactThreshold, o.LikelyDupeThreshold, o.NeedsReviewThreshold)
	}
	if o.NeedsReviewThreshold < 0 {
		return fmt.Errorf("%w: fuzzy thresholds must not be negative", address.ErrInvalidInput)
	}
	return nil
}

// StatusFor maps a similarity onto the lattice.
func (o FuzzyOptions) StatusFor(similarity float64) Status {
	switch {
	case similarity >= o.ExactThreshold:
		return ExactDuplicate
	case similarity >= o.LikelyDupeThreshold:
		return LikelyDuplicate
	case similarity >= o.NeedsReviewThreshold:
		return NeedsReview
	default:
		return NonDuplicate
	}
}

// allowedDistance shrinks the edit budget for short tokens, where a single
// edit already changes meaning ("st" vs "sw").
func allowedDistance(a, b string, max int) int {
	n := utf8.RuneCountInString(a)
	if m := utf8.RuneCountInString(b); m < n {
		n = m
	}
	switch {
	case n <= 3:
		return 0
	case n <= 7:
		if max > 1 {
			return 1
		}
		return max
	default:
		return max
	}
}

func sanitizeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

type tokenMatch struct {
	i, j         int
	dist         int
	contribution float64
	wHi          float64
	tLo, tHi     string
}

// candidateMatches lists every token pair that may match: equal tokens, or
// tokens within the edit budget.
func candidateMatches(tokens1, tokens2 []WeightedToken, maxEditDistance int) []tokenMatch {
	var out []tokenMatch
	for i, a := range tokens1 {
		wa := sanitizeWeight(a.Weight)
		for j, b := range tokens2 {
			dist := 0
			if a.Token != b.Token {
				budget := allowedDistance(a.Token, b.Token, maxEditDistance)
				if budget == 0 {
					continue
				}
				dist = levenshtein.ComputeDistance(a.Token, b.Token)
				if dist > budget {
					continue
				}
			}
			wb := sanitizeWeight(b.Weight)
			m := tokenMatch{i: i, j: j, dist: dist, contribution: math.Min(wa, wb), wHi: math.Max(wa, wb), tLo: a.Token, tHi: b.Token}
			if m.tLo > m.tHi {
				m.tLo, m.tHi = m.tHi, m.tLo
			}
			out = append(out, m)
		}
	}
	return out
}

// matchedWeight pairs tokens one to one, greedily: closest first, then the
// larger contribution. Tie keys ignore which side a token came from, so the
// result does not depend on argument order.
func matchedWeight(tokens1, tokens2 []WeightedToken, maxEditDistance int) float64 {
	cands := candidateMatches(tokens1, tokens2, maxEditDistance)
	sort.SliceStable(cands, func(x, y int) bool {
		a, b := cands[x], cands[y]
		switch {
		case a.dist != b.dist:
			return a.dist < b.dist
		case a.contribution != b.contribution:
			return a.contribution > b.contribution
		case a.wHi != b.wHi:
			return a.wHi < b.wHi
		case a.tLo != b.tLo:
			return a.tLo < b.tLo
		default:
			return a.tHi < b.tHi
		}
	})

	used1 := make([]bool, len(tokens1))
	used2 := make([]bool, len(tokens2))
	sum := 0.0
	for _, m := range cands {
		if used1[m.i] || used2[m.j] {
			continue
		}
		used1[m.i], used2[m.j] = true, true
		sum += m.contribution
	}
	return sum
}

func totalWeight(tokens []WeightedToken) float64 {
	total := 0.0
	for _, t := range tokens {
		total += sanitizeWeight(t.Weight)
	}
	return total
}

// FuzzySimilarity is the weighted token overlap of two sequences in [0,1]:
// 2 * matched / (total1 + total2), each token matched at most once.
func FuzzySimilarity(tokens1, tokens2 []WeightedToken, maxEditDistance int) float64 {
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}
	total := totalWeight(tokens1) + totalWeight(tokens2)
	if total == 0 {
		return 0
	}
	sim := 2 * matchedWeight(tokens1, tokens2, maxEditDistance) / total
	if sim > 1 {
		sim = 1
	}
	return sim
}

// ClassifyFuzzy canonicalizes the tokens for the field kind and scores them.
// Either side empty yields (NullDuplicate, 0).
func (c *Classifier) ClassifyFuzzy(tokens1, tokens2 []WeightedToken, kind FieldKind, languages []string, opts FuzzyOptions) (Status, float64) {
	opts = opts.withDefaults()
	t1 := c.canonicalTokens(tokens1, kind, languages)
	t2 := c.canonicalTokens(tokens2, kind, languages)
	if len(t1) == 0 || len(t2) == 0 || totalWeight(t1) == 0 || totalWeight(t2) == 0 {
		return NullDuplicate, 0
	}
	sim := FuzzySimilarity(t1, t2, opts.MaxEditDistance)
	return opts.StatusFor(sim), sim
}

func (c *Classifier) IsNameDuplicateFuzzy(tokens1, tokens2 []WeightedToken, languages []string) (Status, float64) {
	return c.ClassifyFuzzy(tokens1, tokens2, FieldName, languages, c.opts.Fuzzy)
}

func (c *Classifier) IsStreetDuplicateFuzzy(tokens1, tokens2 []WeightedToken, languages []string) (Status, float64) {
	return c.ClassifyFuzzy(tokens1, tokens2, FieldStreet, languages, c.opts.Fuzzy)
}

func (c *Classifier) canonicalTokens(tokens []WeightedToken, kind FieldKind, languages []string) []WeightedToken {
	opts := kind.ExpandOptions()
	out := make([]WeightedToken, 0, len(tokens))
	for _, t := range tokens {
		raw := strings.TrimSpace(t.Token)
		if raw == "" {
			continue
		}
		canon := c.normalizer.Canonical(raw, opts, languages)
		if canon == "" {
			canon = strings.ToLower(raw)
		}
		out = append(out, WeightedToken{Token: canon, Weight: t.Weight})
	}
	return out
}
