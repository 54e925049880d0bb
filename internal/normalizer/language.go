package normalizer

import (
	"sort"
	"unicode"

	"github.com/address-dedupe/internal/address"
)

var scriptLanguages = []struct {
	table *unicode.RangeTable
	langs []string
}{
	{unicode.Cyrillic, []string{"ru", "uk", "bg", "sr"}},
	{unicode.Greek, []string{"el"}},
	{unicode.Arabic, []string{"ar", "fa"}},
	{unicode.Hebrew, []string{"he"}},
	{unicode.Hangul, []string{"ko"}},
	{unicode.Hiragana, []string{"ja"}},
	{unicode.Katakana, []string{"ja"}},
	{unicode.Han, []string{"zh", "ja"}},
	{unicode.Thai, []string{"th"}},
	{unicode.Devanagari, []string{"hi"}},
	{unicode.Georgian, []string{"ka"}},
	{unicode.Armenian, []string{"hy"}},
}

// DictionaryClassifier guesses languages from the script of the input and,
// for Latin script, from which language dictionaries its tokens hit.
type DictionaryClassifier struct {
	rules *RulesConfig
}

var _ address.LanguageClassifier = (*DictionaryClassifier)(nil)

// NewDictionaryClassifier builds a classifier over the normalizer rules.
func NewDictionaryClassifier(rules *RulesConfig) *DictionaryClassifier {
	return &DictionaryClassifier{rules: rules}
}

// Classify returns language -> probability. An empty map means no evidence.
func (dc *DictionaryClassifier) Classify(raw string) map[string]float64 {
	counts := make(map[*unicode.RangeTable]int)
	latin := 0
	for _, r := range raw {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin++
			continue
		}
		for _, s := range scriptLanguages {
			if unicode.Is(s.table, r) {
				counts[s.table]++
				break
			}
		}
	}

	scores := make(map[string]float64)
	for _, s := range scriptLanguages {
		if n := counts[s.table]; n > 0 && n >= latin {
			for _, l := range s.langs {
				scores[l] += float64(n) / float64(len(s.langs))
			}
		}
	}
	if len(scores) == 0 && latin > 0 {
		dc.scoreLatin(raw, scores)
	}
	return normalizeScores(scores)
}

func (dc *DictionaryClassifier) scoreLatin(raw string, scores map[string]float64) {
	tokens := Tokenize(RemoveAccentsAndLowercase(raw))
	for _, lang := range dc.rules.LanguageCodes() {
		r := dc.rules.Languages[lang]
		vocab := languageVocabulary(r)
		for _, t := range tokens {
			if _, ok := vocab[t]; ok {
				scores[lang]++
			}
		}
	}
}

func languageVocabulary(r LanguageRules) map[string]struct{} {
	vocab := make(map[string]struct{})
	for _, d := range []map[string][]string{r.Street, r.Name, r.Unit, r.Level} {
		for k, vs := range d {
			if len(k) > 2 {
				vocab[k] = struct{}{}
			}
			for _, v := range vs {
				for _, t := range Tokenize(v) {
					if len(t) > 2 {
						vocab[t] = struct{}{}
					}
				}
			}
		}
	}
	for _, d := range [][]string{r.UnitDesignators, r.LevelDesignators, r.POBoxDesignators} {
		for _, p := range d {
			for _, t := range Tokenize(p) {
				if len(t) > 2 {
					vocab[t] = struct{}{}
				}
			}
		}
	}
	return vocab
}

func normalizeScores(scores map[string]float64) map[string]float64 {
	total := 0.0
	for _, v := range scores {
		total += v
	}
	out := make(map[string]float64, len(scores))
	if total == 0 {
		return out
	}
	for k, v := range scores {
		out[k] = v / total
	}
	return out
}

// TopLanguages returns the languages whose probability is at least minProb,
// most probable first, ties by code.
func TopLanguages(probs map[string]float64, minProb float64) []string {
	var out []string
	for l, p := range probs {
		if p >= minProb {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if probs[out[i]] != probs[out[j]] {
			return probs[out[i]] > probs[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
