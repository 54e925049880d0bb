package dedupe

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/normalizer"
	"gopkg.in/yaml.v3"
)

//go:embed data/place_languages.yaml
var placeLanguagesYAML []byte

type placeEntry struct {
	Names     []string `yaml:"names"`
	Labels    []string `yaml:"labels"`
	Languages []string `yaml:"languages"`
}

type placeFile struct {
	Countries []placeEntry `yaml:"countries"`
	Places    []placeEntry `yaml:"places"`
}

// PlaceLanguageResolver infers the languages of a toponym from its labeled
// components. Sub-national places (Québec, Catalunya) take precedence over
// the country they belong to.
type PlaceLanguageResolver struct {
	countries map[string][]string
	places    map[address.Label]map[string][]string
}

// placeLabels are the labels that can carry language evidence, most
// specific first.
var placeLabels = []address.Label{
	address.LabelSuburb,
	address.LabelCityDistrict,
	address.LabelCity,
	address.LabelIsland,
	address.LabelStateDistrict,
	address.LabelState,
	address.LabelCountryRegion,
	address.LabelCountry,
}

var defaultResolver = mustDefaultResolver()

func mustDefaultResolver() *PlaceLanguageResolver {
	r, err := NewPlaceLanguageResolver(placeLanguagesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded place languages: %v", err))
	}
	return r
}

// DefaultPlaceLanguageResolver returns the resolver over the embedded table.
func DefaultPlaceLanguageResolver() *PlaceLanguageResolver { return defaultResolver }

// NewPlaceLanguageResolver parses a place language table.
func NewPlaceLanguageResolver(data []byte) (*PlaceLanguageResolver, error) {
	var f placeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse place languages: %w", err)
	}
	r := &PlaceLanguageResolver{
		countries: make(map[string][]string),
		places:    make(map[address.Label]map[string][]string),
	}
	for _, c := range f.Countries {
		for _, n := range c.Names {
			r.countries[placeKey(n)] = c.Languages
		}
	}
	for _, p := range f.Places {
		for _, l := range p.Labels {
			label := address.ParseLabel(l)
			if r.places[label] == nil {
				r.places[label] = make(map[string][]string)
			}
			for _, n := range p.Names {
				r.places[label][placeKey(n)] = p.Languages
			}
		}
	}
	return r, nil
}

// PlaceLanguages resolves with the embedded table.
func PlaceLanguages(labels, values []string) ([]string, error) {
	return defaultResolver.PlaceLanguages(labels, values)
}

// PlaceLanguages returns the sorted language codes implied by the toponyms.
// An empty result means "no evidence", not an error.
func (r *PlaceLanguageResolver) PlaceLanguages(labels, values []string) ([]string, error) {
	a, err := address.NewLabeledAddress(labels, values)
	if err != nil {
		return nil, err
	}
	return r.Resolve(a), nil
}

// Resolve is PlaceLanguages over a parsed address.
func (r *PlaceLanguageResolver) Resolve(a address.LabeledAddress) []string {
	set := make(map[string]struct{})
	for _, label := range placeLabels {
		byName := r.places[label]
		for _, v := range a.Values(label) {
			if langs, ok := byName[placeKey(v)]; ok {
				addAll(set, langs)
			}
		}
		if len(set) > 0 {
			return sortedKeys(set)
		}
	}
	for _, v := range a.Values(address.LabelCountry) {
		if langs, ok := r.countries[placeKey(v)]; ok {
			addAll(set, langs)
		}
	}
	return sortedKeys(set)
}

// IsCountry reports whether name is a known country name or code.
func (r *PlaceLanguageResolver) IsCountry(name string) bool {
	_, ok := r.countries[placeKey(name)]
	return ok
}

// IsPlace reports whether name is a known place carrying label.
func (r *PlaceLanguageResolver) IsPlace(label address.Label, name string) bool {
	_, ok := r.places[label][placeKey(name)]
	return ok
}

func placeKey(s string) string {
	return strings.Join(normalizer.Tokenize(normalizer.RemoveAccentsAndLowercase(s)), " ")
}

func addAll(set map[string]struct{}, langs []string) {
	for _, l := range langs {
		set[l] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
