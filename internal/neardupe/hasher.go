// Package neardupe builds blocking keys: short strings that near-duplicate
// records are likely to share, so candidate pairs can be found with an exact
// key lookup before the pairwise classifiers run.
package neardupe

import (
	"strings"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/normalizer"
	"github.com/mmcloughlin/geohash"
)

// Key family prefixes.
const (
	FamilyNameAndAddress = "na"
	FamilyNameOnly       = "n"
	FamilyAddressOnly    = "a"
)

// Qualifier prefixes.
const (
	qualifierPostalCode = "pc"
	qualifierBoundary   = "bd"
	qualifierGeohash    = "gh"
)

// detectMinProb is the probability a detected language needs to be used.
const detectMinProb = 0.1

var neighborOrder = []geohash.Direction{
	geohash.North, geohash.NorthEast, geohash.East, geohash.SouthEast,
	geohash.South, geohash.SouthWest, geohash.West, geohash.NorthWest,
}

var cityLabels = []address.Label{address.LabelCity, address.LabelCityDistrict, address.LabelSuburb, address.LabelIsland}

// Hasher generates near-dupe keys. It is stateless apart from its
// collaborators and safe for concurrent use.
type Hasher struct {
	normalizer address.Normalizer
	detector   address.LanguageClassifier
	places     *dedupe.PlaceLanguageResolver
}

// NewHasher builds a hasher. detector may be nil, in which case languages
// come only from the caller or from place names.
func NewHasher(n address.Normalizer, detector address.LanguageClassifier) *Hasher {
	return &Hasher{normalizer: n, detector: detector, places: dedupe.DefaultPlaceLanguageResolver()}
}

// NearDupeHashesFromLabels is NearDupeHashes over parallel label/value lists.
func (h *Hasher) NearDupeHashesFromLabels(labels, values []string, geo GeoQualifier, opts Options, languages []string) ([]string, error) {
	a, err := address.NewLabeledAddress(labels, values)
	if err != nil {
		return nil, err
	}
	return h.NearDupeHashes(a, geo, opts, languages)
}

// NearDupeHashes returns the de-duplicated keys for a record, in a fixed
// order: family (name+address, name, address), then qualifier (postal code,
// boundaries, geohash cell and its eight neighbours), then core. The same
// input always yields the same sequence.
func (h *Hasher) NearDupeHashes(a address.LabeledAddress, geo GeoQualifier, opts Options, languages []string) ([]string, error) {
	if err := geo.validate(); err != nil {
		return nil, err
	}
	precision, err := opts.precision()
	if err != nil {
		return nil, err
	}
	if len(languages) == 0 {
		languages = h.DetectLanguages(a)
	}

	qualifiers := h.qualifiers(a, geo, opts, precision, languages)
	if len(qualifiers) == 0 {
		return []string{}, nil
	}

	var names, addrs []string
	if opts.WithName {
		names = h.nameCores(a, languages)
	}
	if opts.WithAddress {
		addrs = h.addressCores(a, opts, languages)
	}

	keys := newKeySet()
	if opts.NameAndAddressKeys {
		for _, q := range qualifiers {
			for _, n := range names {
				for _, ad := range addrs {
					keys.add(FamilyNameAndAddress, q, n+"|"+ad)
				}
			}
		}
	}
	if opts.NameOnlyKeys {
		for _, q := range qualifiers {
			for _, n := range names {
				keys.add(FamilyNameOnly, q, n)
			}
		}
	}
	if opts.AddressOnlyKeys {
		for _, q := range qualifiers {
			for _, ad := range addrs {
				keys.add(FamilyAddressOnly, q, ad)
			}
		}
	}
	return keys.list, nil
}

// NameHashes returns the normalized forms of a name, for blocking on names
// alone.
func (h *Hasher) NameHashes(name string, languages []string, opts NameOptions) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return []string{}
	}
	if opts.Components == address.ComponentNone {
		opts = opts.WithComponents(DefaultNameOptions().Components)
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, f := range h.normalizer.Expand(name, opts, languages) {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// DetectLanguages resolves languages from place names first, then from the
// script and vocabulary classifier.
func (h *Hasher) DetectLanguages(a address.LabeledAddress) []string {
	if langs := h.places.Resolve(a); len(langs) > 0 {
		return langs
	}
	if h.detector == nil {
		return nil
	}
	parts := make([]string, 0, len(a))
	for _, c := range a {
		parts = append(parts, c.Value)
	}
	return normalizer.TopLanguages(h.detector.Classify(strings.Join(parts, " ")), detectMinProb)
}

func (h *Hasher) qualifiers(a address.LabeledAddress, geo GeoQualifier, opts Options, precision uint, languages []string) []string {
	var out []string
	if opts.WithPostalCode {
		codes := a.Values(address.LabelPostcode)
		if geo.PostalCode != "" {
			codes = append([]string{geo.PostalCode}, codes...)
		}
		for _, pc := range codes {
			if v := postalQualifier(pc); v != "" {
				out = append(out, qualifierPostalCode+":"+v)
			}
		}
	}

	var boundaries []string
	if geo.ContainingBoundary != "" && (opts.WithCityOrEquivalent || opts.WithSmallContainingBoundaries) {
		boundaries = append(boundaries, geo.ContainingBoundary)
	}
	if opts.WithCityOrEquivalent {
		for _, l := range cityLabels {
			boundaries = append(boundaries, a.Values(l)...)
		}
	}
	if opts.WithSmallContainingBoundaries {
		boundaries = append(boundaries, a.Values(address.LabelStateDistrict)...)
	}
	toponym := dedupe.FieldToponym.ExpandOptions()
	for _, b := range boundaries {
		if v := h.canonical(b, toponym, languages); v != "" {
			out = append(out, qualifierBoundary+":"+v)
		}
	}

	if opts.WithLatLon && geo.hasLatLon() {
		cell := geohash.EncodeWithPrecision(*geo.Latitude, *geo.Longitude, precision)
		out = append(out, qualifierGeohash+":"+cell)
		for _, d := range neighborOrder {
			out = append(out, qualifierGeohash+":"+geohash.Neighbor(cell, d))
		}
	}
	return out
}

// postalQualifier keeps the code as written apart from case and spacing.
func postalQualifier(pc string) string {
	return strings.Join(strings.Fields(strings.ToLower(pc)), " ")
}

func (h *Hasher) nameCores(a address.LabeledAddress, languages []string) []string {
	opts := dedupe.FieldName.ExpandOptions()
	var out []string
	for _, v := range a.Values(address.LabelName) {
		if c := h.canonical(v, opts, languages); c != "" {
			out = append(out, c)
		}
	}
	return uniq(out)
}

// addressCores pairs every house number with every street. A record with a
// street but no house number has no address core; PO boxes stand in for the
// street when there is none.
func (h *Hasher) addressCores(a address.LabeledAddress, opts Options, languages []string) []string {
	houseOpts := dedupe.FieldHouseNumber.ExpandOptions()
	streetOpts := dedupe.FieldStreet.ExpandOptions()

	var numbers, streets []string
	for _, v := range a.Values(address.LabelHouseNumber) {
		if c := h.canonical(v, houseOpts, languages); c != "" {
			numbers = append(numbers, c)
		}
	}
	for _, v := range a.Values(address.LabelRoad) {
		if c := h.canonical(v, streetOpts, languages); c != "" {
			streets = append(streets, c)
		}
	}

	var cores []string
	if len(numbers) > 0 {
		for _, n := range uniq(numbers) {
			for _, s := range uniq(streets) {
				cores = append(cores, n+" "+s)
			}
		}
	}
	if len(streets) == 0 {
		poOpts := dedupe.FieldPOBox.ExpandOptions()
		for _, v := range a.Values(address.LabelPOBox) {
			if c := h.canonical(v, poOpts, languages); c != "" {
				cores = append(cores, "po box "+c)
			}
		}
	}

	if opts.WithUnit {
		suffix := h.unitSuffix(a, languages)
		if suffix != "" {
			for i := range cores {
				cores[i] += " " + suffix
			}
		}
	}
	return uniq(cores)
}

func (h *Hasher) unitSuffix(a address.LabeledAddress, languages []string) string {
	var parts []string
	if v := a.First(address.LabelUnit); v != "" {
		if c := h.canonical(v, dedupe.FieldUnit.ExpandOptions(), languages); c != "" {
			parts = append(parts, "u"+c)
		}
	}
	if v := a.First(address.LabelLevel); v != "" {
		if c := h.canonical(v, dedupe.FieldFloor.ExpandOptions(), languages); c != "" {
			parts = append(parts, "l"+c)
		}
	}
	return strings.Join(parts, " ")
}

func (h *Hasher) canonical(v string, opts address.ExpandOptions, languages []string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if c := h.normalizer.Canonical(v, opts, languages); c != "" {
		return c
	}
	return strings.ToLower(v)
}

type keySet struct {
	seen map[string]struct{}
	list []string
}

func newKeySet() *keySet {
	return &keySet{seen: make(map[string]struct{}), list: []string{}}
}

func (k *keySet) add(family, qualifier, core string) {
	key := family + "|" + qualifier + "|" + core
	if _, ok := k.seen[key]; ok {
		return
	}
	k.seen[key] = struct{}{}
	k.list = append(k.list, key)
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
