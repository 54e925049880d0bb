package neardupe

import (
	"strings"
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	n, err := normalizer.NewDefaultRuleNormalizer()
	require.NoError(t, err)
	return NewHasher(n, normalizer.NewDictionaryClassifier(n.Rules()))
}

func wytheAve(street string) address.LabeledAddress {
	return address.LabeledAddress{
		{Label: address.LabelName, Value: "Brooklyn Bowl"},
		{Label: address.LabelHouseNumber, Value: "61"},
		{Label: address.LabelRoad, Value: street},
		{Label: address.LabelCity, Value: "Brooklyn"},
		{Label: address.LabelPostcode, Value: "11249"},
	}
}

func geoOnly() Options {
	opts := DefaultOptions()
	opts.WithPostalCode = false
	opts.WithCityOrEquivalent = false
	return opts
}

func TestNearDupeHashes_NeighbourCells(t *testing.T) {
	h := newTestHasher(t)
	en := []string{"en"}

	// ~50m apart
	keys1, err := h.NearDupeHashes(wytheAve("Wythe Ave"), LatLon(40.72188, -73.95744), geoOnly(), en)
	require.NoError(t, err)
	keys2, err := h.NearDupeHashes(wytheAve("Wythe Avenue"), LatLon(40.72233, -73.95744), geoOnly(), en)
	require.NoError(t, err)

	require.NotEmpty(t, keys1)
	assert.NotEmpty(t, intersect(keys1, keys2))
}

func TestNearDupeHashes_Deterministic(t *testing.T) {
	h := newTestHasher(t)
	geo := LatLon(40.72188, -73.95744)
	geo.PostalCode = "11249"

	first, err := h.NearDupeHashes(wytheAve("Wythe Ave"), geo, DefaultOptions(), nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := h.NearDupeHashes(wytheAve("Wythe Ave"), geo, DefaultOptions(), nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, len(first), len(uniq(first)), "keys are de-duplicated")
}

func TestNearDupeHashes_KeyLayout(t *testing.T) {
	h := newTestHasher(t)
	opts := Options{
		WithName:           true,
		WithAddress:        true,
		WithPostalCode:     true,
		NameAndAddressKeys: true,
		NameOnlyKeys:       true,
		AddressOnlyKeys:    true,
	}

	keys, err := h.NearDupeHashes(wytheAve("Wythe Ave"), GeoQualifier{}, opts, []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"na|pc:11249|brooklyn bowl|61 wythe avenue",
		"n|pc:11249|brooklyn bowl",
		"a|pc:11249|61 wythe avenue",
	}, keys)
}

func TestNearDupeHashes_Qualifiers(t *testing.T) {
	h := newTestHasher(t)
	opts := Options{
		WithAddress:          true,
		WithCityOrEquivalent: true,
		WithLatLon:           true,
		GeohashPrecision:     5,
		AddressOnlyKeys:      true,
	}

	keys, err := h.NearDupeHashes(wytheAve("Wythe Ave"), LatLon(40.72188, -73.95744), opts, []string{"en"})
	require.NoError(t, err)
	require.Len(t, keys, 10, "city plus cell plus eight neighbours")
	assert.Equal(t, "a|bd:brooklyn|61 wythe avenue", keys[0])
	for _, k := range keys[1:] {
		parts := strings.Split(k, "|")
		require.Len(t, parts, 3)
		assert.True(t, strings.HasPrefix(parts[1], "gh:"))
		assert.Len(t, strings.TrimPrefix(parts[1], "gh:"), 5)
	}
}

func TestNearDupeHashes_NoQualifierNoKeys(t *testing.T) {
	h := newTestHasher(t)
	opts := Options{WithName: true, WithAddress: true, NameAndAddressKeys: true}

	keys, err := h.NearDupeHashes(wytheAve("Wythe Ave"), GeoQualifier{}, opts, nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNearDupeHashes_WithUnit(t *testing.T) {
	h := newTestHasher(t)
	opts := Options{WithAddress: true, WithUnit: true, WithPostalCode: true, AddressOnlyKeys: true}
	a := append(wytheAve("Wythe Ave"), address.Component{Label: address.LabelUnit, Value: "Apt 4B"})

	keys, err := h.NearDupeHashes(a, GeoQualifier{}, opts, []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a|pc:11249|61 wythe avenue u4b"}, keys)
}

func TestNearDupeHashes_InvalidInput(t *testing.T) {
	h := newTestHasher(t)

	opts := DefaultOptions()
	opts.GeohashPrecision = 13
	_, err := h.NearDupeHashes(wytheAve("Wythe Ave"), GeoQualifier{}, opts, nil)
	assert.ErrorIs(t, err, address.ErrInvalidInput)

	_, err = h.NearDupeHashes(wytheAve("Wythe Ave"), LatLon(91, 0), DefaultOptions(), nil)
	assert.ErrorIs(t, err, address.ErrInvalidInput)

	_, err = h.NearDupeHashesFromLabels([]string{"road", "city"}, []string{"Wythe Ave"}, GeoQualifier{}, DefaultOptions(), nil)
	assert.ErrorIs(t, err, address.ErrInvalidInput)
}

func TestNameHashes(t *testing.T) {
	h := newTestHasher(t)

	got := h.NameHashes("St Mary's Hospital", []string{"en"}, DefaultNameOptions())
	assert.Contains(t, got, "saint mary hospital")
	assert.Equal(t, got, h.NameHashes("St Mary's Hospital", []string{"en"}, DefaultNameOptions()))
	assert.Empty(t, h.NameHashes("  ", nil, DefaultNameOptions()))
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range b {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
