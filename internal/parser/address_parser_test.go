package parser

import (
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *RuleParser {
	t.Helper()
	rules, err := normalizer.LoadRulesConfig()
	require.NoError(t, err)
	return NewRuleParser(rules)
}

func TestRuleParser_Parse(t *testing.T) {
	p := newTestParser(t)

	testCases := []struct {
		name     string
		raw      string
		language string
		expected address.LabeledAddress
	}{
		{
			name: "us venue",
			raw:  "Brooklyn Bowl, 61 Wythe Ave, Brooklyn, NY 11249, USA",
			expected: address.LabeledAddress{
				{Label: address.LabelName, Value: "Brooklyn Bowl"},
				{Label: address.LabelHouseNumber, Value: "61"},
				{Label: address.LabelRoad, Value: "Wythe Ave"},
				{Label: address.LabelCity, Value: "Brooklyn"},
				{Label: address.LabelState, Value: "NY"},
				{Label: address.LabelPostcode, Value: "11249"},
				{Label: address.LabelCountry, Value: "USA"},
			},
		},
		{
			name:     "unit inside the street segment",
			raw:      "123 Main St Apt 4, Springfield, IL 62701",
			language: "en",
			expected: address.LabeledAddress{
				{Label: address.LabelHouseNumber, Value: "123"},
				{Label: address.LabelRoad, Value: "Main St"},
				{Label: address.LabelUnit, Value: "Apt 4"},
				{Label: address.LabelCity, Value: "Springfield"},
				{Label: address.LabelState, Value: "IL"},
				{Label: address.LabelPostcode, Value: "62701"},
			},
		},
		{
			name: "german order",
			raw:  "Hauptstrasse 5, 10115 Berlin, Deutschland",
			expected: address.LabeledAddress{
				{Label: address.LabelHouseNumber, Value: "5"},
				{Label: address.LabelRoad, Value: "Hauptstrasse"},
				{Label: address.LabelCity, Value: "Berlin"},
				{Label: address.LabelPostcode, Value: "10115"},
				{Label: address.LabelCountry, Value: "Deutschland"},
			},
		},
		{
			name: "canadian postcode",
			raw:  "1234 Rue Sainte-Catherine O, Montréal, QC H3G 1P1, Canada",
			expected: address.LabeledAddress{
				{Label: address.LabelHouseNumber, Value: "1234"},
				{Label: address.LabelRoad, Value: "Rue Sainte-Catherine O"},
				{Label: address.LabelCity, Value: "Montréal"},
				{Label: address.LabelState, Value: "QC"},
				{Label: address.LabelPostcode, Value: "H3G 1P1"},
				{Label: address.LabelCountry, Value: "Canada"},
			},
		},
		{
			name:     "po box",
			raw:      "PO Box 42, Springfield, IL 62701",
			language: "en",
			expected: address.LabeledAddress{
				{Label: address.LabelPOBox, Value: "PO Box 42"},
				{Label: address.LabelCity, Value: "Springfield"},
				{Label: address.LabelState, Value: "IL"},
				{Label: address.LabelPostcode, Value: "62701"},
			},
		},
		{
			name:     "empty",
			raw:      " , ",
			expected: address.LabeledAddress{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Parse(tc.raw, tc.language, "")
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCoverage(t *testing.T) {
	p := newTestParser(t)
	raw := "Brooklyn Bowl, 61 Wythe Ave, Brooklyn, NY 11249, USA"

	assert.InDelta(t, 1.0, Coverage(raw, p.Parse(raw, "", "")), 1e-9)
	assert.Zero(t, Coverage("", nil))
	assert.InDelta(t, 0.5, Coverage("Main Street", address.LabeledAddress{{Label: address.LabelRoad, Value: "Main"}}), 1e-9)
}
