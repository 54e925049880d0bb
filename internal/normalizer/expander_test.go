package normalizer

import (
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *RuleNormalizer {
	t.Helper()
	n, err := NewDefaultRuleNormalizer()
	require.NoError(t, err)
	return n
}

func TestRuleNormalizer_Expand(t *testing.T) {
	n := newTestNormalizer(t)
	opts := address.DefaultExpandOptions()

	testCases := []struct {
		name      string
		input     string
		comps     address.Components
		languages []string
		contains  []string
	}{
		{
			name:     "street abbreviation",
			input:    "123 Main St.",
			comps:    address.ComponentStreet | address.ComponentHouseNumber,
			contains: []string{"123 main street", "123 main saint"},
		},
		{
			name:      "french",
			input:     "12 Bd Saint-Germain",
			comps:     address.ComponentStreet,
			languages: []string{"fr"},
			contains:  []string{"12 boulevard saint germain", "12 boulevard saintgermain"},
		},
		{
			name:     "accents",
			input:    "Hồ Chí Minh",
			comps:    address.ComponentToponym,
			contains: []string{"ho chi minh"},
		},
		{
			name:      "unit designator and roman numeral",
			input:     "Suite IV",
			comps:     address.ComponentUnit,
			languages: []string{"en"},
			contains:  []string{"iv", "4"},
		},
		{
			name:      "toponym keeps original",
			input:     "NY",
			comps:     address.ComponentToponym,
			languages: []string{"en"},
			contains:  []string{"new york", "ny"},
		},
		{
			name:      "numex",
			input:     "One Main Street",
			comps:     address.ComponentStreet,
			languages: []string{"en"},
			contains:  []string{"1 main street"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Expand(tc.input, opts.WithComponents(tc.comps), tc.languages)
			require.NotEmpty(t, got)
			for _, want := range tc.contains {
				assert.Contains(t, got, want)
			}
			t.Logf("%s -> %v", tc.input, got)
		})
	}
}

func TestRuleNormalizer_Canonical(t *testing.T) {
	n := newTestNormalizer(t)
	street := address.DefaultExpandOptions().WithComponents(address.ComponentStreet)
	name := address.DefaultExpandOptions().WithComponents(address.ComponentName)
	en := []string{"en"}

	assert.Equal(t, "maple street", n.Canonical("MAPLE ST.", street, en))
	assert.Equal(t, "saint mark", n.Canonical("St Mark's", name, en))
	assert.Equal(t, "", n.Canonical("   ", street, en))
	assert.Equal(t, n.Canonical("Wythe Ave", street, en), n.Canonical("wythe avenue", street, en))
}

func TestRuleNormalizer_OrdinalUnits(t *testing.T) {
	n := newTestNormalizer(t)
	level := address.DefaultExpandOptions().WithComponents(address.ComponentLevel)
	unit := address.DefaultExpandOptions().WithComponents(address.ComponentUnit)

	assert.Equal(t, []string{"3"}, n.Expand("3rd Floor", level, []string{"en"}))
	assert.Equal(t, []string{"0"}, n.Expand("Ground Floor", level, []string{"en"}))
	// letter suffixes are unit identifiers, not ordinals
	assert.Contains(t, n.Expand("Apt 5A", unit, []string{"en"}), "5a")
}

func TestRuleNormalizer_MaxExpansions(t *testing.T) {
	rules, err := LoadRulesConfig()
	require.NoError(t, err)
	n := NewRuleNormalizer(rules, 4)

	got := n.Expand("St St St St", address.DefaultExpandOptions(), nil)
	assert.LessOrEqual(t, len(got), 4)
}

func TestTokenize(t *testing.T) {
	testCases := []struct {
		input    string
		expected []string
	}{
		{"123 Main St.", []string{"123", "Main", "St"}},
		{"Apt #4", []string{"Apt", "#", "4"}},
		{"Smith & Sons", []string{"Smith", "&", "Sons"}},
		{"10-12 Rue", []string{"10-12", "Rue"}},
		{"Saint-Germain", []string{"Saint", "Germain"}},
		{"", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, Tokenize(tc.input))
		})
	}
}

func TestToLatinASCII(t *testing.T) {
	assert.Equal(t, "Montreal", ToLatinASCII("Montréal"))
	assert.Equal(t, "Strasse", ToLatinASCII("Straße"))
	assert.Equal(t, "ho chi minh", RemoveAccentsAndLowercase("Hồ Chí Minh"))
	assert.Equal(t, "da nang", RemoveAccentsAndLowercase("Đà Nẵng"))
	assert.Equal(t, "sao paulo", RemoveAccentsAndLowercase("SÃO PAULO"))
}
