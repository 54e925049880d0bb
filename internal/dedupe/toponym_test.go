package dedupe

import (
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyToponym(t *testing.T) {
	c := newTestClassifier(t)
	full := []string{"city", "state", "country"}

	testCases := []struct {
		name     string
		labels1  []string
		values1  []string
		labels2  []string
		values2  []string
		expected Status
	}{
		{
			name:    "country mismatch overrides city match",
			labels1: full, values1: []string{"Brooklyn", "NY", "USA"},
			labels2: full, values2: []string{"Brooklyn", "NY", "Canada"},
			expected: NonDuplicate,
		},
		{
			name:    "abbreviations agree",
			labels1: full, values1: []string{"Brooklyn", "NY", "USA"},
			labels2: full, values2: []string{"Brooklyn", "New York", "United States"},
			expected: ExactDuplicate,
		},
		{
			name:    "one-sided level caps the result",
			labels1: []string{"city"}, values1: []string{"Brooklyn"},
			labels2: []string{"city", "state"}, values2: []string{"Brooklyn", "NY"},
			expected: NeedsReview,
		},
		{
			name:    "no shared level",
			labels1: []string{"city"}, values1: []string{"Brooklyn"},
			labels2: []string{"country"}, values2: []string{"USA"},
			expected: NullDuplicate,
		},
		{
			name:    "repeated label takes best value",
			labels1: []string{"city", "city"}, values1: []string{"Manhattan", "New York"},
			labels2: []string{"city"}, values2: []string{"NYC"},
			expected: ExactDuplicate,
		},
		{
			name:    "postcode level",
			labels1: []string{"city", "postcode"}, values1: []string{"Brooklyn", "11211"},
			labels2: []string{"city", "postcode"}, values2: []string{"Brooklyn", "11211-4410"},
			expected: LikelyDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.ClassifyToponym(tc.labels1, tc.values1, tc.labels2, tc.values2, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)

			back, err := c.ClassifyToponym(tc.labels2, tc.values2, tc.labels1, tc.values1, nil)
			require.NoError(t, err)
			assert.Equal(t, got, back, "symmetry")
		})
	}
}

func TestClassifyToponym_LengthMismatch(t *testing.T) {
	c := newTestClassifier(t)
	_, err := c.ClassifyToponym([]string{"city", "state"}, []string{"Brooklyn"}, []string{"city"}, []string{"Brooklyn"}, nil)
	assert.ErrorIs(t, err, address.ErrInvalidInput)
}

func TestClassifyToponymAddress_Verdicts(t *testing.T) {
	c := newTestClassifier(t)
	a1 := address.LabeledAddress{{Label: address.LabelCity, Value: "Brooklyn"}, {Label: address.LabelCountry, Value: "USA"}}
	a2 := address.LabeledAddress{{Label: address.LabelCity, Value: "Brooklyn"}, {Label: address.LabelState, Value: "NY"}, {Label: address.LabelCountry, Value: "US"}}

	status, verdicts := c.ClassifyToponymAddress(a1, a2, []string{"en"})
	assert.Equal(t, NeedsReview, status)
	require.Len(t, verdicts, 3)
	assert.Equal(t, LevelVerdict{Level: "city", Status: ExactDuplicate, Shared: true}, verdicts[0])
	assert.Equal(t, LevelVerdict{Level: "state", Status: NeedsReview}, verdicts[1])
	assert.Equal(t, LevelVerdict{Level: "country", Status: ExactDuplicate, Shared: true}, verdicts[2])
}

func TestPlaceLanguages(t *testing.T) {
	testCases := []struct {
		name     string
		labels   []string
		values   []string
		expected []string
	}{
		{"city beats country", []string{"city", "country"}, []string{"Montréal", "Canada"}, []string{"fr"}},
		{"country only", []string{"country"}, []string{"Canada"}, []string{"en", "fr"}},
		{"state", []string{"state", "country"}, []string{"Québec", "Canada"}, []string{"fr"}},
		{"case and accents folded", []string{"city", "country"}, []string{"MONTRÉAL", "canada"}, []string{"fr"}},
		{"unknown", []string{"city"}, []string{"Atlantis"}, []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PlaceLanguages(tc.labels, tc.values)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	_, err := PlaceLanguages([]string{"city"}, nil)
	assert.ErrorIs(t, err, address.ErrInvalidInput)
}
