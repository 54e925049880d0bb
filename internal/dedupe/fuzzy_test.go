package dedupe

import (
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, words []string, weights []float64) []WeightedToken {
	t.Helper()
	out, err := NewWeightedTokens(words, weights)
	require.NoError(t, err)
	return out
}

func TestFuzzySimilarity(t *testing.T) {
	a := tokens(t, []string{"brooklyn", "bowl"}, []float64{1, 2})
	b := tokens(t, []string{"brooklyn", "pizza"}, []float64{1, 2})

	assert.InDelta(t, 1.0, FuzzySimilarity(a, a, 2), 1e-9)
	assert.InDelta(t, 2.0/6.0, FuzzySimilarity(a, b, 2), 1e-9)
	assert.Equal(t, FuzzySimilarity(a, b, 2), FuzzySimilarity(b, a, 2))
	assert.Zero(t, FuzzySimilarity(nil, a, 2))

	// short tokens get no edit budget
	st := tokens(t, []string{"st"}, []float64{1})
	sw := tokens(t, []string{"sw"}, []float64{1})
	assert.Zero(t, FuzzySimilarity(st, sw, 2))
}

func TestFuzzySimilarity_OneToOne(t *testing.T) {
	testCases := []struct {
		name     string
		t1, t2   []WeightedToken
		expected float64
	}{
		{
			name:     "repeated token",
			t1:       tokens(t, []string{"main"}, []float64{1}),
			t2:       tokens(t, []string{"main", "main", "main"}, []float64{1, 1, 1}),
			expected: 2.0 / 4.0,
		},
		{
			name:     "exact and near match compete for one token",
			t1:       tokens(t, []string{"brooklyn"}, []float64{1}),
			t2:       tokens(t, []string{"brooklyn", "brooklin"}, []float64{1, 1}),
			expected: 2.0 / 3.0,
		},
		{
			name:     "two near matches for one token",
			t1:       tokens(t, []string{"wythe", "bowl"}, []float64{1, 1}),
			t2:       tokens(t, []string{"wyth", "wythes"}, []float64{1, 1}),
			expected: 2.0 / 4.0,
		},
		{
			name:     "exact match preferred over near match",
			t1:       tokens(t, []string{"brooklyn", "brooklin"}, []float64{1, 3}),
			t2:       tokens(t, []string{"brooklin"}, []float64{2}),
			expected: 2 * 2.0 / 6.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FuzzySimilarity(tc.t1, tc.t2, 2)
			t.Logf("similarity %.4f", got)
			assert.InDelta(t, tc.expected, got, 1e-9)
			assert.Equal(t, got, FuzzySimilarity(tc.t2, tc.t1, 2))
		})
	}
}

func TestFuzzySimilarity_Symmetric(t *testing.T) {
	seqs := [][]WeightedToken{
		tokens(t, []string{"saint", "mary", "hospital"}, []float64{0.3, 1.7, 0.9}),
		tokens(t, []string{"st", "marys", "hosp"}, []float64{0.3, 1.2, 0.4}),
		tokens(t, []string{"mary", "mary", "hospitals"}, []float64{1.1, 0.5, 0.8}),
		tokens(t, []string{"marry", "hospital"}, []float64{2, 0.01}),
	}
	for i := range seqs {
		for j := range seqs {
			assert.Equal(t, FuzzySimilarity(seqs[i], seqs[j], 2), FuzzySimilarity(seqs[j], seqs[i], 2), "%d vs %d", i, j)
		}
	}
}

func TestClassifyFuzzy(t *testing.T) {
	c := newTestClassifier(t)
	en := []string{"en"}

	testCases := []struct {
		name     string
		t1, t2   []WeightedToken
		expected Status
	}{
		{
			name:     "transposed letters",
			t1:       tokens(t, []string{"Brooklyn", "Bowl"}, []float64{1, 1}),
			t2:       tokens(t, []string{"Brookyln", "Bowl"}, []float64{1, 1}),
			expected: ExactDuplicate,
		},
		{
			name:     "half the weight shared",
			t1:       tokens(t, []string{"brooklyn", "bowl"}, []float64{1, 1}),
			t2:       tokens(t, []string{"brooklyn", "pizza"}, []float64{1, 1}),
			expected: NeedsReview,
		},
		{
			name:     "nothing shared",
			t1:       tokens(t, []string{"joes", "pizza"}, []float64{1, 1}),
			t2:       tokens(t, []string{"starbucks"}, []float64{1}),
			expected: NonDuplicate,
		},
		{
			name:     "empty side",
			t1:       nil,
			t2:       tokens(t, []string{"starbucks"}, []float64{1}),
			expected: NullDuplicate,
		},
		{
			name:     "zero weights",
			t1:       tokens(t, []string{"a"}, []float64{0}),
			t2:       tokens(t, []string{"a"}, []float64{0}),
			expected: NullDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, sim := c.IsNameDuplicateFuzzy(tc.t1, tc.t2, en)
			assert.Equal(t, tc.expected, status, "similarity %.3f", sim)
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
		})
	}
}

func TestClassifyFuzzy_StreetCanonicalizes(t *testing.T) {
	c := newTestClassifier(t)
	t1 := tokens(t, []string{"Maple", "St"}, []float64{2, 0.2})
	t2 := tokens(t, []string{"maple", "street"}, []float64{2, 0.2})

	status, sim := c.IsStreetDuplicateFuzzy(t1, t2, []string{"en"})
	assert.Equal(t, ExactDuplicate, status)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestFuzzyOptions_StatusFor(t *testing.T) {
	o := DefaultFuzzyOptions()
	assert.Equal(t, ExactDuplicate, o.StatusFor(0.95))
	assert.Equal(t, LikelyDuplicate, o.StatusFor(0.6))
	assert.Equal(t, NeedsReview, o.StatusFor(0.3))
	assert.Equal(t, NonDuplicate, o.StatusFor(0.29))
	assert.Equal(t, o, FuzzyOptions{}.withDefaults())
}

func TestClassifyFuzzy_RepeatedTokensDoNotInflate(t *testing.T) {
	c := newTestClassifier(t)
	t1 := tokens(t, []string{"brooklyn"}, []float64{1})
	t2 := tokens(t, []string{"brooklyn", "brooklin"}, []float64{1, 1})

	status, sim := c.IsNameDuplicateFuzzy(t1, t2, []string{"en"})
	assert.Equal(t, LikelyDuplicate, status)
	assert.InDelta(t, 2.0/3.0, sim, 1e-9)
}

func TestFuzzyOptions_PartialUsesDefaults(t *testing.T) {
	c := newTestClassifier(t)
	t1 := tokens(t, []string{"alpha", "bravo", "charlie", "delta"}, []float64{1, 1, 1, 1})
	t2 := tokens(t, []string{"alpha", "xray", "yankee", "zulu"}, []float64{1, 1, 1, 1})

	partial := FuzzyOptions{LikelyDupeThreshold: 0.8}
	filled := partial.withDefaults()
	assert.Equal(t, 0.9, filled.ExactThreshold)
	assert.Equal(t, 0.8, filled.LikelyDupeThreshold)
	assert.Equal(t, 0.3, filled.NeedsReviewThreshold)
	assert.Equal(t, 2, filled.MaxEditDistance)

	status, sim := c.ClassifyFuzzy(t1, t2, FieldName, []string{"en"}, partial)
	assert.Equal(t, NonDuplicate, status)
	assert.InDelta(t, 0.25, sim, 1e-9)

	defStatus, _ := c.ClassifyFuzzy(t1, t2, FieldName, []string{"en"}, FuzzyOptions{})
	assert.Equal(t, defStatus, status)
}

func TestFuzzyOptions_Validate(t *testing.T) {
	testCases := []struct {
		name  string
		opts  FuzzyOptions
		valid bool
	}{
		{"zero value", FuzzyOptions{}, true},
		{"defaults", DefaultFuzzyOptions(), true},
		{"partial likely", FuzzyOptions{LikelyDupeThreshold: 0.8}, true},
		{"likely above default exact", FuzzyOptions{LikelyDupeThreshold: 0.95}, false},
		{"review above likely", FuzzyOptions{ExactThreshold: 0.9, LikelyDupeThreshold: 0.4, NeedsReviewThreshold: 0.5}, false},
		{"negative review", FuzzyOptions{NeedsReviewThreshold: -0.1}, false},
		{"no edit budget", FuzzyOptions{MaxEditDistance: -1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, address.ErrInvalidInput)
		})
	}
}

func TestFuzzyOptions_StricterThresholdsNeverUpgrade(t *testing.T) {
	loose := DefaultFuzzyOptions()
	strict := loose
	strict.ExactThreshold = 0.97
	strict.LikelyDupeThreshold = 0.75
	strict.NeedsReviewThreshold = 0.5

	for sim := 0.0; sim <= 1.0; sim += 0.05 {
		assert.False(t, loose.StatusFor(sim).Less(strict.StatusFor(sim)), "similarity %.2f", sim)
	}
}

func TestNewWeightedTokens_LengthMismatch(t *testing.T) {
	_, err := NewWeightedTokens([]string{"a", "b"}, []float64{1})
	assert.ErrorIs(t, err, address.ErrInvalidInput)
}
