package dedupe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Ordering(t *testing.T) {
	ordered := []Status{NullDuplicate, NonDuplicate, NeedsReview, LikelyDuplicate, ExactDuplicate}
	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i-1].Less(ordered[i]), "%s < %s", ordered[i-1], ordered[i])
	}
	assert.True(t, ExactDuplicate.IsDuplicate())
	assert.True(t, LikelyDuplicate.IsDuplicate())
	assert.False(t, NeedsReview.IsDuplicate())
	assert.False(t, NullDuplicate.IsDuplicate())
}

func TestStatus_Weakest(t *testing.T) {
	testCases := []struct {
		name     string
		input    []Status
		expected Status
	}{
		{"no input", nil, NullDuplicate},
		{"all null", []Status{NullDuplicate, NullDuplicate}, NullDuplicate},
		{"null ignored", []Status{ExactDuplicate, NullDuplicate, LikelyDuplicate}, LikelyDuplicate},
		{"non wins", []Status{ExactDuplicate, NonDuplicate, ExactDuplicate}, NonDuplicate},
		{"single", []Status{NeedsReview}, NeedsReview},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Weakest(tc.input...))
		})
	}
	assert.Equal(t, NeedsReview, Min(ExactDuplicate, NeedsReview))
}

func TestStatus_TextRoundTrip(t *testing.T) {
	b, err := json.Marshal(map[string]Status{"status": LikelyDuplicate})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"LIKELY_DUPLICATE"}`, string(b))

	var out map[string]Status
	require.NoError(t, json.Unmarshal([]byte(`{"status":"needs_review"}`), &out))
	assert.Equal(t, NeedsReview, out["status"])

	_, err = ParseStatus("MAYBE")
	assert.Error(t, err)
	assert.Equal(t, "Status(42)", Status(42).String())
}
