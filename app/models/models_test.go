package models

import (
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/stretchr/testify/assert"
)

func TestPairKey(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.NotEqual(t, PairKey("ab", "c"), PairKey("a", "bc"))
}

func TestPairReview_Lifecycle(t *testing.T) {
	p := PairResult{LeftID: "r1", RightID: "r2", Status: dedupe.NeedsReview, Source: SourceKey}
	pr := NewPairReview("id-1", p)

	assert.True(t, pr.IsPending())
	assert.True(t, pr.IsValidStatus())
	assert.Equal(t, p.PairKey(), pr.PairKey)
	assert.Equal(t, dedupe.NeedsReview, pr.Verdict)

	pr.Approve("reviewer-7")
	assert.True(t, pr.IsCompleted())
	assert.Equal(t, ReviewStatusApproved, pr.Status)
	assert.Equal(t, "reviewer-7", *pr.ReviewerID)
	assert.NotNil(t, pr.ReviewedAt)

	pr.Reject("reviewer-8")
	assert.Equal(t, ReviewStatusRejected, pr.Status)

	pr.Status = "bogus"
	assert.False(t, pr.IsValidStatus())
}

func TestRecord(t *testing.T) {
	r := Record{ID: "r1"}
	assert.True(t, r.IsEmpty())

	r.Raw = "  "
	assert.True(t, r.IsEmpty())

	r.Components = address.LabeledAddress{{Label: address.LabelName, Value: "Brooklyn Bowl"}}
	assert.False(t, r.IsEmpty())
	assert.Equal(t, "Brooklyn Bowl", r.Name())
}
