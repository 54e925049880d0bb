package models

import (
	"time"

	"github.com/address-dedupe/internal/dedupe"
)

// PairReview is a pair queued for a human decision.
type PairReview struct {
	ID         string         `bson:"_id" json:"id"`
	PairKey    string         `bson:"pair_key" json:"pair_key"`
	LeftID     string         `bson:"left_id" json:"left_id"`
	RightID    string         `bson:"right_id" json:"right_id"`
	Verdict    dedupe.Status  `bson:"verdict" json:"verdict"`
	Fields     []FieldVerdict `bson:"fields" json:"fields"`
	SharedKeys []string       `bson:"shared_keys,omitempty" json:"shared_keys,omitempty"`
	Source     string         `bson:"source" json:"source"`
	Status     string         `bson:"status" json:"status"`
	ReviewerID *string        `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time     `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
}

// Review status constants
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// NewPairReview queues a classified pair. id is assigned by the caller.
func NewPairReview(id string, p PairResult) *PairReview {
	return &PairReview{
		ID:         id,
		PairKey:    p.PairKey(),
		LeftID:     p.LeftID,
		RightID:    p.RightID,
		Verdict:    p.Status,
		Fields:     p.Fields,
		SharedKeys: p.SharedKeys,
		Source:     p.Source,
		Status:     ReviewStatusPending,
		CreatedAt:  time.Now(),
	}
}

// IsValidStatus checks Status against the known values.
func (pr *PairReview) IsValidStatus() bool {
	switch pr.Status {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Approve confirms the pair as duplicates.
func (pr *PairReview) Approve(reviewerID string) {
	pr.decide(ReviewStatusApproved, reviewerID)
}

// Reject marks the pair as distinct places.
func (pr *PairReview) Reject(reviewerID string) {
	pr.decide(ReviewStatusRejected, reviewerID)
}

func (pr *PairReview) decide(status, reviewerID string) {
	pr.Status = status
	pr.ReviewerID = &reviewerID
	now := time.Now()
	pr.ReviewedAt = &now
}

func (pr *PairReview) IsPending() bool {
	return pr.Status == ReviewStatusPending
}

func (pr *PairReview) IsCompleted() bool {
	return pr.Status == ReviewStatusApproved || pr.Status == ReviewStatusRejected
}
