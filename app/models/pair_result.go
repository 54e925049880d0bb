package models

import (
	"time"

	"github.com/address-dedupe/internal/dedupe"
)

// Candidate sources.
const (
	SourceKey    = "near_dupe_key"
	SourceSearch = "name_search"
)

// FieldVerdict is the outcome for one field of a pair.
type FieldVerdict struct {
	Field  dedupe.FieldKind `json:"field" bson:"field"`
	Status dedupe.Status    `json:"status" bson:"status"`
}

// PairResult is the classified outcome of one candidate pair. LeftID sorts
// before RightID.
type PairResult struct {
	LeftID     string                `json:"left_id" bson:"left_id"`
	RightID    string                `json:"right_id" bson:"right_id"`
	Status     dedupe.Status         `json:"status" bson:"status"`
	Fields     []FieldVerdict        `json:"fields" bson:"fields"`
	Toponyms   []dedupe.LevelVerdict `json:"toponyms,omitempty" bson:"toponyms,omitempty"`
	SharedKeys []string              `json:"shared_keys,omitempty" bson:"shared_keys,omitempty"`
	Source     string                `json:"source" bson:"source"`
}

// PairKey identifies the unordered pair.
func (p *PairResult) PairKey() string {
	return PairKey(p.LeftID, p.RightID)
}

// PairKey joins two record IDs in sorted order.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x1f" + b
}

// BatchResult summarizes a DedupeBatch run.
type BatchResult struct {
	Records       int           `json:"records"`
	Keys          int           `json:"keys"`
	Blocks        int           `json:"blocks"`
	SkippedBlocks int           `json:"skipped_blocks"`
	Candidates    int           `json:"candidates"`
	Pairs         []PairResult  `json:"pairs"`
	Reviews       int           `json:"reviews"`
	Duration      time.Duration `json:"duration"`
}
