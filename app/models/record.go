package models

import (
	"strings"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/neardupe"
)

// Record is one address record submitted for deduplication. Either
// Components or Raw must be set; Raw is parsed when Components is empty.
type Record struct {
	ID         string                 `json:"id" bson:"_id"`
	Raw        string                 `json:"raw,omitempty" bson:"raw,omitempty"`
	Components address.LabeledAddress `json:"components,omitempty" bson:"components,omitempty"`
	Geo        neardupe.GeoQualifier  `json:"geo,omitempty" bson:"geo,omitempty"`
	Languages  []string               `json:"languages,omitempty" bson:"languages,omitempty"`
}

// IsEmpty reports whether the record carries no address data at all.
func (r *Record) IsEmpty() bool {
	return len(r.Components) == 0 && strings.TrimSpace(r.Raw) == ""
}

// Name returns the venue name, if any.
func (r *Record) Name() string {
	return r.Components.First(address.LabelName)
}
