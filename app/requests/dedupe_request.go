package requests

import (
	"github.com/address-dedupe/app/models"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/neardupe"
)

// FieldRequest compares two values of one field kind. Empty values are
// allowed and classify as NULL_DUPLICATE.
type FieldRequest struct {
	Value1    string   `json:"value1"`
	Value2    string   `json:"value2"`
	Kind      string   `json:"kind" binding:"required"` // name, street, house_number, unit, floor, po_box, postal_code, toponym
	Languages []string `json:"languages,omitempty"`
}

// FuzzyRequest compares two weighted token lists.
type FuzzyRequest struct {
	Tokens1   []string             `json:"tokens1"`
	Weights1  []float64            `json:"weights1"`
	Tokens2   []string             `json:"tokens2"`
	Weights2  []float64            `json:"weights2"`
	Kind      string               `json:"kind" binding:"required"`
	Languages []string             `json:"languages,omitempty"`
	Options   *dedupe.FuzzyOptions `json:"options,omitempty"`
}

// ToponymRequest compares two toponym label/value lists.
type ToponymRequest struct {
	Labels1   []string `json:"labels1"`
	Values1   []string `json:"values1"`
	Labels2   []string `json:"labels2"`
	Values2   []string `json:"values2"`
	Languages []string `json:"languages,omitempty"`
}

// HashesRequest asks for near-dupe keys. Either Labels/Values or a raw
// Address is given; the address is parsed first.
type HashesRequest struct {
	Labels    []string              `json:"labels,omitempty"`
	Values    []string              `json:"values,omitempty"`
	Address   string                `json:"address,omitempty"`
	Country   string                `json:"country,omitempty"`
	Geo       neardupe.GeoQualifier `json:"geo"`
	Options   *neardupe.Options     `json:"options,omitempty"`
	Languages []string              `json:"languages,omitempty"`
}

// NamesRequest asks for the normalized forms of a venue name.
type NamesRequest struct {
	Name      string   `json:"name" binding:"required"`
	Languages []string `json:"languages,omitempty"`
}

// LanguagesRequest resolves languages from toponyms. With Detect the script
// classifier is used when no place is known.
type LanguagesRequest struct {
	Labels []string `json:"labels" binding:"required"`
	Values []string `json:"values" binding:"required"`
	Detect bool     `json:"detect,omitempty"`
}

// ExpandRequest normalizes one value. Kind selects the field dictionaries.
type ExpandRequest struct {
	Value     string   `json:"value" binding:"required"`
	Kind      string   `json:"kind,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// ParseRequest labels a raw address.
type ParseRequest struct {
	Address  string `json:"address" binding:"required"`
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
}

// BatchRequest deduplicates records synchronously.
type BatchRequest struct {
	Records []models.Record `json:"records" binding:"required,min=1,max=20000"`
	Options BatchOptions    `json:"options,omitempty"`
}

// BatchOptions mirror services.BatchOptions.
type BatchOptions struct {
	Hashing        *neardupe.Options `json:"hashing,omitempty"`
	MinStatus      dedupe.Status     `json:"min_status,omitempty"`
	PersistReviews bool              `json:"persist_reviews,omitempty"`
	StoreBlocks    bool              `json:"store_blocks,omitempty"`
}

// JobRequest submits records for asynchronous deduplication.
type JobRequest struct {
	Records []models.Record `json:"records" binding:"required,min=1,max=200000"`
}

// ReviewDecisionRequest approves or rejects a queued pair.
type ReviewDecisionRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
}
