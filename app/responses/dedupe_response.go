package responses

import (
	"github.com/address-dedupe/app/models"
	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
)

// StatusResponse carries a single classification.
type StatusResponse struct {
	Status dedupe.Status `json:"status"`
}

// FuzzyResponse carries a fuzzy verdict and the similarity behind it.
type FuzzyResponse struct {
	Status     dedupe.Status `json:"status"`
	Similarity float64       `json:"similarity"`
}

// ToponymResponse explains a toponym verdict level by level.
type ToponymResponse struct {
	Status dedupe.Status         `json:"status"`
	Levels []dedupe.LevelVerdict `json:"levels"`
}

// HashesResponse lists near-dupe keys. Components is set when the input was
// a raw address.
type HashesResponse struct {
	Keys       []string               `json:"keys"`
	Components address.LabeledAddress `json:"components,omitempty"`
}

type NamesResponse struct {
	Names []string `json:"names"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
}

type ExpandResponse struct {
	Expansions []string `json:"expansions"`
}

type ParseResponse struct {
	Components       address.LabeledAddress `json:"components"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
}

// BatchResponse wraps a synchronous batch result.
type BatchResponse struct {
	*models.BatchResult
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// JobResponse is returned when a job is submitted or polled.
type JobResponse struct {
	Job     *models.Job `json:"job"`
	Message string      `json:"message,omitempty"`
}

// BlockResponse lists the records stored under a key.
type BlockResponse struct {
	Key     string   `json:"key"`
	Members []string `json:"members"`
}

// ReviewListResponse pages through the review queue.
type ReviewListResponse struct {
	Reviews []*models.PairReview `json:"reviews"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// ReviewActionResponse confirms a review decision.
type ReviewActionResponse struct {
	Success   bool   `json:"success"`
	ReviewID  string `json:"review_id"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	UpdatedAt string `json:"updated_at"`
}
