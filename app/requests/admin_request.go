package requests

import "github.com/address-dedupe/app/models"

// SeedRecordsRequest loads reference records into storage and the search index.
type SeedRecordsRequest struct {
	Records        []models.Record `json:"records" binding:"required,min=1"`
	ConfigureIndex bool            `json:"configure_index,omitempty"`
}

// SearchRequest looks up indexed records by name.
type SearchRequest struct {
	Name     string `json:"name" binding:"required"`
	Postcode string `json:"postcode,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}
