package responses

import (
	"github.com/address-dedupe/app/services"
	"github.com/address-dedupe/internal/search"
)

// SeedRecordsResponse reports a seed or its dry run.
type SeedRecordsResponse struct {
	ValidationPassed bool                 `json:"validation_passed"`
	Warnings         []string             `json:"warnings,omitempty"`
	Result           *services.SeedResult `json:"result,omitempty"`
	DryRun           bool                 `json:"dry_run"`
	Message          string               `json:"message"`
}

type SearchResponse struct {
	Candidates []search.Candidate `json:"candidates"`
}

// SystemStatsResponse is the admin stats payload plus build information.
type SystemStatsResponse struct {
	*services.SystemStats
	Version     string `json:"version"`
	Environment string `json:"environment"`
}
