package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/address-dedupe/app/models"
	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/search"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// RecordIndexer is the search index behind name-candidate retrieval.
// search.RecordIndex implements it.
type RecordIndexer interface {
	CandidateSearcher
	ConfigureIndex() error
	IndexRecords(docs []search.Document) error
}

// AdminService seeds reference records into MongoDB and the search index and
// reports system statistics.
type AdminService struct {
	db     *mongo.Database
	index  RecordIndexer
	dedupe *DedupeService
	logger *zap.Logger
}

// RecordValidation is the outcome of ValidateRecords.
type RecordValidation struct {
	Passed   bool     `json:"passed"`
	Warnings []string `json:"warnings"`
}

// SeedResult summarizes SeedRecords.
type SeedResult struct {
	RecordsProcessed int   `json:"records_processed"`
	RecordsStored    int64 `json:"records_stored"`
	Indexed          int   `json:"indexed"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// SystemStats is the admin stats payload.
type SystemStats struct {
	Uptime         string                 `json:"uptime"`
	MemoryUsage    map[string]interface{} `json:"memory_usage"`
	Blocks         *BlockStats            `json:"blocks,omitempty"`
	PendingReviews int64                  `json:"pending_reviews"`
	StoredRecords  int64                  `json:"stored_records"`
}

// NewAdminService wires the admin operations. db and index may be nil.
func NewAdminService(db *mongo.Database, index RecordIndexer, dedupe *DedupeService, logger *zap.Logger) *AdminService {
	return &AdminService{
		db:     db,
		index:  index,
		dedupe: dedupe,
		logger: logger,
	}
}

// ValidateRecords reports duplicate IDs and records without address data.
func (as *AdminService) ValidateRecords(records []models.Record) *RecordValidation {
	warnings := make([]string, 0)
	if len(records) == 0 {
		return &RecordValidation{Passed: false, Warnings: []string{"no records to validate"}}
	}

	seenIDs := make(map[string]bool)
	for i, r := range records {
		if r.ID == "" {
			warnings = append(warnings, fmt.Sprintf("missing id at index %d", i))
		} else if seenIDs[r.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate id %s", r.ID))
		}
		seenIDs[r.ID] = true

		if r.IsEmpty() {
			warnings = append(warnings, fmt.Sprintf("record at index %d has no address data", i))
		}
	}

	return &RecordValidation{Passed: len(warnings) == 0, Warnings: warnings}
}

// SeedRecords stores reference records and indexes them for name search.
func (as *AdminService) SeedRecords(ctx context.Context, records []models.Record, configureIndex bool) (*SeedResult, error) {
	startTime := time.Now()

	validation := as.ValidateRecords(records)
	if !validation.Passed {
		return nil, fmt.Errorf("%w: %s", address.ErrInvalidInput, strings.Join(validation.Warnings, "; "))
	}

	res := &SeedResult{RecordsProcessed: len(records)}

	if as.db != nil {
		writes := make([]mongo.WriteModel, 0, len(records))
		for i := range records {
			writes = append(writes, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": records[i].ID}).
				SetReplacement(records[i]).
				SetUpsert(true))
		}
		bw, err := as.db.Collection("records").BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return nil, fmt.Errorf("failed to store records: %w", err)
		}
		res.RecordsStored = bw.UpsertedCount + bw.ModifiedCount
	}

	if as.index != nil {
		if configureIndex {
			if err := as.index.ConfigureIndex(); err != nil {
				as.logger.Warn("Failed to configure record index", zap.Error(err))
			}
		}
		docs := make([]search.Document, 0, len(records))
		for i := range records {
			doc, err := as.document(&records[i])
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		if err := as.index.IndexRecords(docs); err != nil {
			return nil, err
		}
		res.Indexed = len(docs)
	}

	res.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	as.logger.Info("Record seed completed",
		zap.Int("records_processed", res.RecordsProcessed),
		zap.Int64("records_stored", res.RecordsStored),
		zap.Int("indexed", res.Indexed),
		zap.Int64("processing_time_ms", res.ProcessingTimeMs))
	return res, nil
}

// document builds the search form of a record. Postcodes are upper-cased
// with single spaces to match search.FilterPostcode.
func (as *AdminService) document(r *models.Record) (search.Document, error) {
	p, err := as.dedupe.prepare(r, as.dedupe.cfg.Hashing)
	if err != nil {
		return search.Document{}, err
	}
	name := p.addr.First(address.LabelName)
	doc := search.Document{
		ID:          r.ID,
		Name:        name,
		Street:      p.addr.First(address.LabelRoad),
		HouseNumber: p.addr.First(address.LabelHouseNumber),
		City:        strings.ToLower(p.addr.First(address.LabelCity)),
		Postcode:    strings.ToUpper(strings.Join(strings.Fields(p.addr.First(address.LabelPostcode)), " ")),
		Keys:        p.keys,
	}
	if forms := as.dedupe.Names(name, p.langs, nil); len(forms) > 0 {
		doc.NameNormalized = forms[0]
	}
	return doc, nil
}

// ConfigureIndex applies the record index settings.
func (as *AdminService) ConfigureIndex() error {
	if as.index == nil {
		return ErrStoreUnavailable
	}
	return as.index.ConfigureIndex()
}

// SearchCandidates looks up records by name, optionally within a postcode.
func (as *AdminService) SearchCandidates(name, postcode string, limit int) ([]search.Candidate, error) {
	if as.index == nil {
		return nil, ErrStoreUnavailable
	}
	filter := ""
	if postcode != "" {
		filter = search.FilterPostcode(postcode)
	}
	return as.index.Candidates(name, filter, limit)
}

// ClearBlocks empties the blocking index.
func (as *AdminService) ClearBlocks(ctx context.Context) error {
	if as.dedupe.Blocks == nil {
		return ErrStoreUnavailable
	}
	return as.dedupe.Blocks.Clear(ctx)
}

// GetSystemStats collects uptime, memory, block and review counts.
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Uptime: time.Since(as.dedupe.GetStartTime()).Round(time.Second).String(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}

	if as.dedupe.Blocks != nil {
		bs, err := as.dedupe.Blocks.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read block stats: %w", err)
		}
		stats.Blocks = bs
	}
	if as.dedupe.Reviews != nil {
		_, pending, err := as.dedupe.Reviews.List(ctx, ReviewFilter{Status: models.ReviewStatusPending, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("failed to count reviews: %w", err)
		}
		stats.PendingReviews = pending
	}
	if as.db != nil {
		n, err := as.db.Collection("records").CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
		stats.StoredRecords = n
	}
	return stats, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
