package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned by Candidates when there is nothing to search for.
var ErrEmptyQuery = errors.New("search query is empty")

// Config holds the Meilisearch connection and index settings.
type Config struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int
	BatchSize     int
}

// Document is the indexed form of a record. Keys are its near-dupe hashes.
type Document struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	NameNormalized string   `json:"name_normalized"`
	Street         string   `json:"street"`
	HouseNumber    string   `json:"house_number"`
	City           string   `json:"city"`
	Postcode       string   `json:"postcode"`
	Keys           []string `json:"keys"`
}

// Candidate is one search hit.
type Candidate struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RecordIndex finds candidate duplicates by name among indexed records. It
// complements the near-dupe keys for records whose keys don't collide, e.g.
// a misspelled street on one side.
type RecordIndex struct {
	client    meilisearch.ServiceManager
	logger    *zap.Logger
	indexName string
	limit     int
	batchSize int
}

// NewRecordIndex connects to Meilisearch and checks its health.
func NewRecordIndex(cfg Config, logger *zap.Logger) (*RecordIndex, error) {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to Meilisearch: %w", err)
	}

	limit := cfg.MaxCandidates
	if limit <= 0 {
		limit = 20
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	return &RecordIndex{
		client:    client,
		logger:    logger,
		indexName: cfg.IndexName,
		limit:     limit,
		batchSize: batch,
	}, nil
}

// ConfigureIndex applies searchable/filterable attributes and typo tolerance.
func (ri *RecordIndex) ConfigureIndex() error {
	index := ri.client.Index(ri.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "name_normalized", "street"},
		FilterableAttributes: []string{"id", "postcode", "city", "keys"},
		SortableAttributes:   []string{"id"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            []string{"the", "of", "and", "le", "la", "les", "de", "der", "die", "das"},
		Synonyms: map[string][]string{
			"st":  {"saint", "street"},
			"ave": {"avenue"},
			"&":   {"and"},
		},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to configure index %s: %w", ri.indexName, err)
	}

	ri.logger.Info("Configured record index", zap.String("index", ri.indexName), zap.Int64("task_uid", task.TaskUID))
	return nil
}

// IndexRecords adds or replaces documents in batches.
func (ri *RecordIndex) IndexRecords(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	index := ri.client.Index(ri.indexName)

	for _, b := range batches(len(docs), ri.batchSize) {
		task, err := index.AddDocuments(docs[b[0]:b[1]], "id")
		if err != nil {
			return fmt.Errorf("failed to add documents %d-%d: %w", b[0], b[1], err)
		}
		ri.logger.Debug("Indexed record batch",
			zap.Int("from", b[0]),
			zap.Int("to", b[1]),
			zap.Int64("task_uid", task.TaskUID))
	}

	ri.logger.Info("Indexed records", zap.Int("total_documents", len(docs)))
	return nil
}

// Candidates searches indexed names. filter is a Meilisearch filter
// expression (see the Filter helpers); limit <= 0 uses the configured cap.
func (ri *RecordIndex) Candidates(name, filter string, limit int) ([]Candidate, error) {
	if name == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = ri.limit
	}

	result, err := ri.client.Index(ri.indexName).Search(name, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", ri.indexName, err)
	}
	return parseHits(result.Hits), nil
}

func parseHits(hits []interface{}) []Candidate {
	out := make([]Candidate, 0, len(hits))
	for i, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := hitMap["id"].(string)
		if !ok || id == "" {
			continue
		}
		c := Candidate{ID: id}
		if name, ok := hitMap["name"].(string); ok {
			c.Name = name
		}
		// hits come back ranked; without a ranking score fall back to rank order
		if score, ok := hitMap["_rankingScore"].(float64); ok {
			c.Score = score
		} else {
			c.Score = 1 / float64(i+1)
		}
		out = append(out, c)
	}
	return out
}

func batches(n, size int) [][2]int {
	var out [][2]int
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{i, end})
	}
	return out
}
