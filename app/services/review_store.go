package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/address-dedupe/app/models"
)

// ErrReviewNotFound is returned for unknown review IDs.
var ErrReviewNotFound = errors.New("review not found")

// ReviewFilter selects reviews for List. An empty Status matches all.
type ReviewFilter struct {
	Status string
	Limit  int
	Offset int
}

// ReviewStore persists pairs awaiting a human decision. Saving a pair that
// is already queued keeps the existing review.
type ReviewStore interface {
	Save(ctx context.Context, reviews []*models.PairReview) (int, error)
	Get(ctx context.Context, id string) (*models.PairReview, error)
	List(ctx context.Context, filter ReviewFilter) ([]*models.PairReview, int64, error)
	Update(ctx context.Context, review *models.PairReview) error
}

// MemoryReviewStore is the process-local ReviewStore.
type MemoryReviewStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.PairReview
	byPair map[string]string
}

var _ ReviewStore = (*MemoryReviewStore)(nil)

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{
		byID:   make(map[string]*models.PairReview),
		byPair: make(map[string]string),
	}
}

func (m *MemoryReviewStore) Save(ctx context.Context, reviews []*models.PairReview) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, r := range reviews {
		if _, ok := m.byPair[r.PairKey]; ok {
			continue
		}
		cp := *r
		m.byID[r.ID] = &cp
		m.byPair[r.PairKey] = r.ID
		added++
	}
	return added, nil
}

func (m *MemoryReviewStore) Get(ctx context.Context, id string) (*models.PairReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

// List orders by creation time, then pair key.
func (m *MemoryReviewStore) List(ctx context.Context, filter ReviewFilter) ([]*models.PairReview, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.PairReview
	for _, r := range m.byID {
		if filter.Status == "" || r.Status == filter.Status {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].PairKey < matched[j].PairKey
	})

	total := int64(len(matched))
	return page(matched, filter.Offset, filter.Limit), total, nil
}

func (m *MemoryReviewStore) Update(ctx context.Context, review *models.PairReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[review.ID]; !ok {
		return ErrReviewNotFound
	}
	cp := *review
	m.byID[review.ID] = &cp
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
