package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/address-dedupe/app/models"
	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound is returned for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobStore keeps asynchronous batch jobs.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
}

// JobQueue hands job IDs from the API to workers.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
	// Dequeue blocks up to timeout; it returns "" when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// MemoryJobStore keeps jobs in process memory.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

var _ JobStore = (*MemoryJobStore)(nil)

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*models.Job)}
}

func (m *MemoryJobStore) Save(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MemoryJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// RedisJobStore stores jobs as JSON values and queues IDs on a list, so the
// API and cmd/worker can run as separate processes.
type RedisJobStore struct {
	client   *redis.Client
	prefix   string
	queueKey string
	ttl      time.Duration
}

var (
	_ JobStore = (*RedisJobStore)(nil)
	_ JobQueue = (*RedisJobStore)(nil)
)

func NewRedisJobStore(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{
		client:   client,
		prefix:   "dedupe:job:",
		queueKey: "dedupe:jobs",
		ttl:      24 * time.Hour,
	}
}

func (r *RedisJobStore) Save(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return r.client.Set(ctx, r.prefix+job.ID, data, r.ttl).Err()
}

func (r *RedisJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	val, err := r.client.Get(ctx, r.prefix+id).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	var job models.Job
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (r *RedisJobStore) Enqueue(ctx context.Context, jobID string) error {
	return r.client.LPush(ctx, r.queueKey, jobID).Err()
}

func (r *RedisJobStore) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := r.client.BRPop(ctx, timeout, r.queueKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value]
	return res[1], nil
}
