package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/models"
	"github.com/address-dedupe/helpers/utils"
	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/neardupe"
	"github.com/address-dedupe/internal/parser"
	"github.com/address-dedupe/internal/search"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrStoreUnavailable is returned when an operation needs a store that was
// not configured.
var ErrStoreUnavailable = errors.New("store not configured")

// CandidateSearcher finds records with a similar name. search.RecordIndex
// implements it.
type CandidateSearcher interface {
	Candidates(name, filter string, limit int) ([]search.Candidate, error)
}

// DedupeDeps are the collaborators of DedupeService. Classifier, Hasher,
// Normalizer and Parser are required; the stores are optional.
type DedupeDeps struct {
	Classifier *dedupe.Classifier
	Hasher     *neardupe.Hasher
	Normalizer address.Normalizer
	Parser     address.Parser
	Searcher   CandidateSearcher
	Blocks     BlockStore
	Reviews    ReviewStore
	Jobs       JobStore
	Queue      JobQueue
}

// DedupeService exposes the classifiers and the hasher to the HTTP layer,
// the CLI and the worker, and runs batch deduplication.
type DedupeService struct {
	DedupeDeps
	cfg       config.DedupeCfg
	logger    *zap.Logger
	startTime time.Time
}

// NewDedupeService checks the required collaborators.
func NewDedupeService(deps DedupeDeps, cfg config.DedupeCfg, logger *zap.Logger) (*DedupeService, error) {
	if deps.Classifier == nil || deps.Hasher == nil || deps.Normalizer == nil || deps.Parser == nil {
		return nil, errors.New("dedupe service needs a classifier, hasher, normalizer and parser")
	}
	if deps.Jobs == nil {
		deps.Jobs = NewMemoryJobStore()
	}
	return &DedupeService{
		DedupeDeps: deps,
		cfg:        cfg,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// Config returns the tuning the service was built with.
func (s *DedupeService) Config() config.DedupeCfg { return s.cfg }

func (s *DedupeService) languages(langs []string) []string {
	if len(langs) > 0 {
		return langs
	}
	return s.cfg.Languages
}

// ClassifyField compares two values of the named field kind.
func (s *DedupeService) ClassifyField(value1, value2, kind string, languages []string) (dedupe.Status, error) {
	k, err := dedupe.ParseFieldKind(kind)
	if err != nil {
		return dedupe.NullDuplicate, err
	}
	return s.Classifier.ClassifyField(value1, value2, k, s.languages(languages)), nil
}

// ClassifyFuzzy compares two weighted token lists. opts nil means the
// configured thresholds.
func (s *DedupeService) ClassifyFuzzy(tokens1 []string, weights1 []float64, tokens2 []string, weights2 []float64, kind string, languages []string, opts *dedupe.FuzzyOptions) (dedupe.Status, float64, error) {
	k, err := dedupe.ParseFieldKind(kind)
	if err != nil {
		return dedupe.NullDuplicate, 0, err
	}
	wt1, err := dedupe.NewWeightedTokens(tokens1, weights1)
	if err != nil {
		return dedupe.NullDuplicate, 0, err
	}
	wt2, err := dedupe.NewWeightedTokens(tokens2, weights2)
	if err != nil {
		return dedupe.NullDuplicate, 0, err
	}
	o := s.Classifier.Options().Fuzzy
	if opts != nil {
		if err := opts.Validate(); err != nil {
			return dedupe.NullDuplicate, 0, err
		}
		o = *opts
	}
	status, sim := s.Classifier.ClassifyFuzzy(wt1, wt2, k, s.languages(languages), o)
	return status, sim, nil
}

// ClassifyToponym compares two toponym label/value lists and explains the
// verdict per level.
func (s *DedupeService) ClassifyToponym(labels1, values1, labels2, values2 []string, languages []string) (dedupe.Status, []dedupe.LevelVerdict, error) {
	a1, err := address.NewLabeledAddress(labels1, values1)
	if err != nil {
		return dedupe.NullDuplicate, nil, err
	}
	a2, err := address.NewLabeledAddress(labels2, values2)
	if err != nil {
		return dedupe.NullDuplicate, nil, err
	}
	status, verdicts := s.Classifier.ClassifyToponymAddress(a1, a2, s.languages(languages))
	return status, verdicts, nil
}

// Hashes returns the near-dupe keys of a labeled address. opts nil means
// the configured hashing options.
func (s *DedupeService) Hashes(labels, values []string, geo neardupe.GeoQualifier, opts *neardupe.Options, languages []string) ([]string, error) {
	a, err := address.NewLabeledAddress(labels, values)
	if err != nil {
		return nil, err
	}
	return s.hashes(a, geo, opts, languages)
}

func (s *DedupeService) hashes(a address.LabeledAddress, geo neardupe.GeoQualifier, opts *neardupe.Options, languages []string) ([]string, error) {
	o := s.cfg.Hashing
	if opts != nil {
		o = *opts
	}
	return s.Hasher.NearDupeHashes(a, geo, o, s.languages(languages))
}

// Names returns the normalized name forms used for name blocking.
func (s *DedupeService) Names(name string, languages []string, opts *neardupe.NameOptions) []string {
	o := neardupe.DefaultNameOptions()
	if opts != nil {
		o = *opts
	}
	return s.Hasher.NameHashes(name, s.languages(languages), o)
}

// Languages returns the languages implied by known place names.
func (s *DedupeService) Languages(labels, values []string) ([]string, error) {
	return dedupe.PlaceLanguages(labels, values)
}

// DetectLanguages resolves languages from place names, falling back to the
// script classifier.
func (s *DedupeService) DetectLanguages(labels, values []string) ([]string, error) {
	a, err := address.NewLabeledAddress(labels, values)
	if err != nil {
		return nil, err
	}
	langs := s.Hasher.DetectLanguages(a)
	if langs == nil {
		langs = []string{}
	}
	return langs, nil
}

// Expand returns every normalized form of value for the given components.
func (s *DedupeService) Expand(value string, components address.Components, languages []string) []string {
	opts := address.DefaultExpandOptions()
	if components != address.ComponentNone {
		opts = opts.WithComponents(components)
	}
	out := s.Normalizer.Expand(value, opts, s.languages(languages))
	if out == nil {
		out = []string{}
	}
	return out
}

// Parse labels a raw address.
func (s *DedupeService) Parse(raw, language, country string) (address.LabeledAddress, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty address", address.ErrInvalidInput)
	}
	return s.Parser.Parse(raw, language, country), nil
}

// ParseAndHash parses raw and hashes the result, for callers that only have
// address strings.
func (s *DedupeService) ParseAndHash(raw, language, country string, geo neardupe.GeoQualifier, opts *neardupe.Options) (address.LabeledAddress, []string, error) {
	a, err := s.Parse(raw, language, country)
	if err != nil {
		return nil, nil, err
	}
	var langs []string
	if language != "" {
		langs = []string{language}
	}
	keys, err := s.hashes(a, geo, opts, langs)
	if err != nil {
		return nil, nil, err
	}
	return a, keys, nil
}

// BatchOptions tunes one DedupeBatch call.
type BatchOptions struct {
	// Hashing overrides the configured hashing options.
	Hashing *neardupe.Options
	// MinStatus drops weaker pairs from the result.
	MinStatus dedupe.Status
	// PersistReviews saves reviewable pairs to the review store.
	PersistReviews bool
	// StoreBlocks mirrors the blocks into the block store.
	StoreBlocks bool
}

// prepared is a record with its parsed address and keys.
type prepared struct {
	rec   *models.Record
	addr  address.LabeledAddress
	langs []string
	keys  []string
}

type candidate struct {
	left, right int
	keys        []string
	source      string
}

// DedupeBatch finds and classifies duplicate pairs among records. Records
// are hashed, grouped by key, and every pair sharing a key (plus optional
// name-search hits) is classified. Pairs come back sorted by ID.
func (s *DedupeService) DedupeBatch(ctx context.Context, records []models.Record, opts BatchOptions) (*models.BatchResult, error) {
	start := time.Now()

	recs, err := assignIDs(records)
	if err != nil {
		return nil, err
	}
	hashOpts := s.cfg.Hashing
	if opts.Hashing != nil {
		hashOpts = *opts.Hashing
	}
	if err := hashOpts.Validate(); err != nil {
		return nil, err
	}

	items, err := s.prepareAll(ctx, recs, hashOpts)
	if err != nil {
		return nil, err
	}

	result := &models.BatchResult{Records: len(items)}
	blocks := groupBlocks(items)
	result.Keys = len(blocks)
	s.mirrorBlocks(ctx, blocks, items, opts.StoreBlocks)

	cands := make(map[string]*candidate)
	for _, key := range sortedBlockKeys(blocks) {
		members := blocks[key]
		if len(members) < 2 {
			continue
		}
		if len(members) > s.cfg.Batch.MaxBlockSize {
			result.SkippedBlocks++
			s.logger.Debug("Skipping oversized block", zap.String("key", key), zap.Int("size", len(members)))
			continue
		}
		result.Blocks++
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				addCandidate(cands, items, members[x], members[y], key, models.SourceKey)
			}
		}
	}
	s.searchCandidates(items, cands)

	ordered := orderCandidates(cands, items)
	result.Candidates = len(ordered)

	pairs, err := s.classifyAll(ctx, items, ordered)
	if err != nil {
		return nil, err
	}

	result.Pairs = []models.PairResult{}
	for _, p := range pairs {
		if p.Status >= opts.MinStatus {
			result.Pairs = append(result.Pairs, p)
		}
	}

	if opts.PersistReviews {
		n, err := s.persistReviews(ctx, pairs)
		if err != nil {
			return nil, err
		}
		result.Reviews = n
	}

	result.Duration = time.Since(start)
	s.logger.Info("Batch dedupe finished",
		zap.Int("records", result.Records),
		zap.Int("blocks", result.Blocks),
		zap.Int("skipped_blocks", result.SkippedBlocks),
		zap.Int("candidates", result.Candidates),
		zap.Int("pairs", len(result.Pairs)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// assignIDs copies records, filling missing IDs with UUIDs. Duplicate IDs
// are a caller error.
func assignIDs(records []models.Record) ([]models.Record, error) {
	out := make([]models.Record, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			r.ID = utils.GenerateUUID()
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate record id %q", address.ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
		out[i] = r
	}
	return out, nil
}

func (s *DedupeService) prepareAll(ctx context.Context, recs []models.Record, hashOpts neardupe.Options) ([]*prepared, error) {
	items := make([]*prepared, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	for i := range recs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.prepare(&recs[i], hashOpts)
			if err != nil {
				return err
			}
			items[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// minParseCoverage is the share of raw tokens below which a parse is logged
// as suspect.
const minParseCoverage = 0.5

func (s *DedupeService) prepare(rec *models.Record, hashOpts neardupe.Options) (*prepared, error) {
	p := &prepared{rec: rec, addr: rec.Components, langs: s.languages(rec.Languages)}
	if len(p.addr) == 0 && strings.TrimSpace(rec.Raw) != "" {
		lang := ""
		if len(p.langs) > 0 {
			lang = p.langs[0]
		}
		p.addr = s.Parser.Parse(rec.Raw, lang, "")
		coverage := parser.Coverage(rec.Raw, p.addr)
		if coverage < minParseCoverage {
			s.logger.Warn("Raw record parsed with low coverage",
				zap.String("record_id", rec.ID), zap.Float64("coverage", coverage))
		} else {
			s.logger.Debug("Parsed raw record",
				zap.String("record_id", rec.ID), zap.Float64("coverage", coverage))
		}
	}
	keys, err := s.Hasher.NearDupeHashes(p.addr, rec.Geo, hashOpts, p.langs)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	p.keys = keys
	return p, nil
}

func (s *DedupeService) workers() int {
	if s.cfg.Batch.Workers > 0 {
		return s.cfg.Batch.Workers
	}
	return 1
}

// groupBlocks maps each key to the indexes of the records that produced it,
// in input order.
func groupBlocks(items []*prepared) map[string][]int {
	blocks := make(map[string][]int)
	for i, it := range items {
		for _, k := range it.keys {
			blocks[k] = append(blocks[k], i)
		}
	}
	return blocks
}

func sortedBlockKeys(blocks map[string][]int) []string {
	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *DedupeService) mirrorBlocks(ctx context.Context, blocks map[string][]int, items []*prepared, enabled bool) {
	if !enabled || s.Blocks == nil {
		return
	}
	for _, key := range sortedBlockKeys(blocks) {
		ids := make([]string, 0, len(blocks[key]))
		for _, i := range blocks[key] {
			ids = append(ids, items[i].rec.ID)
		}
		if err := s.Blocks.Add(ctx, key, ids...); err != nil {
			s.logger.Warn("Failed to mirror block", zap.String("key", key), zap.Error(err))
			return
		}
	}
}

func addCandidate(cands map[string]*candidate, items []*prepared, i, j int, key, source string) {
	if items[j].rec.ID < items[i].rec.ID {
		i, j = j, i
	}
	pk := models.PairKey(items[i].rec.ID, items[j].rec.ID)
	c, ok := cands[pk]
	if !ok {
		c = &candidate{left: i, right: j, source: source}
		cands[pk] = c
	}
	if key != "" {
		c.keys = append(c.keys, key)
	}
}

// searchCandidates adds name-search hits inside the batch. Search is best
// effort; failures are logged and skipped.
func (s *DedupeService) searchCandidates(items []*prepared, cands map[string]*candidate) {
	if s.Searcher == nil || s.cfg.Batch.SearchCandidates <= 0 {
		return
	}
	byID := make(map[string]int, len(items))
	for i, it := range items {
		byID[it.rec.ID] = i
	}
	for i, it := range items {
		name := it.addr.First(address.LabelName)
		if name == "" {
			continue
		}
		filter := search.FilterExcludeID(it.rec.ID)
		if pc := it.addr.First(address.LabelPostcode); pc != "" {
			filter = search.FilterAnd(search.FilterPostcode(pc), filter)
		}
		hits, err := s.Searcher.Candidates(name, filter, s.cfg.Batch.SearchCandidates)
		if err != nil {
			s.logger.Warn("Candidate search failed", zap.String("record", it.rec.ID), zap.Error(err))
			continue
		}
		for _, h := range hits {
			j, ok := byID[h.ID]
			if !ok || j == i {
				continue
			}
			addCandidate(cands, items, i, j, "", models.SourceSearch)
		}
	}
}

func orderCandidates(cands map[string]*candidate, items []*prepared) []*candidate {
	out := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		la, lb := items[out[a].left].rec.ID, items[out[b].left].rec.ID
		if la != lb {
			return la < lb
		}
		return items[out[a].right].rec.ID < items[out[b].right].rec.ID
	})
	return out
}

func (s *DedupeService) classifyAll(ctx context.Context, items []*prepared, cands []*candidate) ([]models.PairResult, error) {
	pairs := make([]models.PairResult, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	for n, c := range cands {
		n, c := n, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := s.classifyPair(items[c.left], items[c.right])
			p.SharedKeys = c.keys
			p.Source = c.source
			pairs[n] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// pairFields are compared whenever both records carry the field.
var pairFields = []struct {
	label address.Label
	kind  dedupe.FieldKind
}{
	{address.LabelName, dedupe.FieldName},
	{address.LabelHouseNumber, dedupe.FieldHouseNumber},
	{address.LabelRoad, dedupe.FieldStreet},
	{address.LabelUnit, dedupe.FieldUnit},
	{address.LabelLevel, dedupe.FieldFloor},
	{address.LabelPOBox, dedupe.FieldPOBox},
}

// classifyPair takes the weakest verdict over the shared fields and the
// toponyms. Without a shared street address (house number and street) or PO
// box the pair can't be more than NeedsReview.
func (s *DedupeService) classifyPair(left, right *prepared) models.PairResult {
	langs := mergeLanguages(left.langs, right.langs)
	res := models.PairResult{LeftID: left.rec.ID, RightID: right.rec.ID, Fields: []models.FieldVerdict{}}

	statuses := make([]dedupe.Status, 0, len(pairFields)+1)
	have := make(map[dedupe.FieldKind]bool)
	for _, f := range pairFields {
		v1, v2 := left.addr.Values(f.label), right.addr.Values(f.label)
		if len(v1) == 0 || len(v2) == 0 {
			continue
		}
		st := s.Classifier.ClassifyValues(v1, v2, f.kind, langs)
		res.Fields = append(res.Fields, models.FieldVerdict{Field: f.kind, Status: st})
		statuses = append(statuses, st)
		have[f.kind] = true
	}

	topo, verdicts := s.Classifier.ClassifyToponymAddress(left.addr, right.addr, langs)
	res.Toponyms = verdicts
	statuses = append(statuses, topo)

	res.Status = dedupe.Weakest(statuses...)
	located := (have[dedupe.FieldHouseNumber] && have[dedupe.FieldStreet]) || have[dedupe.FieldPOBox]
	if res.Status != dedupe.NullDuplicate && !located {
		res.Status = dedupe.Min(res.Status, dedupe.NeedsReview)
	}
	return res
}

// mergeLanguages unions two language lists. Either side being unknown
// means all languages.
func mergeLanguages(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, l := range append(append([]string{}, a...), b...) {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// persistReviews queues pairs between ReviewMin and LikelyDuplicate. Exact
// duplicates need no human.
func (s *DedupeService) persistReviews(ctx context.Context, pairs []models.PairResult) (int, error) {
	if s.Reviews == nil {
		return 0, nil
	}
	var reviews []*models.PairReview
	for _, p := range pairs {
		if p.Status >= s.cfg.Batch.ReviewMin && p.Status <= dedupe.LikelyDuplicate {
			reviews = append(reviews, models.NewPairReview(utils.GenerateUUID(), p))
		}
	}
	if len(reviews) == 0 {
		return 0, nil
	}
	return s.Reviews.Save(ctx, reviews)
}

// GetBlock returns the record IDs stored under a near-dupe key.
func (s *DedupeService) GetBlock(ctx context.Context, key string) ([]string, error) {
	if s.Blocks == nil {
		return nil, ErrStoreUnavailable
	}
	return s.Blocks.Members(ctx, key)
}

// ListReviews pages through queued reviews.
func (s *DedupeService) ListReviews(ctx context.Context, filter ReviewFilter) ([]*models.PairReview, int64, error) {
	if s.Reviews == nil {
		return nil, 0, ErrStoreUnavailable
	}
	return s.Reviews.List(ctx, filter)
}

// DecideReview approves or rejects a queued pair.
func (s *DedupeService) DecideReview(ctx context.Context, id string, approve bool, reviewerID string) (*models.PairReview, error) {
	if s.Reviews == nil {
		return nil, ErrStoreUnavailable
	}
	r, err := s.Reviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if approve {
		r.Approve(reviewerID)
	} else {
		r.Reject(reviewerID)
	}
	if err := s.Reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SubmitJob stores a pending batch job. With a queue the job waits for a
// worker; otherwise it runs in this process.
func (s *DedupeService) SubmitJob(ctx context.Context, records []models.Record) (*models.Job, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", address.ErrInvalidInput)
	}
	job := models.NewJob(utils.GenerateUUID(), records)
	if err := s.Jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	if s.Queue != nil {
		if err := s.Queue.Enqueue(ctx, job.ID); err != nil {
			return nil, err
		}
	} else {
		go func() {
			if err := s.RunJob(context.Background(), job.ID); err != nil {
				s.logger.Error("Batch job failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}()
	}

	summary := job.Summary()
	return &summary, nil
}

// RunJob executes a stored job and records its outcome.
func (s *DedupeService) RunJob(ctx context.Context, id string) error {
	job, err := s.Jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Status = models.JobStatusRunning
	job.UpdatedAt = time.Now()
	if err := s.Jobs.Save(ctx, job); err != nil {
		return err
	}

	result, runErr := s.DedupeBatch(ctx, job.Records, BatchOptions{
		MinStatus:      dedupe.NeedsReview,
		PersistReviews: true,
		StoreBlocks:    true,
	})
	job.Records = nil
	job.UpdatedAt = time.Now()
	if runErr != nil {
		job.Status = models.JobStatusFailed
		job.Error = runErr.Error()
	} else {
		job.Status = models.JobStatusDone
		job.Result = result
	}
	if err := s.Jobs.Save(ctx, job); err != nil {
		return err
	}
	return runErr
}

// GetJob returns a job without its input records.
func (s *DedupeService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.Jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := job.Summary()
	return &summary, nil
}

// GetStartTime is used by the health check.
func (s *DedupeService) GetStartTime() time.Time {
	return s.startTime
}
