package config

import (
	"fmt"
	"os"
	"time"

	"github.com/address-dedupe/internal/address"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/neardupe"
	"gopkg.in/yaml.v3"
)

// BatchCfg tunes DedupeBatch.
type BatchCfg struct {
	// MaxBlockSize skips blocks larger than this; huge blocks are keys too
	// generic to be useful and would dominate the pair count.
	MaxBlockSize int `yaml:"max_block_size" json:"max_block_size"`
	Workers      int `yaml:"workers" json:"workers"`
	// SearchCandidates is the number of name-search hits added per record
	// when the record index is available. 0 disables search fallback.
	SearchCandidates int `yaml:"search_candidates" json:"search_candidates"`
	// ReviewMin is the weakest pair verdict persisted for review.
	ReviewMin dedupe.Status `yaml:"review_min" json:"review_min"`
}

// DedupeCfg is the dedupe tuning file.
type DedupeCfg struct {
	UseLibpostal        bool             `yaml:"use_libpostal" json:"use_libpostal"`
	Languages           []string         `yaml:"languages" json:"languages"`
	MaxExpansions       int              `yaml:"max_expansions" json:"max_expansions"`
	NormalizerCacheSize int              `yaml:"normalizer_cache_size" json:"normalizer_cache_size"`
	Classifier          dedupe.Options   `yaml:"classifier" json:"classifier"`
	Hashing             neardupe.Options `yaml:"hashing" json:"hashing"`
	Batch               BatchCfg         `yaml:"batch" json:"batch"`
}

// C is the active configuration. It holds Default() until Load succeeds.
var C = Default()

// Default returns the built-in tuning.
func Default() DedupeCfg {
	return DedupeCfg{
		MaxExpansions:       64,
		NormalizerCacheSize: 50000,
		Classifier:          dedupe.DefaultOptions(),
		Hashing:             neardupe.DefaultOptions(),
		Batch: BatchCfg{
			MaxBlockSize:     200,
			Workers:          8,
			SearchCandidates: 0,
			ReviewMin:        dedupe.NeedsReview,
		},
	}
}

// Load reads path over the defaults and applies env overrides.
func Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := Parse(b)
	if err != nil {
		return err
	}
	C = cfg
	return nil
}

// Parse decodes a tuning file over Default(). Keys missing from the file keep
// their default value.
func Parse(b []byte) (DedupeCfg, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return DedupeCfg{}, err
	}
	// ENV overrides
	switch os.Getenv("USE_LIBPOSTAL") {
	case "0":
		cfg.UseLibpostal = false
	case "1":
		cfg.UseLibpostal = true
	}
	if err := cfg.Validate(); err != nil {
		return DedupeCfg{}, err
	}
	return cfg, nil
}

// Validate checks ranges the classifiers rely on.
func (c DedupeCfg) Validate() error {
	if err := c.Classifier.Fuzzy.Validate(); err != nil {
		return err
	}
	if c.MaxExpansions < 1 {
		return fmt.Errorf("%w: max_expansions must be positive", address.ErrInvalidInput)
	}
	if c.Batch.MaxBlockSize < 2 {
		return fmt.Errorf("%w: batch.max_block_size must be at least 2", address.ErrInvalidInput)
	}
	return c.Hashing.Validate()
}

func RequestTimeout() time.Duration { return 1500 * time.Millisecond }
