package normalizer

import (
	"fmt"
	"strings"

	"github.com/address-dedupe/internal/address"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes Expand results of another Normalizer in an LRU. The
// classifiers themselves never cache; callers that normalize the same values
// over and over (batch dedupe) wrap their normalizer in this.
type Cached struct {
	inner address.Normalizer
	cache *lru.Cache[string, []string]
}

// NewCached wraps inner with an LRU of the given size.
func NewCached(inner address.Normalizer, size int) (*Cached, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("create expansion cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Expand returns a copy of the cached expansions.
func (c *Cached) Expand(value string, opts address.ExpandOptions, languages []string) []string {
	key := cacheKey(value, opts, languages)
	if v, ok := c.cache.Get(key); ok {
		return append([]string(nil), v...)
	}
	v := c.inner.Expand(value, opts, languages)
	c.cache.Add(key, v)
	return append([]string(nil), v...)
}

// Canonical is the first expansion, consistent with RuleNormalizer.
func (c *Cached) Canonical(value string, opts address.ExpandOptions, languages []string) string {
	key := "c\x00" + cacheKey(value, opts, languages)
	if v, ok := c.cache.Get(key); ok && len(v) == 1 {
		return v[0]
	}
	v := c.inner.Canonical(value, opts, languages)
	c.cache.Add(key, []string{v})
	return v
}

// Len is the number of cached entries.
func (c *Cached) Len() int { return c.cache.Len() }

func cacheKey(value string, opts address.ExpandOptions, languages []string) string {
	return fmt.Sprintf("%s\x00%+v\x00%s", value, opts, strings.Join(languages, ","))
}
