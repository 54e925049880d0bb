package normalizer

import (
	"sync/atomic"
	"testing"

	"github.com/address-dedupe/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNormalizer struct {
	inner address.Normalizer
	calls atomic.Int64
}

func (c *countingNormalizer) Expand(v string, o address.ExpandOptions, l []string) []string {
	c.calls.Add(1)
	return c.inner.Expand(v, o, l)
}

func (c *countingNormalizer) Canonical(v string, o address.ExpandOptions, l []string) string {
	c.calls.Add(1)
	return c.inner.Canonical(v, o, l)
}

func TestCached(t *testing.T) {
	counting := &countingNormalizer{inner: newTestNormalizer(t)}
	c, err := NewCached(counting, 16)
	require.NoError(t, err)

	opts := address.DefaultExpandOptions().WithComponents(address.ComponentStreet)
	en := []string{"en"}

	first := c.Expand("Main St", opts, en)
	first[0] = "mutated"
	second := c.Expand("Main St", opts, en)
	assert.Equal(t, "main street", second[0])
	assert.EqualValues(t, 1, counting.calls.Load())

	assert.Equal(t, "main street", c.Canonical("Main St", opts, en))
	assert.Equal(t, "main street", c.Canonical("Main St", opts, en))
	assert.EqualValues(t, 2, counting.calls.Load())

	// options are part of the key
	c.Expand("Main St", opts.WithComponents(address.ComponentName), en)
	assert.EqualValues(t, 3, counting.calls.Load())
	assert.Equal(t, 3, c.Len())

	_, err = NewCached(counting, 0)
	assert.Error(t, err)
}

func TestDictionaryClassifier(t *testing.T) {
	rules, err := LoadRulesConfig()
	require.NoError(t, err)
	dc := NewDictionaryClassifier(rules)

	langs := TopLanguages(dc.Classify("Москва, Тверская улица"), 0.1)
	assert.Contains(t, langs, "ru")

	langs = TopLanguages(dc.Classify("12 rue du Faubourg, appartement 3"), 0.1)
	require.NotEmpty(t, langs)
	assert.Equal(t, "fr", langs[0])

	assert.Empty(t, dc.Classify("12345"))
}
