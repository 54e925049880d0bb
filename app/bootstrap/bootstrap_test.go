package bootstrap

import (
	"testing"

	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCore(t *testing.T) {
	cfg := config.Default()
	cfg.UseLibpostal = false

	deps, err := NewCore(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, deps.Classifier)
	require.NotNil(t, deps.Hasher)

	assert.Equal(t, dedupe.ExactDuplicate, deps.Classifier.ClassifyField("Wythe Ave", "Wythe Avenue", dedupe.FieldStreet, []string{"en"}))
	assert.Equal(t, "61", deps.Parser.Parse("61 Wythe Ave, Brooklyn, NY 11249", "en", "").First("house_number"))
}

func TestNewCore_BadCacheSize(t *testing.T) {
	cfg := config.Default()
	cfg.NormalizerCacheSize = 0

	_, err := NewCore(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestDatabaseName(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
	}{
		{"mongodb://localhost:27017/address_dedupe", "address_dedupe"},
		{"mongodb://user:pw@db:27017/records?authSource=admin", "records"},
		{"mongodb://localhost:27017", "address_dedupe"},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.expected, databaseName(tc.url))
		})
	}
}
