package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/address-dedupe/app/config"
	"github.com/address-dedupe/app/services"
	"github.com/address-dedupe/internal/dedupe"
	"github.com/address-dedupe/internal/neardupe"
	"github.com/address-dedupe/internal/normalizer"
	"github.com/address-dedupe/internal/parser"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	n, err := normalizer.NewDefaultRuleNormalizer()
	require.NoError(t, err)
	classifier, err := dedupe.NewClassifier(n, dedupe.DefaultOptions())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Languages = []string{"en"}
	svc, err := services.NewDedupeService(services.DedupeDeps{
		Classifier: classifier,
		Hasher:     neardupe.NewHasher(n, normalizer.NewDictionaryClassifier(n.Rules())),
		Normalizer: n,
		Parser:     parser.NewRuleParser(n.Rules()),
		Reviews:    services.NewMemoryReviewStore(),
	}, cfg, zap.NewNop())
	require.NoError(t, err)

	dc := NewDedupeController(svc, zap.NewNop())
	ac := NewAdminController(services.NewAdminService(nil, nil, svc, zap.NewNop()), zap.NewNop())

	r := gin.New()
	r.POST("/field", dc.ClassifyField)
	r.POST("/fuzzy", dc.ClassifyFuzzy)
	r.POST("/hashes", dc.Hashes)
	r.POST("/expand", dc.Expand)
	r.POST("/parse", dc.Parse)
	r.POST("/batch", dc.Batch)
	r.GET("/jobs/:jobID", dc.GetJob)
	r.GET("/blocks/*key", dc.GetBlock)
	r.GET("/reviews", dc.ListReviews)
	r.POST("/reviews/:id/approve", dc.ApproveReview)
	r.GET("/health", dc.HealthCheck)
	r.POST("/admin/search", ac.Search)
	r.GET("/admin/stats", ac.GetStats)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestDedupeController_Status(t *testing.T) {
	r := newTestRouter(t)

	testCases := []struct {
		name    string
		method  string
		path    string
		body    interface{}
		status  int
		errCode string
	}{
		{"field ok", http.MethodPost, "/field", gin.H{"value1": "Wythe Ave", "value2": "Wythe Avenue", "kind": "street"}, http.StatusOK, ""},
		{"field unknown kind", http.MethodPost, "/field", gin.H{"value1": "a", "value2": "b", "kind": "colour"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"field missing kind", http.MethodPost, "/field", gin.H{"value1": "a"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"fuzzy length mismatch", http.MethodPost, "/fuzzy", gin.H{"tokens1": []string{"a"}, "weights1": []float64{}, "kind": "name"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"hashes label mismatch", http.MethodPost, "/hashes", gin.H{"labels": []string{"road", "city"}, "values": []string{"Wythe Ave"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"expand unknown kind", http.MethodPost, "/expand", gin.H{"value": "Main St", "kind": "colour"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"parse blank", http.MethodPost, "/parse", gin.H{"address": "   "}, http.StatusBadRequest, "INVALID_INPUT"},
		{"batch empty", http.MethodPost, "/batch", gin.H{"records": []interface{}{}}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"job missing", http.MethodGet, "/jobs/nope", nil, http.StatusNotFound, "JOB_NOT_FOUND"},
		{"blocks unconfigured", http.MethodGet, "/blocks/a%7Cpc:11249%7C61%20wythe%20avenue", nil, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"review missing", http.MethodPost, "/reviews/nope/approve", gin.H{"reviewer_id": "sam"}, http.StatusNotFound, "REVIEW_NOT_FOUND"},
		{"search unconfigured", http.MethodPost, "/admin/search", gin.H{"name": "Brooklyn Bowl"}, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.errCode != "" {
				assert.Equal(t, tc.errCode, decode(t, w)["error"])
			}
		})
	}
}

func TestDedupeController_Field(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/field", gin.H{"value1": "MAPLE ST.", "value2": "Maple Street", "kind": "street"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EXACT_DUPLICATE", decode(t, w)["status"])

	w = doJSON(t, r, http.MethodPost, "/field", gin.H{"value1": "", "value2": "Maple Street", "kind": "street"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "NULL_DUPLICATE", decode(t, w)["status"])
}

func TestDedupeController_HashesFromRawAddress(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/hashes", gin.H{"address": "Brooklyn Bowl, 61 Wythe Ave, Brooklyn, NY 11249"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Contains(t, body["keys"], "na|pc:11249|brooklyn bowl|61 wythe avenue")
	assert.NotEmpty(t, body["components"])
}

func TestDedupeController_BatchAndReviews(t *testing.T) {
	r := newTestRouter(t)

	venue := func(id, name, street string) gin.H {
		return gin.H{"id": id, "components": []gin.H{
			{"label": "house", "value": name},
			{"label": "house_number", "value": "61"},
			{"label": "road", "value": street},
			{"label": "city", "value": "Brooklyn"},
			{"label": "postcode", "value": "11249"},
		}}
	}
	w := doJSON(t, r, http.MethodPost, "/batch", gin.H{
		"records": []gin.H{
			venue("r1", "Brooklyn Bowl", "Wythe Ave"),
			venue("r2", "Brooklyn Bowl", "Wythe Avenue"),
			venue("r5", "Brooklyn Bowling Alley", "Wythe Ave"),
		},
		"options": gin.H{"min_status": "NEEDS_REVIEW", "persist_reviews": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	pairs, ok := body["pairs"].([]interface{})
	require.True(t, ok)
	assert.Len(t, pairs, 3)
	assert.EqualValues(t, 2, body["reviews"])

	w = doJSON(t, r, http.MethodGet, "/reviews?status=pending&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 2, list["total"])
	reviews := list["reviews"].([]interface{})
	require.Len(t, reviews, 1)
	id := reviews[0].(map[string]interface{})["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/reviews/"+id+"/approve", gin.H{"reviewer_id": "sam"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approve", decode(t, w)["action"])
}

func TestDedupeController_Health(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	svcs := body["services"].(map[string]interface{})
	assert.Equal(t, "configured", svcs["reviews"])
	assert.Equal(t, "disabled", svcs["blocks"])

	w = doJSON(t, r, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Version, decode(t, w)["version"])
}
