package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/therealutkarshpriyadarshi/bbq/pkg/config"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/observability"
)

func testIndexConfig() config.IndexConfig {
	return config.IndexConfig{
		Dimensions: 8,
		QueryBits:  4,
		IndexBits:  1,
		Lambda:     0.1,
		Iters:      5,
		BatchSize:  1024,
	}
}

// testMetrics is shared by every handler under test: NewMetrics registers its
// collectors in the global Prometheus registry, so it can only be called once.
var testMetrics = observability.NewMetrics()

func newTestHandler() *Handler {
	return NewHandler(testIndexConfig(), observability.NewDefaultLogger(), testMetrics)
}

func sampleVectors() [][]float32 {
	return [][]float32{
		{1, 0, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 1, 0, 0, 0, 0},
	}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.HealthCheck, http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_StatsBeforeBuild(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.GetStats, http.MethodGet, "")
	var resp statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Built {
		t.Error("expected Built=false before any build")
	}
}

func TestHandler_BuildThenSearch(t *testing.T) {
	h := newTestHandler()

	buildBody, _ := json.Marshal(buildRequest{Vectors: sampleVectors(), Similarity: "cosine"})
	rec := doJSON(t, h.Build, http.MethodPost, string(buildBody))
	if rec.Code != http.StatusCreated {
		t.Fatalf("build: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var bresp buildResponse
	if err := json.NewDecoder(rec.Body).Decode(&bresp); err != nil {
		t.Fatalf("decode build response: %v", err)
	}
	if bresp.Size != 4 || bresp.Dimension != 8 {
		t.Errorf("unexpected build response: %+v", bresp)
	}

	statsRec := doJSON(t, h.GetStats, http.MethodGet, "")
	var stats statsResponse
	if err := json.NewDecoder(statsRec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if !stats.Built || stats.Size != 4 {
		t.Errorf("expected built index of size 4, got %+v", stats)
	}

	searchBody, _ := json.Marshal(searchRequest{Vector: []float32{1, 0, 0, 0, 0, 0, 0, 0}, K: 2})
	searchRec := doJSON(t, h.Search, http.MethodPost, string(searchBody))
	if searchRec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", searchRec.Code, searchRec.Body.String())
	}

	var sresp searchResponse
	if err := json.NewDecoder(searchRec.Body).Decode(&sresp); err != nil {
		t.Fatalf("decode search response: %v", err)
	}
	if len(sresp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(sresp.Results))
	}
	if sresp.Results[0].Score < sresp.Results[1].Score {
		t.Errorf("expected descending scores, got %v then %v", sresp.Results[0].Score, sresp.Results[1].Score)
	}
}

func TestHandler_BuildWithConfigOverride(t *testing.T) {
	h := newTestHandler()

	queryBits := 1
	buildBody, _ := json.Marshal(buildRequest{
		Vectors:    sampleVectors(),
		Similarity: "cosine",
		Config:     &configOverride{QueryBits: &queryBits},
	})
	rec := doJSON(t, h.Build, http.MethodPost, string(buildBody))
	if rec.Code != http.StatusCreated {
		t.Fatalf("build: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if h.cfg.QueryBits != 4 {
		t.Fatalf("server default QueryBits mutated by request override: %d", h.cfg.QueryBits)
	}

	searchBody, _ := json.Marshal(searchRequest{Vector: []float32{1, 0, 0, 0, 0, 0, 0, 0}, K: 1})
	searchRec := doJSON(t, h.Search, http.MethodPost, string(searchBody))
	if searchRec.Code != http.StatusOK {
		t.Fatalf("search after overridden build: expected 200, got %d: %s", searchRec.Code, searchRec.Body.String())
	}
}

func TestHandler_SearchBeforeBuild(t *testing.T) {
	h := newTestHandler()
	body, _ := json.Marshal(searchRequest{Vector: []float32{1, 0}, K: 1})
	rec := doJSON(t, h.Search, http.MethodPost, string(body))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before build, got %d", rec.Code)
	}
}

func TestHandler_BuildDimensionMismatch(t *testing.T) {
	h := newTestHandler()
	vectors := [][]float32{{1, 2, 3}, {4, 5}}
	body, _ := json.Marshal(buildRequest{Vectors: vectors, Similarity: "euclidean"})
	rec := doJSON(t, h.Build, http.MethodPost, string(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for dimension mismatch, got %d", rec.Code)
	}
}

func TestHandler_UnknownSimilarity(t *testing.T) {
	h := newTestHandler()
	body, _ := json.Marshal(buildRequest{Vectors: sampleVectors(), Similarity: "nonsense"})
	rec := doJSON(t, h.Build, http.MethodPost, string(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown similarity, got %d", rec.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler()
	rec := doJSON(t, h.HealthCheck, http.MethodPost, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestParseSimilarity(t *testing.T) {
	cases := map[string]bool{
		"":                      true,
		"euclidean":             true,
		"cosine":                true,
		"maximum_inner_product": true,
		"mip":                   true,
		"bogus":                 false,
	}
	for input, wantOK := range cases {
		_, err := parseSimilarity(input)
		if (err == nil) != wantOK {
			t.Errorf("parseSimilarity(%q): err=%v, want ok=%v", input, err, wantOK)
		}
	}
}
