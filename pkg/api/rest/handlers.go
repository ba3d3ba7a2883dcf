package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/bbq/pkg/bbq"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/config"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/observability"
)

// Handler hosts a single in-memory bbq.Index and serves it over HTTP.
// Rebuilds replace the index pointer wholesale (the core has no in-place
// mutation); reads take a shared lock so concurrent searches never observe
// a half-built index.
type Handler struct {
	mu      sync.RWMutex
	index   *bbq.Index
	cfg     config.IndexConfig
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewHandler creates a new REST API handler with no index built yet.
func NewHandler(cfg config.IndexConfig, logger *observability.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{cfg: cfg, logger: logger, metrics: metrics}
}

type buildRequest struct {
	Vectors    [][]float32     `json:"vectors"`
	Similarity string          `json:"similarity"`
	Config     *configOverride `json:"config,omitempty"`
}

// configOverride carries per-request overrides of the server's configured
// IndexConfig. Fields are pointers so an absent field leaves the server
// default untouched, distinguishing "not specified" from an explicit zero.
type configOverride struct {
	QueryBits *int     `json:"query_bits,omitempty"`
	IndexBits *int     `json:"index_bits,omitempty"`
	Lambda    *float32 `json:"lambda,omitempty"`
	Iters     *int     `json:"iters,omitempty"`
	BatchSize *int     `json:"batch_size,omitempty"`
}

// apply merges the override's set fields onto cfg and returns the result.
func (o *configOverride) apply(cfg config.IndexConfig) config.IndexConfig {
	if o == nil {
		return cfg
	}
	if o.QueryBits != nil {
		cfg.QueryBits = *o.QueryBits
	}
	if o.IndexBits != nil {
		cfg.IndexBits = *o.IndexBits
	}
	if o.Lambda != nil {
		cfg.Lambda = *o.Lambda
	}
	if o.Iters != nil {
		cfg.Iters = *o.Iters
	}
	if o.BatchSize != nil {
		cfg.BatchSize = *o.BatchSize
	}
	return cfg
}

type buildResponse struct {
	Size       int    `json:"size"`
	Dimension  int    `json:"dimension"`
	Similarity string `json:"similarity"`
	BuildMs    int64  `json:"build_ms"`
}

type searchRequest struct {
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
}

type searchResultJSON struct {
	Ordinal uint32  `json:"ordinal"`
	Score   float32 `json:"score"`
}

type searchResponse struct {
	Results []searchResultJSON `json:"results"`
	TookMs  int64              `json:"took_ms"`
}

type statsResponse struct {
	Built      bool   `json:"built"`
	Size       int    `json:"size,omitempty"`
	Dimension  int    `json:"dimension,omitempty"`
	Similarity string `json:"similarity,omitempty"`
}

func parseSimilarity(s string) (bbq.Similarity, error) {
	switch s {
	case "", "euclidean":
		return bbq.Euclidean, nil
	case "cosine":
		return bbq.Cosine, nil
	case "maximum_inner_product", "mip":
		return bbq.MaximumInnerProduct, nil
	default:
		return 0, fmt.Errorf("unknown similarity %q", s)
	}
}

// HealthCheck handles GET /v1/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// GetStats handles GET /v1/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	idx := h.index
	h.mu.RUnlock()

	if idx == nil {
		writeJSON(w, statsResponse{Built: false}, http.StatusOK)
		return
	}

	writeJSON(w, statsResponse{
		Built:      true,
		Size:       idx.Size(),
		Dimension:  idx.Dimension(),
		Similarity: idx.Similarity().String(),
	}, http.StatusOK)
}

// Build handles POST /v1/build: quantizes the supplied vectors and atomically
// replaces the served index. There is no incremental insert path; rebuilding
// is the only way to change the index contents, per the core's lifecycle.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	similarity, err := parseSimilarity(req.Similarity)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := req.Config.apply(h.cfg)

	start := time.Now()
	idx, err := bbq.Build(req.Vectors, similarity, cfg.BBQConfig())
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("build", string(errorTag(err)))
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	duration := time.Since(start)

	h.mu.Lock()
	h.index = idx
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordBuild(similarity.String(), duration, idx.Size(), idx.Dimension())
	}
	if h.logger != nil {
		h.logger.Info("index built", map[string]interface{}{
			"size": idx.Size(), "dimension": idx.Dimension(), "similarity": similarity.String(),
			"duration": duration,
		})
	}

	writeJSON(w, buildResponse{
		Size:       idx.Size(),
		Dimension:  idx.Dimension(),
		Similarity: similarity.String(),
		BuildMs:    duration.Milliseconds(),
	}, http.StatusCreated)
}

// Search handles POST /v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	idx := h.index
	h.mu.RUnlock()

	if idx == nil {
		writeError(w, "index has not been built yet", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	results, err := idx.Search(req.Vector, req.K)
	duration := time.Since(start)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("search", string(errorTag(err)))
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSearch(duration, len(results))
	}

	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{Ordinal: r.Ordinal, Score: r.Score}
	}

	writeJSON(w, searchResponse{Results: out, TookMs: duration.Milliseconds()}, http.StatusOK)
}

func errorTag(err error) bbq.ErrorTag {
	if be, ok := err.(*bbq.Error); ok {
		return be.Tag
	}
	return "unknown"
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// ParseIntQuery parses an integer query parameter.
func ParseIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
