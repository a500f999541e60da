// Package server exposes the discovery engine over HTTP. Handlers stay
// thin: they validate and type request parameters at the boundary, delegate
// to the engine, and serialise results. Unknown query parameters are
// rejected rather than silently ignored.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/engine"
	"github.com/fernwehlabs/discovery/internal/search/index"
	"github.com/fernwehlabs/discovery/pkg/config"
	pkgerrors "github.com/fernwehlabs/discovery/pkg/errors"
	"github.com/fernwehlabs/discovery/pkg/kafka"
	"github.com/fernwehlabs/discovery/pkg/logger"
	"github.com/fernwehlabs/discovery/pkg/metrics"
)

// Handler serves the discovery API.
type Handler struct {
	engine       *engine.Engine
	cache        *ResultCache
	producer     *kafka.Producer
	metrics      *metrics.Metrics
	searchCfg    config.SearchConfig
	recommendMax int
	logger       *slog.Logger
}

// New creates a Handler. cache, producer, and m may be nil; the
// corresponding features are simply disabled.
func New(eng *engine.Engine, cache *ResultCache, producer *kafka.Producer, m *metrics.Metrics, searchCfg config.SearchConfig, recommendMax int) *Handler {
	return &Handler{
		engine:       eng,
		cache:        cache,
		producer:     producer,
		metrics:      m,
		searchCfg:    searchCfg,
		recommendMax: recommendMax,
		logger:       slog.Default().With("component", "api"),
	}
}

// Register installs all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/posts/{slug}/related", h.Related)
	mux.HandleFunc("GET /api/v1/graph", h.Graph)
	mux.HandleFunc("GET /api/v1/engine/status", h.EngineStatus)
	mux.HandleFunc("POST /api/v1/engine/rebuild", h.Rebuild)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
}

var searchParams = map[string]struct{}{
	"q": {}, "category": {}, "tags": {}, "location": {}, "language": {},
	"from": {}, "to": {}, "minReadingTime": {}, "maxReadingTime": {},
	"sort": {}, "limit": {}, "offset": {}, "highlight": {},
}

type searchResponse struct {
	Results      []searchHit `json:"results"`
	TotalMatched int         `json:"total_matched"`
}

type searchHit struct {
	index.ScoredPost
	Highlight *index.Highlighted `json:"highlight,omitempty"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context())

	if err := rejectUnknownParams(r, searchParams); err != nil {
		h.observeSearch("invalid", "none", start, 0)
		h.writeError(w, err)
		return
	}
	req, withHighlight, err := h.parseSearchRequest(r)
	if err != nil {
		h.observeSearch("invalid", "none", start, 0)
		h.writeError(w, err)
		return
	}

	compute := func() ([]byte, error) {
		result, err := h.engine.Search(r.Context(), *req)
		if err != nil {
			return nil, err
		}
		resp := searchResponse{
			Results:      make([]searchHit, 0, len(result.Results)),
			TotalMatched: result.TotalMatched,
		}
		for _, hit := range result.Results {
			sh := searchHit{ScoredPost: hit}
			if withHighlight {
				if hl, herr := h.engine.Highlight(hit.PostID, hit.MatchedTerms); herr == nil {
					sh.Highlight = &hl
				}
			}
			resp.Results = append(resp.Results, sh)
		}
		return json.Marshal(resp)
	}

	var payload []byte
	cacheStatus := "bypass"
	if h.cache != nil {
		var hit bool
		payload, hit, err = h.cache.GetOrCompute(r.Context(), searchCacheKey(r), compute)
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	} else {
		payload, err = compute()
	}
	if err != nil {
		h.observeSearch(outcomeOf(err), cacheStatus, start, 0)
		h.writeError(w, err)
		return
	}

	var decoded searchResponse
	_ = json.Unmarshal(payload, &decoded)
	h.observeSearch(searchOutcome(decoded.TotalMatched), cacheStatus, start, len(decoded.Results))
	log.Info("search completed",
		"query", req.Query,
		"total_matched", decoded.TotalMatched,
		"returned", len(decoded.Results),
		"cache", cacheStatus,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeRaw(w, http.StatusOK, payload)
}

var relatedParams = map[string]struct{}{
	"count": {}, "exclude": {},
}

func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context())

	if err := rejectUnknownParams(r, relatedParams); err != nil {
		h.writeError(w, err)
		return
	}
	slug := r.PathValue("slug")
	count := 5
	if v := r.URL.Query().Get("count"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, pkgerrors.New(pkgerrors.ErrInvalidQuery, 400, "count must be a positive integer"))
			return
		}
		if parsed > h.recommendMax {
			parsed = h.recommendMax
		}
		count = parsed
	}
	var exclude []string
	if v := r.URL.Query().Get("exclude"); v != "" {
		exclude = strings.Split(v, ",")
	}

	compute := func() ([]byte, error) {
		candidates, err := h.engine.Recommend(r.Context(), slug, count, exclude)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"recommendations": candidates})
	}

	var payload []byte
	var err error
	if h.cache != nil {
		key := CacheKey("related", fmt.Sprintf("%s|%d|%s", slug, count, strings.Join(exclude, ",")))
		payload, _, err = h.cache.GetOrCompute(r.Context(), key, compute)
	} else {
		payload, err = compute()
	}
	if err != nil {
		h.observeRecommend(outcomeOf(err), start)
		h.writeError(w, err)
		return
	}
	h.observeRecommend("ok", start)
	log.Info("recommendations served",
		"slug", slug,
		"count", count,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeRaw(w, http.StatusOK, payload)
}

var graphParams = map[string]struct{}{"format": {}}

func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	if err := rejectUnknownParams(r, graphParams); err != nil {
		h.writeError(w, err)
		return
	}
	format := engine.GraphFormat(r.URL.Query().Get("format"))
	view, err := h.engine.KnowledgeGraph(format)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) EngineStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.CurrentStatus())
}

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	start := time.Now()
	if err := h.engine.Rebuild(r.Context()); err != nil {
		log.Error("rebuild failed", "error", err)
		h.writeError(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			log.Error("cache invalidation after rebuild failed", "error", err)
		}
	}
	if h.producer != nil {
		event := kafka.Event{
			Key:   "rebuild",
			Value: h.engine.CurrentStatus(),
		}
		if err := h.producer.Publish(r.Context(), event); err != nil {
			log.Error("publishing rebuild-complete event failed", "error", err)
		}
	}
	log.Info("rebuild completed", "took", time.Since(start).Round(time.Millisecond))
	h.writeJSON(w, http.StatusOK, h.engine.CurrentStatus())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// parseSearchRequest types and validates every recognised parameter.
func (h *Handler) parseSearchRequest(r *http.Request) (*index.Request, bool, error) {
	q := r.URL.Query()
	req := &index.Request{
		Query:  q.Get("q"),
		SortBy: index.Sort(q.Get("sort")),
		Limit:  h.searchCfg.DefaultLimit,
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, false, pkgerrors.New(pkgerrors.ErrInvalidQuery, 400, "query parameter 'q' is required")
	}
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, false, pkgerrors.New(pkgerrors.ErrInvalidQuery, 400, "limit must be a positive integer")
		}
		if parsed > h.searchCfg.MaxResults {
			parsed = h.searchCfg.MaxResults
		}
		req.Limit = parsed
	}
	if v := q.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, false, pkgerrors.New(pkgerrors.ErrInvalidQuery, 400, "offset must be non-negative")
		}
		req.Offset = parsed
	}

	f := &req.Filters
	f.Category = q.Get("category")
	f.Location = q.Get("location")
	if v := q.Get("tags"); v != "" {
		f.Tags = strings.Split(v, ",")
	}
	if v := q.Get("language"); v != "" {
		f.Language = corpus.Language(strings.ToLower(v))
		if !f.Language.Valid() {
			return nil, false, pkgerrors.Newf(pkgerrors.ErrInvalidFilter, 400, "unknown language %q", v)
		}
	}
	var err error
	if f.DateFrom, err = parseDateParam(q.Get("from")); err != nil {
		return nil, false, err
	}
	if f.DateTo, err = parseDateParam(q.Get("to")); err != nil {
		return nil, false, err
	}
	if v := q.Get("minReadingTime"); v != "" {
		if f.MinReadingTime, err = strconv.Atoi(v); err != nil {
			return nil, false, pkgerrors.New(pkgerrors.ErrInvalidFilter, 400, "minReadingTime must be an integer")
		}
	}
	if v := q.Get("maxReadingTime"); v != "" {
		if f.MaxReadingTime, err = strconv.Atoi(v); err != nil {
			return nil, false, pkgerrors.New(pkgerrors.ErrInvalidFilter, 400, "maxReadingTime must be an integer")
		}
	}
	return req, q.Get("highlight") == "true", nil
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidFilter, 400, "date %q must be YYYY-MM-DD", v)
	}
	return &t, nil
}

// searchCacheKey canonicalises the query string so parameter order does not
// fragment the cache.
func searchCacheKey(r *http.Request) string {
	q := r.URL.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(q[k], ","))
		b.WriteByte('&')
	}
	return CacheKey("search", b.String())
}

func rejectUnknownParams(r *http.Request, allowed map[string]struct{}) error {
	for key := range r.URL.Query() {
		if _, ok := allowed[key]; !ok {
			return pkgerrors.Newf(pkgerrors.ErrInvalidQuery, 400, "unknown query parameter %q", key)
		}
	}
	return nil
}

func searchOutcome(totalMatched int) string {
	if totalMatched == 0 {
		return "zero_result"
	}
	return "ok"
}

func outcomeOf(err error) string {
	switch pkgerrors.HTTPStatusCode(err) {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func (h *Handler) observeSearch(outcome, cacheStatus string, start time.Time, results int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if outcome == "ok" || outcome == "zero_result" {
		h.metrics.SearchResultsCount.Observe(float64(results))
	}
	switch cacheStatus {
	case "hit":
		h.metrics.CacheHitsTotal.Inc()
	case "miss":
		h.metrics.CacheMissesTotal.Inc()
	}
}

func (h *Handler) observeRecommend(outcome string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
	h.metrics.RecommendLatency.Observe(time.Since(start).Seconds())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := pkgerrors.HTTPStatusCode(err)
	if status >= 500 {
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
