// Package engine is the stateless-query, stateful-lifecycle facade over the
// discovery core. One Engine is constructed at process start and handed to
// every request handler; queries read an immutable snapshot, and rebuilds
// construct a replacement off to the side before swapping it in atomically.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/entity"
	"github.com/fernwehlabs/discovery/internal/recommend"
	"github.com/fernwehlabs/discovery/internal/search/index"
	"github.com/fernwehlabs/discovery/pkg/config"
	"github.com/fernwehlabs/discovery/pkg/errors"
	"github.com/fernwehlabs/discovery/pkg/metrics"
	"github.com/fernwehlabs/discovery/pkg/tracing"
)

// State is the engine lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateBuilding
	StateReady
	StateRebuilding
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StateRebuilding:
		return "rebuilding"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// GraphFormat selects a knowledge-graph view.
type GraphFormat string

const (
	GraphFull    GraphFormat = "full"
	GraphSummary GraphFormat = "summary"
	GraphExport  GraphFormat = "export"
)

// summaryNodeCap bounds the summary view to the most-mentioned entities.
const summaryNodeCap = 25

// Engine owns the snapshot lifecycle and serves all queries.
type Engine struct {
	provider   corpus.Provider
	cfg        config.EngineConfig
	extractor  *entity.Extractor
	popularity recommend.PopularityProvider
	metrics    *metrics.Metrics

	snapshot atomic.Pointer[Snapshot]
	state    atomic.Int32
	group    singleflight.Group
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPopularity wires an external engagement prior into recommendations.
func WithPopularity(p recommend.PopularityProvider) Option {
	return func(e *Engine) { e.popularity = p }
}

// WithMetrics wires Prometheus collectors into build and snapshot gauges.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine in the Uninitialized state. Call Build before
// serving queries.
func New(provider corpus.Provider, cfg config.EngineConfig, opts ...Option) *Engine {
	e := &Engine{
		provider:  provider,
		cfg:       cfg,
		extractor: entity.NewExtractor(),
		logger:    slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build performs the initial snapshot construction. A failed first build
// leaves the engine Uninitialized.
func (e *Engine) Build(ctx context.Context) error {
	return e.rebuild(ctx, StateUninitialized, StateBuilding)
}

// Rebuild replaces the active snapshot with one built from the provider's
// current corpus. Rebuilds are single-flighted: concurrent callers share the
// in-flight build's result instead of racing to construct two snapshots.
func (e *Engine) Rebuild(ctx context.Context) error {
	return e.rebuild(ctx, StateReady, StateRebuilding)
}

func (e *Engine) rebuild(ctx context.Context, from, transient State) error {
	if State(e.state.Load()) == StateDisposed {
		return errors.New(errors.ErrEngineClosed, 503, "engine is disposed")
	}
	_, err, shared := e.group.Do("rebuild", func() (any, error) {
		e.state.CompareAndSwap(int32(from), int32(transient))
		start := time.Now()

		snap, err := e.buildOnce(ctx)
		if err != nil {
			// Fail closed: the old snapshot (if any) keeps serving.
			if e.snapshot.Load() == nil {
				e.state.Store(int32(StateUninitialized))
			} else {
				e.state.Store(int32(StateReady))
			}
			e.observeBuild("failed", time.Since(start))
			return nil, err
		}

		e.snapshot.Store(snap)
		e.state.Store(int32(StateReady))
		e.observeBuild("ok", time.Since(start))
		e.updateSnapshotGauges(snap)
		e.logger.Info("snapshot ready",
			"posts", len(snap.Posts),
			"terms", snap.Index.TermCount(),
			"graph_nodes", snap.Graph.NodeCount(),
			"graph_edges", snap.Graph.EdgeCount(),
			"clusters", len(snap.Clusters.Clusters()),
			"took", time.Since(start).Round(time.Millisecond),
		)
		return nil, nil
	})
	if shared {
		e.logger.Debug("rebuild joined in-flight build")
	}
	return err
}

func (e *Engine) buildOnce(ctx context.Context) (*Snapshot, error) {
	ctx, root := tracing.StartSpan(ctx, "engine.build", buildTraceID())
	defer func() {
		root.End()
		root.Log()
	}()

	_, loadSpan := tracing.StartChildSpan(ctx, "build.load_corpus")
	posts, err := e.provider.Posts(ctx)
	loadSpan.SetAttr("posts", len(posts))
	loadSpan.End()
	if err != nil {
		return nil, errors.Newf(errors.ErrBuildFailed, 500, "loading corpus: %v", err)
	}
	snap, err := buildSnapshot(ctx, posts, e.cfg, e.extractor, e.popularity)
	if err != nil {
		return nil, errors.Newf(errors.ErrBuildFailed, 500, "building snapshot: %v", err)
	}
	return snap, nil
}

func buildTraceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("build-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// Close releases the snapshot and rejects all further operations.
func (e *Engine) Close() {
	e.state.Store(int32(StateDisposed))
	e.snapshot.Store(nil)
	e.logger.Info("engine disposed")
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Ready reports whether a snapshot is available for queries. Queries remain
// servable during a rebuild because the previous snapshot stays in place
// until the new one swaps in.
func (e *Engine) Ready() bool {
	return e.State() != StateDisposed && e.snapshot.Load() != nil
}

// active returns the serving snapshot.
func (e *Engine) active() (*Snapshot, error) {
	if State(e.state.Load()) == StateDisposed {
		return nil, errors.New(errors.ErrEngineClosed, 503, "engine is disposed")
	}
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, errors.New(errors.ErrEngineNotReady, 503, "no snapshot built yet")
	}
	return snap, nil
}

// Search runs a validated full-text query against the active snapshot.
func (e *Engine) Search(ctx context.Context, req index.Request) (*index.Result, error) {
	snap, err := e.active()
	if err != nil {
		return nil, err
	}
	if req.SortBy == index.SortPopularity && req.Popularity == nil && e.popularity != nil {
		priors, perr := e.popularity.Popularity(ctx, snap.Index.PostIDs())
		if perr != nil {
			e.logger.Warn("popularity sort degraded to neutral prior", "error", perr)
		} else {
			req.Popularity = priors
		}
	}
	return snap.Index.Search(req)
}

// Recommend resolves a source slug and returns ranked related posts,
// excluding the given slugs.
func (e *Engine) Recommend(ctx context.Context, sourceSlug string, count int, excludeSlugs []string) ([]recommend.Candidate, error) {
	snap, err := e.active()
	if err != nil {
		return nil, err
	}
	source, ok := snap.Index.GetBySlug(sourceSlug)
	if !ok {
		return nil, errors.Newf(errors.ErrPostNotFound, 404, "no post with slug %q", sourceSlug)
	}
	exclude := make(map[string]struct{}, len(excludeSlugs))
	for _, slug := range excludeSlugs {
		if p, found := snap.Index.GetBySlug(slug); found {
			exclude[p.ID] = struct{}{}
		}
	}
	return snap.Recommender.GetRecommendations(ctx, source.ID, count, exclude)
}

// Highlight renders the display snippet for a post and matched terms.
func (e *Engine) Highlight(postID string, matchedTerms []string) (index.Highlighted, error) {
	snap, err := e.active()
	if err != nil {
		return index.Highlighted{}, err
	}
	post, ok := snap.Index.Get(postID)
	if !ok {
		return index.Highlighted{}, errors.Newf(errors.ErrPostNotFound, 404, "post %q not in current snapshot", postID)
	}
	return index.Highlight(post, matchedTerms), nil
}

// KnowledgeGraph returns the requested graph view. "summary" keeps only the
// most-mentioned nodes; "full" and "export" are the complete flat
// projection.
func (e *Engine) KnowledgeGraph(format GraphFormat) (entity.Export, error) {
	snap, err := e.active()
	if err != nil {
		return entity.Export{}, err
	}
	switch format {
	case GraphSummary:
		return snap.Graph.ExportView(summaryNodeCap), nil
	case GraphFull, GraphExport, "":
		return snap.Graph.ExportView(0), nil
	default:
		return entity.Export{}, errors.Newf(errors.ErrInvalidQuery, 400, "unknown graph format %q", format)
	}
}

// Status summarises the engine for operational endpoints.
type Status struct {
	State      string    `json:"state"`
	Posts      int       `json:"posts"`
	Terms      int       `json:"terms"`
	GraphNodes int       `json:"graph_nodes"`
	GraphEdges int       `json:"graph_edges"`
	Clusters   int       `json:"clusters"`
	BuiltAt    time.Time `json:"built_at,omitzero"`
}

// CurrentStatus reports the lifecycle state and active snapshot sizes.
func (e *Engine) CurrentStatus() Status {
	status := Status{State: e.State().String()}
	if snap := e.snapshot.Load(); snap != nil {
		status.Posts = len(snap.Posts)
		status.Terms = snap.Index.TermCount()
		status.GraphNodes = snap.Graph.NodeCount()
		status.GraphEdges = snap.Graph.EdgeCount()
		status.Clusters = len(snap.Clusters.Clusters())
		status.BuiltAt = snap.BuiltAt
	}
	return status
}

func (e *Engine) observeBuild(outcome string, took time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.EngineBuildsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		e.metrics.EngineBuildDuration.Observe(took.Seconds())
	}
}

func (e *Engine) updateSnapshotGauges(snap *Snapshot) {
	if e.metrics == nil {
		return
	}
	e.metrics.SnapshotPosts.Set(float64(len(snap.Posts)))
	e.metrics.SnapshotTerms.Set(float64(snap.Index.TermCount()))
	e.metrics.SnapshotGraphNodes.Set(float64(snap.Graph.NodeCount()))
	e.metrics.SnapshotGraphEdges.Set(float64(snap.Graph.EdgeCount()))
	e.metrics.SnapshotClusters.Set(float64(len(snap.Clusters.Clusters())))
}
