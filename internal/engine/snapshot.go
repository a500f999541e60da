package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fernwehlabs/discovery/internal/cluster"
	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/entity"
	"github.com/fernwehlabs/discovery/internal/recommend"
	"github.com/fernwehlabs/discovery/internal/search/index"
	"github.com/fernwehlabs/discovery/pkg/config"
	"github.com/fernwehlabs/discovery/pkg/tracing"
)

// Snapshot holds every derived structure for one immutable corpus snapshot.
// All fields are read-only once buildSnapshot returns; a rebuild produces a
// whole new Snapshot and swaps it in atomically.
type Snapshot struct {
	Posts       []corpus.Post
	Index       *index.Index
	Entities    map[string][]entity.Entity
	Graph       *entity.Graph
	Clusters    *cluster.Manager
	Recommender *recommend.Engine
	BuiltAt     time.Time
}

// buildSnapshot constructs all derived structures off to the side. Indexing
// and entity extraction are independent and run concurrently; the graph and
// cluster reduce steps run afterwards on a single goroutine.
func buildSnapshot(ctx context.Context, posts []corpus.Post, cfg config.EngineConfig, extractor *entity.Extractor, popularity recommend.PopularityProvider) (*Snapshot, error) {
	snap := &Snapshot{
		Posts:   posts,
		BuiltAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := tracing.StartChildSpan(ctx, "build.index")
		defer span.End()
		snap.Index = index.Build(posts)
		span.SetAttr("terms", snap.Index.TermCount())
		return gctx.Err()
	})
	g.Go(func() error {
		_, span := tracing.StartChildSpan(ctx, "build.entities")
		defer span.End()
		snap.Entities = extractor.BatchExtract(posts, cfg.BuildWorkers)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot map phase: %w", err)
	}

	_, span := tracing.StartChildSpan(ctx, "build.reduce")
	snap.Graph = entity.BuildGraph(snap.Entities)
	snap.Clusters = cluster.NewManager(cfg.ClusterThreshold)
	snap.Clusters.Generate(posts, snap.Entities)
	snap.Recommender = recommend.New(snap.Index, snap.Graph, snap.Clusters, cfg.Recommendation, popularity)
	span.SetAttr("graph_nodes", snap.Graph.NodeCount())
	span.SetAttr("clusters", len(snap.Clusters.Clusters()))
	span.End()
	return snap, nil
}
