// Package recommend fuses topic-cluster membership, knowledge-graph entity
// overlap, geography, content similarity, and an external popularity prior
// into a single ranked recommendation list. The engine only reads from the
// structures it is handed; it owns none of them.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/fernwehlabs/discovery/internal/cluster"
	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/entity"
	"github.com/fernwehlabs/discovery/internal/search/index"
	"github.com/fernwehlabs/discovery/pkg/config"
	"github.com/fernwehlabs/discovery/pkg/errors"
)

// Factor names a recommendation signal.
type Factor string

const (
	FactorCluster    Factor = "cluster"
	FactorEntity     Factor = "entity"
	FactorGeographic Factor = "geographic"
	FactorContent    Factor = "content"
	FactorPopularity Factor = "popularity"
	FactorHybrid     Factor = "hybrid"
)

// hybridMargin is the dominance margin: if no factor's weighted contribution
// leads the runner-up by more than this, the recommendation is hybrid.
const hybridMargin = 0.1

// neutralPopularity is the prior used when no engagement signal exists.
const neutralPopularity = 0.5

// Candidate is one scored recommendation.
type Candidate struct {
	PostID             string   `json:"post_id"`
	Slug               string   `json:"slug"`
	Title              string   `json:"title"`
	RelevanceScore     float64  `json:"relevance_score"`
	RecommendationType Factor   `json:"recommendation_type"`
	MatchingFactors    []string `json:"matching_factors"`
	Reasoning          string   `json:"reasoning,omitempty"`
}

// PopularityProvider supplies the external engagement prior, normalised to
// [0,1]. Missing posts default to neutral.
type PopularityProvider interface {
	Popularity(ctx context.Context, postIDs []string) (map[string]float64, error)
}

// Engine ranks candidate posts against a source post. It reads the index,
// graph, and cluster partition of one snapshot and never mutates them.
type Engine struct {
	idx        *index.Index
	graph      *entity.Graph
	clusters   *cluster.Manager
	weights    config.RecommendationConfig
	popularity PopularityProvider
	logger     *slog.Logger
}

// New creates an Engine over the given snapshot structures. popularity may
// be nil, in which case every post gets the neutral prior.
func New(idx *index.Index, graph *entity.Graph, clusters *cluster.Manager, weights config.RecommendationConfig, popularity PopularityProvider) *Engine {
	return &Engine{
		idx:        idx,
		graph:      graph,
		clusters:   clusters,
		weights:    weights,
		popularity: popularity,
		logger:     slog.Default().With("component", "recommender"),
	}
}

// GetRecommendations returns up to count candidates for the source post,
// ranked by fused relevance. The source itself and any excluded ids never
// appear in the output.
func (e *Engine) GetRecommendations(ctx context.Context, sourcePostID string, count int, exclude map[string]struct{}) ([]Candidate, error) {
	source, ok := e.idx.Get(sourcePostID)
	if !ok {
		return nil, errors.Newf(errors.ErrPostNotFound, 404, "post %q not in current snapshot", sourcePostID)
	}
	if count <= 0 {
		count = 10
	}
	if max := e.weights.MaxResults; max > 0 && count > max {
		count = max
	}

	candidateIDs := make([]string, 0, e.idx.TotalPosts())
	for _, id := range e.idx.PostIDs() {
		if id == sourcePostID {
			continue
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		candidateIDs = append(candidateIDs, id)
	}
	if len(candidateIDs) == 0 {
		return []Candidate{}, nil
	}

	priors := e.loadPopularity(ctx, candidateIDs)
	sourceKeys := e.graph.EntityKeys(sourcePostID)

	candidates := make([]Candidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		post, _ := e.idx.Get(id)
		scores := map[Factor]float64{
			FactorCluster:    e.clusterScore(sourcePostID, id),
			FactorEntity:     jaccardStrings(sourceKeys, e.graph.EntityKeys(id)),
			FactorGeographic: geoScore(source, post),
			FactorContent:    e.idx.CosineSimilarity(sourcePostID, id),
			FactorPopularity: priors[id],
		}
		candidates = append(candidates, e.fuse(post, scores))
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		da, _ := e.idx.Get(a.PostID)
		db, _ := e.idx.Get(b.PostID)
		if !da.Date.Equal(db.Date) {
			return da.Date.After(db.Date)
		}
		return a.PostID < b.PostID
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// clusterScore gives full credit for shared cluster membership and partial
// credit, scaled into [0,0.5], for centroid-tag overlap across clusters, so
// near-miss clusters do not collapse to zero.
func (e *Engine) clusterScore(sourceID, candidateID string) float64 {
	if e.clusters.SameCluster(sourceID, candidateID) {
		return 1.0
	}
	src, okA := e.clusters.ClusterOf(sourceID)
	cand, okB := e.clusters.ClusterOf(candidateID)
	if !okA || !okB {
		return 0
	}
	return 0.5 * jaccardStrings(src.CentroidTags, cand.CentroidTags)
}

func geoScore(source, candidate *corpus.Post) float64 {
	if source.Location != "" && strings.EqualFold(source.Location, candidate.Location) {
		return 1.0
	}
	if source.Country != "" && strings.EqualFold(source.Country, candidate.Country) {
		return 0.5
	}
	return 0
}

// fuse combines the factor scores into one clamped relevance score and
// derives the explainability fields.
func (e *Engine) fuse(post *corpus.Post, scores map[Factor]float64) Candidate {
	weights := map[Factor]float64{
		FactorCluster:    e.weights.ClusterWeight,
		FactorEntity:     e.weights.EntityWeight,
		FactorGeographic: e.weights.GeoWeight,
		FactorContent:    e.weights.ContentWeight,
		FactorPopularity: e.weights.PopularityWeight,
	}

	type contribution struct {
		factor Factor
		amount float64
	}
	contributions := make([]contribution, 0, len(weights))
	var relevance float64
	for factor, weight := range weights {
		amount := weight * scores[factor]
		relevance += amount
		if amount > 0 {
			contributions = append(contributions, contribution{factor: factor, amount: amount})
		}
	}
	relevance = math.Min(math.Max(relevance, 0), 1)

	sort.Slice(contributions, func(i, j int) bool {
		if contributions[i].amount != contributions[j].amount {
			return contributions[i].amount > contributions[j].amount
		}
		return contributions[i].factor < contributions[j].factor
	})

	recType := FactorHybrid
	if len(contributions) == 1 {
		recType = contributions[0].factor
	} else if len(contributions) > 1 && contributions[0].amount-contributions[1].amount > hybridMargin {
		recType = contributions[0].factor
	}

	factors := make([]string, 0, len(contributions))
	for _, c := range contributions {
		factors = append(factors, string(c.factor))
	}

	return Candidate{
		PostID:             post.ID,
		Slug:               post.Slug,
		Title:              post.Title,
		RelevanceScore:     math.Round(relevance*10000) / 10000,
		RecommendationType: recType,
		MatchingFactors:    factors,
		Reasoning:          reasoning(scores),
	}
}

// reasoning renders a short human-readable explanation of the strongest
// signals.
func reasoning(scores map[Factor]float64) string {
	parts := make([]string, 0, 3)
	if scores[FactorCluster] >= 1.0 {
		parts = append(parts, "same topic cluster")
	} else if scores[FactorCluster] > 0 {
		parts = append(parts, "related topic cluster")
	}
	if s := scores[FactorEntity]; s > 0 {
		parts = append(parts, fmt.Sprintf("entity overlap %.0f%%", s*100))
	}
	switch scores[FactorGeographic] {
	case 1.0:
		parts = append(parts, "same location")
	case 0.5:
		parts = append(parts, "same country")
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ")
}

func (e *Engine) loadPopularity(ctx context.Context, postIDs []string) map[string]float64 {
	priors := make(map[string]float64, len(postIDs))
	if e.popularity != nil {
		loaded, err := e.popularity.Popularity(ctx, postIDs)
		if err != nil {
			e.logger.Warn("popularity provider failed, using neutral prior", "error", err)
		} else {
			priors = loaded
		}
	}
	for _, id := range postIDs {
		if _, ok := priors[id]; !ok {
			priors[id] = neutralPopularity
		}
	}
	return priors
}

func jaccardStrings(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	intersection := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
