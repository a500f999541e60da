package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fernwehlabs/discovery/internal/cluster"
	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/entity"
	"github.com/fernwehlabs/discovery/internal/search/index"
	"github.com/fernwehlabs/discovery/pkg/config"
	pkgerrors "github.com/fernwehlabs/discovery/pkg/errors"
)

func testWeights() config.RecommendationConfig {
	return config.RecommendationConfig{
		ClusterWeight:    0.40,
		EntityWeight:     0.25,
		GeoWeight:        0.15,
		ContentWeight:    0.10,
		PopularityWeight: 0.10,
		MaxResults:       20,
	}
}

// testEngine builds a small snapshot: three Thailand food posts and one
// German museum post.
func testEngine(t *testing.T, popularity PopularityProvider) *Engine {
	t.Helper()
	posts := []corpus.Post{
		{
			ID: "p1", Slug: "bangkok-eats", Title: "Bangkok Street Food",
			Content: "Street food stalls all over Bangkok, pad thai everywhere.",
			Tags:    []string{"thailand", "food"}, Category: "food",
			Location: "Bangkok", Country: "Thailand",
			Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "p2", Slug: "bangkok-markets", Title: "Bangkok Market Mornings",
			Content: "Bangkok wakes early; the street food carts roll out at dawn.",
			Tags:    []string{"thailand", "food"}, Category: "food",
			Location: "Bangkok", Country: "Thailand",
			Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "p3", Slug: "chiang-mai-food", Title: "Chiang Mai Food Crawl",
			Content: "Khao soi and night market snacks in Chiang Mai.",
			Tags:    []string{"thailand", "food"}, Category: "food",
			Location: "Chiang Mai", Country: "Thailand",
			Date:     time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "p4", Slug: "berlin-museums", Title: "Berlin Museum Guide",
			Content: "A full day on Museumsinsel in Berlin.",
			Tags:    []string{"germany", "museums"}, Category: "culture",
			Location: "Berlin", Country: "Germany",
			Date:     time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		},
	}
	idx := index.Build(posts)
	ents := entity.NewExtractor().BatchExtract(posts, 2)
	graph := entity.BuildGraph(ents)
	clusters := cluster.NewManager(0.3)
	clusters.Generate(posts, ents)
	return New(idx, graph, clusters, testWeights(), popularity)
}

// TestRecommendationsExcludeSource verifies that the source post and
// explicit exclusions never appear.
func TestRecommendationsExcludeSource(t *testing.T) {
	eng := testEngine(t, nil)
	got, err := eng.GetRecommendations(context.Background(), "p1", 10, map[string]struct{}{"p3": {}})
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	for _, c := range got {
		if c.PostID == "p1" {
			t.Error("source post recommended to itself")
		}
		if c.PostID == "p3" {
			t.Error("excluded post appeared in recommendations")
		}
	}
	if len(got) != 2 {
		t.Errorf("got %d candidates, want 2", len(got))
	}
}

// TestRecommendationsRanking verifies that the same-city post outranks the
// same-country post, which outranks the unrelated one.
func TestRecommendationsRanking(t *testing.T) {
	eng := testEngine(t, nil)
	got, err := eng.GetRecommendations(context.Background(), "p1", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].PostID != "p2" {
		t.Errorf("top = %s, want p2 (same cluster, same city)", got[0].PostID)
	}
	if got[1].PostID != "p3" {
		t.Errorf("second = %s, want p3 (same cluster, same country)", got[1].PostID)
	}
	if got[2].PostID != "p4" {
		t.Errorf("last = %s, want p4 (unrelated)", got[2].PostID)
	}
}

// TestRecommendationScoreBounds verifies all relevance scores stay in [0,1].
func TestRecommendationScoreBounds(t *testing.T) {
	eng := testEngine(t, nil)
	for _, src := range []string{"p1", "p2", "p3", "p4"} {
		got, err := eng.GetRecommendations(context.Background(), src, 10, nil)
		if err != nil {
			t.Fatalf("GetRecommendations(%s) error = %v", src, err)
		}
		for _, c := range got {
			if c.RelevanceScore < 0 || c.RelevanceScore > 1 {
				t.Errorf("source %s candidate %s score %f out of [0,1]", src, c.PostID, c.RelevanceScore)
			}
			if len(c.MatchingFactors) == 0 {
				t.Errorf("source %s candidate %s has no matching factors", src, c.PostID)
			}
		}
	}
}

// TestRecommendationTypes verifies dominant-factor typing: a strong cluster
// signal labels the candidate, a flat profile is hybrid.
func TestRecommendationTypes(t *testing.T) {
	eng := testEngine(t, nil)
	got, err := eng.GetRecommendations(context.Background(), "p1", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	for _, c := range got {
		switch c.PostID {
		case "p2", "p3":
			// cluster contributes 0.40, far ahead of every other factor
			if c.RecommendationType != FactorCluster {
				t.Errorf("%s type = %s, want cluster", c.PostID, c.RecommendationType)
			}
		case "p4":
			// only the neutral popularity prior fires
			if c.RecommendationType != FactorPopularity {
				t.Errorf("p4 type = %s, want popularity", c.RecommendationType)
			}
		}
	}
}

// TestRecommendationsUnknownSource verifies the not-found error.
func TestRecommendationsUnknownSource(t *testing.T) {
	eng := testEngine(t, nil)
	_, err := eng.GetRecommendations(context.Background(), "missing", 5, nil)
	if !errors.Is(err, pkgerrors.ErrPostNotFound) {
		t.Errorf("error = %v, want ErrPostNotFound", err)
	}
}

// TestRecommendationsCountCap verifies the configured result cap.
func TestRecommendationsCountCap(t *testing.T) {
	eng := testEngine(t, nil)
	got, err := eng.GetRecommendations(context.Background(), "p1", 1, nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d candidates, want 1", len(got))
	}
}

type staticPopularity map[string]float64

func (s staticPopularity) Popularity(ctx context.Context, postIDs []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, id := range postIDs {
		if v, ok := s[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type failingPopularity struct{}

func (failingPopularity) Popularity(ctx context.Context, postIDs []string) (map[string]float64, error) {
	return nil, errors.New("redis down")
}

// TestPopularityPriorApplied verifies that an external prior shifts scores
// and that missing posts get the neutral default.
func TestPopularityPriorApplied(t *testing.T) {
	withPrior := testEngine(t, staticPopularity{"p3": 1.0})
	neutral := testEngine(t, nil)

	boosted, err := withPrior.GetRecommendations(context.Background(), "p1", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	base, err := neutral.GetRecommendations(context.Background(), "p1", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}

	scoreOf := func(cands []Candidate, id string) float64 {
		for _, c := range cands {
			if c.PostID == id {
				return c.RelevanceScore
			}
		}
		t.Fatalf("candidate %s missing", id)
		return 0
	}
	if scoreOf(boosted, "p3") <= scoreOf(base, "p3") {
		t.Error("full popularity prior did not raise p3's score above neutral")
	}
	if scoreOf(boosted, "p2") != scoreOf(base, "p2") {
		t.Error("post without a prior should score as neutral")
	}
}

// TestPopularityProviderFailureIsSoft verifies that a failing provider
// degrades to the neutral prior instead of failing the request.
func TestPopularityProviderFailureIsSoft(t *testing.T) {
	eng := testEngine(t, failingPopularity{})
	got, err := eng.GetRecommendations(context.Background(), "p1", 10, nil)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d candidates, want 3", len(got))
	}
}
