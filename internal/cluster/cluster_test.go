package cluster

import (
	"reflect"
	"testing"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/entity"
)

func clusterCorpus() []corpus.Post {
	return []corpus.Post{
		{ID: "p1", Tags: []string{"thailand", "food"}, Category: "food"},
		{ID: "p2", Tags: []string{"thailand", "food", "markets"}, Category: "food"},
		{ID: "p3", Tags: []string{"thailand", "temples"}, Category: "culture"},
		{ID: "p4", Tags: []string{"germany", "museums"}, Category: "culture"},
	}
}

// TestGeneratePartition verifies that every post lands in exactly one
// cluster.
func TestGeneratePartition(t *testing.T) {
	posts := clusterCorpus()
	m := NewManager(0.3)
	clusters := m.Generate(posts, nil)

	seen := make(map[string]int)
	for _, c := range clusters {
		for _, id := range c.MemberPostIDs {
			seen[id]++
		}
	}
	if len(seen) != len(posts) {
		t.Errorf("partition covers %d posts, want %d", len(seen), len(posts))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("post %s appears in %d clusters, want exactly 1", id, count)
		}
	}
}

// TestGenerateGroupsSimilarPosts verifies that overlapping tag sets union
// and disjoint ones stay apart.
func TestGenerateGroupsSimilarPosts(t *testing.T) {
	posts := clusterCorpus()
	m := NewManager(0.3)
	m.Generate(posts, nil)

	if !m.SameCluster("p1", "p2") {
		t.Error("p1 and p2 share most tags but landed in different clusters")
	}
	if m.SameCluster("p1", "p4") {
		t.Error("p1 (thai food) and p4 (german museums) share a cluster")
	}
	if m.SameCluster("p1", "missing") {
		t.Error("SameCluster with unknown post reported true")
	}
}

// TestGenerateSingleLinkage verifies transitive merging: posts connect
// through a shared neighbour even without direct overlap above threshold.
func TestGenerateSingleLinkage(t *testing.T) {
	posts := []corpus.Post{
		{ID: "a", Tags: []string{"x", "y"}},
		{ID: "b", Tags: []string{"y", "z"}},
		{ID: "c", Tags: []string{"z", "w"}},
	}
	m := NewManager(0.3)
	clusters := m.Generate(posts, nil)
	// a~b and b~c are each 1/3 >= 0.3; a~c is 0 but they chain through b
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1 chained component", len(clusters))
	}
	if !m.SameCluster("a", "c") {
		t.Error("a and c should chain through b under single linkage")
	}
}

// TestClusterLabelAndCentroid verifies the dominant-tag label and the
// majority-shared centroid tags.
func TestClusterLabelAndCentroid(t *testing.T) {
	posts := clusterCorpus()
	m := NewManager(0.3)
	m.Generate(posts, nil)

	c, ok := m.ClusterOf("p1")
	if !ok {
		t.Fatal("p1 has no cluster")
	}
	if c.Label != "food" {
		t.Errorf("label = %q, want food", c.Label)
	}
	for _, tag := range []string{"food", "thailand"} {
		found := false
		for _, ct := range c.CentroidTags {
			if ct == tag {
				found = true
			}
		}
		if !found {
			t.Errorf("centroid tags %v missing %q", c.CentroidTags, tag)
		}
	}
}

// TestEntitySignalsMergeClusters verifies that shared top entities can
// bridge posts with disjoint tags.
func TestEntitySignalsMergeClusters(t *testing.T) {
	posts := []corpus.Post{
		{ID: "a", Tags: []string{"itinerary"}},
		{ID: "b", Tags: []string{"itinerary"}},
	}
	ents := map[string][]entity.Entity{
		"a": {{Type: entity.TypePlace, Name: "Bangkok", Confidence: 1.0}},
		"b": {{Type: entity.TypePlace, Name: "Bangkok", Confidence: 1.0}},
	}
	m := NewManager(0.5)
	m.Generate(posts, ents)
	if !m.SameCluster("a", "b") {
		t.Error("shared tag and entity should place a and b together")
	}
}

// TestGenerateDeterminism verifies stable cluster ids and membership across
// runs.
func TestGenerateDeterminism(t *testing.T) {
	a := NewManager(0.3).Generate(clusterCorpus(), nil)
	b := NewManager(0.3).Generate(clusterCorpus(), nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("two generations over the same corpus differ")
	}
	for i, c := range a {
		if want := len("cluster-000"); len(c.ClusterID) != want {
			t.Errorf("cluster %d id %q not in cluster-NNN form", i, c.ClusterID)
		}
	}
}

// TestGenerateEmptyCorpus verifies the empty-input edge case.
func TestGenerateEmptyCorpus(t *testing.T) {
	m := NewManager(0.3)
	if clusters := m.Generate(nil, nil); len(clusters) != 0 {
		t.Errorf("got %v, want no clusters", clusters)
	}
}

// TestSingletonCluster verifies that an unrelated post forms its own
// cluster labelled by its own tags.
func TestSingletonCluster(t *testing.T) {
	m := NewManager(0.3)
	m.Generate(clusterCorpus(), nil)
	c, ok := m.ClusterOf("p4")
	if !ok {
		t.Fatal("p4 has no cluster")
	}
	if len(c.MemberPostIDs) != 1 {
		t.Errorf("p4 cluster members = %v, want singleton", c.MemberPostIDs)
	}
	want := []string{"culture", "germany", "museums"}
	if !reflect.DeepEqual(c.CentroidTags, want) {
		t.Errorf("singleton centroid = %v, want %v", c.CentroidTags, want)
	}
}
