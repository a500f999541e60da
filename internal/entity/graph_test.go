package entity

import (
	"reflect"
	"testing"
)

func testEntities() map[string][]Entity {
	return map[string][]Entity{
		"p1": {
			{Type: TypePlace, Name: "Bangkok", Mentions: 3},
			{Type: TypeFood, Name: "street food", Mentions: 2},
			{Type: TypePlace, Name: "Thailand", Mentions: 1},
		},
		"p2": {
			{Type: TypePlace, Name: "bangkok ", Mentions: 1}, // sloppy casing and spacing
			{Type: TypeFood, Name: "Street Food", Mentions: 1},
		},
		"p3": {
			{Type: TypePlace, Name: "Berlin", Mentions: 2},
		},
	}
}

// TestBuildGraphCanonicalisation verifies that casing and whitespace
// variants of a name collapse into one node.
func TestBuildGraphCanonicalisation(t *testing.T) {
	g := BuildGraph(testEntities())
	if g.NodeCount() != 4 {
		t.Fatalf("NodeCount = %d, want 4 (bangkok, street food, thailand, berlin)", g.NodeCount())
	}
	view := g.ExportView(0)
	for _, n := range view.Nodes {
		if n.Key == "place:bangkok" {
			if n.TotalMentions != 4 {
				t.Errorf("bangkok mentions = %d, want 4 across both posts", n.TotalMentions)
			}
			if !reflect.DeepEqual(n.PostIDs, []string{"p1", "p2"}) {
				t.Errorf("bangkok posts = %v, want [p1 p2]", n.PostIDs)
			}
			return
		}
	}
	t.Error("place:bangkok node missing from export")
}

// TestEdgeWeights verifies per-post pair counting and symmetry.
func TestEdgeWeights(t *testing.T) {
	g := BuildGraph(testEntities())

	// bangkok and street food co-occur in p1 and p2
	if w := g.EdgeWeight("place:bangkok", "food:street food"); w != 2 {
		t.Errorf("bangkok~street food = %d, want 2", w)
	}
	if a, b := g.EdgeWeight("place:bangkok", "food:street food"), g.EdgeWeight("food:street food", "place:bangkok"); a != b {
		t.Errorf("edge weight not symmetric: %d vs %d", a, b)
	}
	if w := g.EdgeWeight("place:bangkok", "place:thailand"); w != 1 {
		t.Errorf("bangkok~thailand = %d, want 1", w)
	}
	if w := g.EdgeWeight("place:bangkok", "place:berlin"); w != 0 {
		t.Errorf("bangkok~berlin = %d, want 0 (never co-occur)", w)
	}
	if w := g.EdgeWeight("place:bangkok", "place:bangkok"); w != 0 {
		t.Errorf("self edge = %d, want 0", w)
	}
	if w := g.EdgeWeight("place:bangkok", "place:nowhere"); w != 0 {
		t.Errorf("unknown endpoint = %d, want 0", w)
	}
}

// TestEdgeWeightBound verifies that no edge outweighs the corpus size.
func TestEdgeWeightBound(t *testing.T) {
	ents := testEntities()
	g := BuildGraph(ents)
	for _, e := range g.ExportView(0).Edges {
		if e.Weight > len(ents) {
			t.Errorf("edge %s~%s weight %d exceeds corpus size %d", e.Source, e.Target, e.Weight, len(ents))
		}
		if e.Weight < 1 {
			t.Errorf("edge %s~%s has non-positive weight %d", e.Source, e.Target, e.Weight)
		}
	}
}

// TestDuplicateEntitiesWithinPost verifies that duplicate keys in one post
// count a pair once.
func TestDuplicateEntitiesWithinPost(t *testing.T) {
	g := BuildGraph(map[string][]Entity{
		"p1": {
			{Type: TypePlace, Name: "Lisbon", Mentions: 1},
			{Type: TypePlace, Name: "LISBON", Mentions: 2},
			{Type: TypeFood, Name: "pastel", Mentions: 1},
		},
	})
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", g.NodeCount())
	}
	if w := g.EdgeWeight("place:lisbon", "food:pastel"); w != 1 {
		t.Errorf("lisbon~pastel = %d, want 1", w)
	}
}

// TestEntityKeys verifies the sorted per-post key sets used by the
// recommender.
func TestEntityKeys(t *testing.T) {
	g := BuildGraph(testEntities())
	got := g.EntityKeys("p1")
	want := []string{"food:street food", "place:bangkok", "place:thailand"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EntityKeys(p1) = %v, want %v", got, want)
	}
	if keys := g.EntityKeys("missing"); len(keys) != 0 {
		t.Errorf("EntityKeys(missing) = %v, want none", keys)
	}
}

// TestBuildGraphDeterminism verifies identical exports across builds from
// the same extraction output.
func TestBuildGraphDeterminism(t *testing.T) {
	a := BuildGraph(testEntities()).ExportView(0)
	b := BuildGraph(testEntities()).ExportView(0)
	if !reflect.DeepEqual(a, b) {
		t.Error("two graph builds over the same input differ")
	}
}

// TestExportViewCap verifies that capping keeps the most-mentioned nodes and
// drops edges touching evicted ones.
func TestExportViewCap(t *testing.T) {
	g := BuildGraph(testEntities())
	view := g.ExportView(2)
	if len(view.Nodes) != 2 {
		t.Fatalf("capped export has %d nodes, want 2", len(view.Nodes))
	}
	kept := map[string]struct{}{}
	for _, n := range view.Nodes {
		kept[n.Key] = struct{}{}
	}
	for _, e := range view.Edges {
		if _, ok := kept[e.Source]; !ok {
			t.Errorf("edge source %s not in kept nodes", e.Source)
		}
		if _, ok := kept[e.Target]; !ok {
			t.Errorf("edge target %s not in kept nodes", e.Target)
		}
	}
}
