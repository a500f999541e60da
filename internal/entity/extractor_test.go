package entity

import (
	"reflect"
	"testing"

	"github.com/fernwehlabs/discovery/internal/corpus"
)

func findEntity(entities []Entity, key string) (Entity, bool) {
	for _, e := range entities {
		if e.Key() == key {
			return e, true
		}
	}
	return Entity{}, false
}

// TestExtractStructuredFields verifies that location and country become
// full-confidence place entities.
func TestExtractStructuredFields(t *testing.T) {
	post := &corpus.Post{
		ID:       "p1",
		Location: "Bangkok",
		Country:  "Thailand",
	}
	entities := NewExtractor().Extract(post)
	for _, key := range []string{"place:bangkok", "place:thailand"} {
		ent, ok := findEntity(entities, key)
		if !ok {
			t.Fatalf("missing entity %s in %v", key, entities)
		}
		if ent.Confidence != 1.0 {
			t.Errorf("%s confidence = %f, want 1.0", key, ent.Confidence)
		}
		if ent.Type != TypePlace {
			t.Errorf("%s type = %s, want place", key, ent.Type)
		}
	}
}

// TestExtractBigramPrecedence verifies that "street food" matches as one
// food entity and does not decompose into weaker unigrams.
func TestExtractBigramPrecedence(t *testing.T) {
	post := &corpus.Post{
		ID:      "p1",
		Content: "The street food scene here is unbeatable.",
	}
	entities := NewExtractor().Extract(post)
	ent, ok := findEntity(entities, "food:street food")
	if !ok {
		t.Fatalf("missing bigram entity in %v", entities)
	}
	if ent.Confidence != 0.8 {
		t.Errorf("confidence = %f, want 0.8", ent.Confidence)
	}
	if ent.ContextSnippet == "" {
		t.Error("bigram entity has no context snippet")
	}
}

// TestExtractMentionAggregation verifies that repeat mentions collapse into
// one entity with a mention count and the highest confidence seen.
func TestExtractMentionAggregation(t *testing.T) {
	post := &corpus.Post{
		ID:       "p1",
		Location: "Hanoi",
		Title:    "Hanoi by motorbike",
		Content:  "Hanoi traffic takes a day to learn. We loved Hanoi anyway.",
	}
	entities := NewExtractor().Extract(post)
	ent, ok := findEntity(entities, "place:hanoi")
	if !ok {
		t.Fatalf("missing place:hanoi in %v", entities)
	}
	// 1 structured + 3 content mentions
	if ent.Mentions != 4 {
		t.Errorf("mentions = %d, want 4", ent.Mentions)
	}
	if ent.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0 (structured beats content)", ent.Confidence)
	}
	if n := len(entities); n != 2 { // hanoi + motorbike
		t.Errorf("got %d entities, want 2: %v", n, entities)
	}
}

// TestExtractTags verifies tag typing: known activity tags, gazetteer tags
// upgraded to full confidence, and unknown tags defaulting to cultural.
func TestExtractTags(t *testing.T) {
	post := &corpus.Post{
		ID:   "p1",
		Tags: []string{"hiking", "thailand", "slow-travel"},
	}
	entities := NewExtractor().Extract(post)

	if ent, ok := findEntity(entities, "activity:hiking"); !ok || ent.Confidence != 0.5 {
		t.Errorf("hiking = %+v ok=%v, want activity at tag confidence", ent, ok)
	}
	if ent, ok := findEntity(entities, "place:thailand"); !ok || ent.Confidence != 1.0 {
		t.Errorf("thailand = %+v ok=%v, want gazetteer-grade place", ent, ok)
	}
	if ent, ok := findEntity(entities, "cultural:slow-travel"); !ok || ent.Confidence != 0.5 {
		t.Errorf("slow-travel = %+v ok=%v, want cultural default", ent, ok)
	}
}

// TestExtractEmptyPost verifies fail-open behaviour on empty input.
func TestExtractEmptyPost(t *testing.T) {
	entities := NewExtractor().Extract(&corpus.Post{ID: "p1"})
	if len(entities) != 0 {
		t.Errorf("got %v, want none", entities)
	}
}

// TestBatchExtractMatchesSequential verifies that parallel extraction
// produces exactly the per-post results of sequential extraction.
func TestBatchExtractMatchesSequential(t *testing.T) {
	posts := []corpus.Post{
		{ID: "p1", Location: "Bangkok", Content: "Pad thai and tuk tuk rides."},
		{ID: "p2", Location: "Berlin", Content: "Currywurst after the museum."},
		{ID: "p3", Content: "A quiet day with no named places."},
	}
	ex := NewExtractor()
	batch := ex.BatchExtract(posts, 4)
	if len(batch) != len(posts) {
		t.Fatalf("batch covers %d posts, want %d", len(batch), len(posts))
	}
	for i := range posts {
		want := ex.Extract(&posts[i])
		if !reflect.DeepEqual(batch[posts[i].ID], want) {
			t.Errorf("post %s: batch %v != sequential %v", posts[i].ID, batch[posts[i].ID], want)
		}
	}
}

// TestTopNames verifies confidence-then-name ordering and lowercasing.
func TestTopNames(t *testing.T) {
	entities := []Entity{
		{Type: TypeFood, Name: "Pho", Confidence: 0.7},
		{Type: TypePlace, Name: "Hanoi", Confidence: 1.0},
		{Type: TypePlace, Name: "Vietnam", Confidence: 1.0},
		{Type: TypeCultural, Name: "temple", Confidence: 0.6},
	}
	got := TopNames(entities, 3)
	want := []string{"hanoi", "vietnam", "pho"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopNames = %v, want %v", got, want)
	}
	if n := len(TopNames(entities, 10)); n != 4 {
		t.Errorf("TopNames over-length = %d names, want 4", n)
	}
}
