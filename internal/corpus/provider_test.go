package corpus

import (
	"context"
	"testing"
)

// TestStaticProviderCopies verifies that callers cannot mutate the
// provider's backing slice through the returned posts.
func TestStaticProviderCopies(t *testing.T) {
	p := NewStaticProvider([]Post{{ID: "p1", Title: "original"}})

	first, err := p.Posts(context.Background())
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	first[0].Title = "mutated"

	second, err := p.Posts(context.Background())
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if second[0].Title != "original" {
		t.Error("mutation through a returned slice reached the provider")
	}
}

func TestLanguageValid(t *testing.T) {
	for _, l := range []Language{LangEN, LangDE} {
		if !l.Valid() {
			t.Errorf("%q reported invalid", l)
		}
	}
	for _, l := range []Language{"", "fr", "EN"} {
		if l.Valid() {
			t.Errorf("%q reported valid", l)
		}
	}
}

func TestTagSet(t *testing.T) {
	p := Post{Tags: []string{"thailand", "food", "thailand"}}
	set := p.TagSet()
	if len(set) != 2 {
		t.Errorf("TagSet() has %d entries, want 2", len(set))
	}
	if _, ok := set["food"]; !ok {
		t.Error("TagSet() missing food")
	}
}
