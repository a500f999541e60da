package benchmark

import (
	"fmt"
	"testing"

	"github.com/fernwehlabs/discovery/internal/search/index"
)

// BenchmarkIndexBuild measures full index construction over corpora of
// increasing size.
func BenchmarkIndexBuild(b *testing.B) {
	for _, n := range []int{100, 1000, 5000} {
		posts := makeCorpus(n)
		b.Run(fmt.Sprintf("posts_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				index.Build(posts)
			}
		})
	}
}

// BenchmarkSearch measures query latency against a 5000-post index for
// queries of varying selectivity.
func BenchmarkSearch(b *testing.B) {
	idx := index.Build(makeCorpus(5000))
	queries := []struct {
		name  string
		query string
	}{
		{"single_term", "bangkok"},
		{"two_terms", "street food"},
		{"broad", "temple market hostel train"},
		{"zero_hits", "snowboarding patagonia"},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := idx.Search(index.Request{Query: q.query, Limit: 10}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSearchFiltered measures the cost of filter evaluation on top of
// scoring.
func BenchmarkSearchFiltered(b *testing.B) {
	idx := index.Build(makeCorpus(5000))
	req := index.Request{
		Query: "street food",
		Filters: index.Filters{
			Category: "trip-reports",
			Tags:     []string{"thailand"},
		},
		Limit: 10,
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Search(req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCosineSimilarity measures pairwise document similarity, the inner
// loop of the content recommendation factor.
func BenchmarkCosineSimilarity(b *testing.B) {
	idx := index.Build(makeCorpus(1000))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.CosineSimilarity("post-0000", fmt.Sprintf("post-%04d", i%1000))
	}
}
