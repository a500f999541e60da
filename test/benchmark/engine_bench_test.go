package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/engine"
	"github.com/fernwehlabs/discovery/pkg/config"
)

func engineConfig() config.EngineConfig {
	return config.EngineConfig{
		BuildWorkers:     4,
		ClusterThreshold: 0.3,
		Recommendation: config.RecommendationConfig{
			ClusterWeight:    0.40,
			EntityWeight:     0.25,
			GeoWeight:        0.15,
			ContentWeight:    0.10,
			PopularityWeight: 0.10,
			MaxResults:       20,
		},
	}
}

// BenchmarkEngineBuild measures the full build pipeline: index, entity
// extraction, graph, clustering, and recommender assembly.
func BenchmarkEngineBuild(b *testing.B) {
	for _, n := range []int{100, 1000} {
		provider := corpus.NewStaticProvider(makeCorpus(n))
		b.Run(fmt.Sprintf("posts_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				eng := engine.New(provider, engineConfig())
				if err := eng.Build(context.Background()); err != nil {
					b.Fatal(err)
				}
				eng.Close()
			}
		})
	}
}

// BenchmarkRecommend measures recommendation latency against a built engine.
func BenchmarkRecommend(b *testing.B) {
	eng := engine.New(corpus.NewStaticProvider(makeCorpus(1000)), engineConfig())
	if err := eng.Build(context.Background()); err != nil {
		b.Fatal(err)
	}
	defer eng.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slug := fmt.Sprintf("trip-report-%04d", i%1000)
		if _, err := eng.Recommend(context.Background(), slug, 5, nil); err != nil {
			b.Fatal(err)
		}
	}
}
