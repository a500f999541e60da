// Package benchmark contains Go benchmarks for the tokenizer, the inverted
// index, and the full discovery build pipeline, measuring throughput and
// allocation behaviour over synthetic travel corpora.
package benchmark

import (
	"fmt"
	"time"

	"github.com/fernwehlabs/discovery/internal/corpus"
)

var locations = []struct {
	city    string
	country string
	tags    []string
}{
	{"Bangkok", "Thailand", []string{"thailand", "street-food", "city"}},
	{"Chiang Mai", "Thailand", []string{"thailand", "temples", "mountains"}},
	{"Hanoi", "Vietnam", []string{"vietnam", "street-food", "city"}},
	{"Berlin", "Germany", []string{"germany", "city", "museums"}},
	{"Munich", "Germany", []string{"germany", "beer", "alps"}},
}

var bodies = []string{
	"We spent the morning wandering through the night market stalls sampling pad thai and mango sticky rice before taking a tuk tuk back to the hostel.",
	"The temple complex opens at dawn and the hike up takes about an hour, so pack water and catch the songthaew from the old town gate.",
	"Street food here is an institution: banh mi from the corner cart, pho at the plastic stools, egg coffee in the hidden upstairs cafe.",
	"Museum island deserves a full day, then take the S-Bahn out to the lakes for an evening swim and a beer garden dinner.",
	"Renting a scooter is the easiest way to reach the waterfalls, but check the brakes and carry your license for the police checkpoints.",
}

// makeCorpus builds n deterministic posts cycling through the location and
// body pools.
func makeCorpus(n int) []corpus.Post {
	posts := make([]corpus.Post, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range posts {
		loc := locations[i%len(locations)]
		posts[i] = corpus.Post{
			ID:                 fmt.Sprintf("post-%04d", i),
			Slug:               fmt.Sprintf("trip-report-%04d", i),
			Title:              fmt.Sprintf("Three days in %s", loc.city),
			Content:            bodies[i%len(bodies)],
			Excerpt:            "A short trip report with food and transport notes.",
			Tags:               loc.tags,
			Category:           "trip-reports",
			Location:           loc.city,
			Country:            loc.country,
			Date:               base.AddDate(0, 0, i),
			Language:           corpus.LangEN,
			ReadingTimeMinutes: 4 + i%7,
		}
	}
	return posts
}
