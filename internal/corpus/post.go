// Package corpus defines the immutable post model consumed by the discovery
// engine and the Provider boundary that supplies it. The engine never reads
// the content store itself; a Provider hands it an already-parsed snapshot.
package corpus

import "time"

// Language identifies the language a post is written in.
type Language string

const (
	LangEN Language = "en"
	LangDE Language = "de"
)

// Valid reports whether l is a recognised language code.
func (l Language) Valid() bool {
	return l == LangEN || l == LangDE
}

// Post is a single travel-blog post. Posts are read-only input: the engine
// never mutates them, and a rebuild replaces the whole slice wholesale.
type Post struct {
	ID                 string     `json:"id"`
	Slug               string     `json:"slug"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	Excerpt            string     `json:"excerpt"`
	Tags               []string   `json:"tags"`
	Category           string     `json:"category,omitempty"`
	Location           string     `json:"location,omitempty"`
	Country            string     `json:"country,omitempty"`
	Date               time.Time  `json:"date"`
	ModifiedDate       *time.Time `json:"modified_date,omitempty"`
	Language           Language   `json:"language"`
	ReadingTimeMinutes int        `json:"reading_time_minutes,omitempty"`
}

// TagSet returns the post's tags as a set for overlap computations.
func (p *Post) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		set[t] = struct{}{}
	}
	return set
}
