// Package entity implements rule-based entity extraction over blog posts and
// the co-occurrence knowledge graph derived from it. Extraction is purely
// lexical (gazetteer + curated lexicons + tag mapping), so it is
// deterministic and never fails; a malformed post simply yields no entities.
package entity

import "strings"

// Type classifies an extracted entity.
type Type string

const (
	TypePlace        Type = "place"
	TypeFood         Type = "food"
	TypeActivity     Type = "activity"
	TypeCultural     Type = "cultural"
	TypeTransport    Type = "transport"
	TypeOrganization Type = "organization"
)

// Entity is one canonical entity mention aggregate within a single post.
// Repeated mentions of the same canonical name collapse into one record with
// a mention count.
type Entity struct {
	Type           Type    `json:"type"`
	Name           string  `json:"name"`
	Confidence     float64 `json:"confidence"`
	SourcePostID   string  `json:"source_post_id"`
	Mentions       int     `json:"mentions"`
	ContextSnippet string  `json:"context_snippet,omitempty"`
}

// Key returns the canonical graph key for the entity, so "Bangkok" and
// "bangkok " collapse to one node.
func (e Entity) Key() string {
	return CanonicalKey(e.Type, e.Name)
}

// CanonicalKey builds the "type:name" canonical key used throughout the
// knowledge graph.
func CanonicalKey(t Type, name string) string {
	return string(t) + ":" + strings.ToLower(strings.TrimSpace(name))
}
