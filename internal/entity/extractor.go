package entity

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/search/tokenizer"
)

// Extractor runs the rule-based entity recogniser. It is stateless and safe
// for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		logger: slog.Default().With("component", "entity-extractor"),
	}
}

// Extract returns the entities found in one post, ordered by first mention
// (structured fields first, then content matches, then tags). Extraction is
// fail-open: the worst case for malformed input is an empty slice.
func (e *Extractor) Extract(post *corpus.Post) []Entity {
	acc := newAccumulator(post.ID)

	// Structured fields seed high-confidence places.
	if loc := strings.TrimSpace(post.Location); loc != "" {
		acc.add(TypePlace, loc, 1.0, "")
	}
	if country := strings.TrimSpace(post.Country); country != "" {
		acc.add(TypePlace, country, 1.0, "")
	}

	// Content matches: bigrams take precedence over unigrams so that
	// "street food" never decomposes into a weaker match.
	text := post.Title + " " + post.Content
	tokens := tokenizer.Tokenize(text)
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			bigram := tokens[i].Term + " " + tokens[i+1].Term
			if entry, ok := lookupTerm(bigram); ok {
				acc.add(entry.Type, bigram, entry.Confidence, contextAround(text, bigram))
				i++
				continue
			}
		}
		if entry, ok := lookupTerm(tokens[i].Term); ok {
			acc.add(entry.Type, tokens[i].Term, entry.Confidence, contextAround(text, tokens[i].Term))
		}
	}

	// Tag-derived candidates.
	for _, tag := range post.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		typ, ok := tagTypeMap[strings.ToLower(tag)]
		if !ok {
			typ = TypeCultural
		}
		confidence := tagConfidence
		// Tags naming a gazetteer place are as reliable as running text.
		if entry, hit := gazetteer[strings.ToLower(tag)]; hit {
			typ = entry.Type
			confidence = entry.Confidence
		}
		acc.add(typ, tag, confidence, "")
	}

	return acc.entities()
}

// BatchExtract extracts entities for every post, fanning the per-post work
// out over the given number of workers. Posts are independent, so only the
// result map needs synchronising.
func (e *Extractor) BatchExtract(posts []corpus.Post, workers int) map[string][]Entity {
	if workers < 1 {
		workers = 1
	}
	results := make(map[string][]Entity, len(posts))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range posts {
		post := &posts[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			extracted := e.Extract(post)
			mu.Lock()
			results[post.ID] = extracted
			mu.Unlock()
		}()
	}
	wg.Wait()

	withNone := 0
	for _, ents := range results {
		if len(ents) == 0 {
			withNone++
		}
	}
	if withNone > 0 {
		e.logger.Debug("posts with zero entities", "count", withNone, "total", len(posts))
	}
	return results
}

// lookupTerm checks the gazetteer first, then the domain lexicon.
func lookupTerm(term string) (lexiconEntry, bool) {
	if entry, ok := gazetteer[term]; ok {
		return entry, true
	}
	entry, ok := lexicon[term]
	return entry, ok
}

// contextAround returns a short window of the original text surrounding the
// first occurrence of term, for caller-facing explainability.
func contextAround(text, term string) string {
	pos := strings.Index(strings.ToLower(text), term)
	if pos < 0 {
		return ""
	}
	start := pos - 40
	if start < 0 {
		start = 0
	}
	end := pos + len(term) + 40
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}

// accumulator collapses repeat mentions into single Entity records while
// remembering first-mention order.
type accumulator struct {
	postID  string
	byKey   map[string]*Entity
	ordered []string
}

func newAccumulator(postID string) *accumulator {
	return &accumulator{
		postID: postID,
		byKey:  make(map[string]*Entity),
	}
}

func (a *accumulator) add(typ Type, name string, confidence float64, context string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	key := CanonicalKey(typ, name)
	if existing, ok := a.byKey[key]; ok {
		existing.Mentions++
		if confidence > existing.Confidence {
			existing.Confidence = confidence
		}
		if existing.ContextSnippet == "" {
			existing.ContextSnippet = context
		}
		return
	}
	a.byKey[key] = &Entity{
		Type:           typ,
		Name:           name,
		Confidence:     confidence,
		SourcePostID:   a.postID,
		Mentions:       1,
		ContextSnippet: context,
	}
	a.ordered = append(a.ordered, key)
}

func (a *accumulator) entities() []Entity {
	out := make([]Entity, 0, len(a.ordered))
	for _, key := range a.ordered {
		out = append(out, *a.byKey[key])
	}
	return out
}

// TopNames returns the names of the n highest-confidence entities, used as a
// clustering signal. Ties break alphabetically for determinism.
func TopNames(entities []Entity, n int) []string {
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].Name < sorted[j].Name
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	names := make([]string, 0, n)
	for _, ent := range sorted[:n] {
		names = append(names, strings.ToLower(ent.Name))
	}
	return names
}
