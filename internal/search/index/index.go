// Package index implements the field-weighted inverted index and TF-IDF
// scoring behind search and content-similarity. An Index is built once from
// a corpus snapshot and is immutable afterwards, so reads need no locking.
package index

import (
	"math"
	"sort"
	"strings"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/search/tokenizer"
	"github.com/fernwehlabs/discovery/pkg/errors"
)

// Field weight multipliers: a term in the title counts three times as much
// as the same term in the body.
const (
	weightTitle    = 3
	weightTags     = 2
	weightExcerpt  = 2
	weightCategory = 2
	weightLocation = 2
	weightContent  = 1
)

// MaxLimit caps the number of results a single search may return.
const MaxLimit = 50

// Sort selects the ordering of search results.
type Sort string

const (
	SortRelevance   Sort = "relevance"
	SortDate        Sort = "date"
	SortPopularity  Sort = "popularity"
	SortReadingTime Sort = "readingTime"
)

// Valid reports whether s names a supported sort order.
func (s Sort) Valid() bool {
	switch s {
	case SortRelevance, SortDate, SortPopularity, SortReadingTime:
		return true
	}
	return false
}

// Request is a validated search request.
type Request struct {
	Query   string
	Filters Filters
	SortBy  Sort
	Limit   int
	Offset  int

	// Popularity supplies the external engagement prior used by the
	// popularity sort order; nil means every post ranks equally.
	Popularity map[string]float64
}

// ScoredPost is a single search hit.
type ScoredPost struct {
	PostID       string   `json:"post_id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Excerpt      string   `json:"excerpt"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
}

// Result is the outcome of one search.
type Result struct {
	Results      []ScoredPost `json:"results"`
	TotalMatched int          `json:"total_matched"`
}

// Index is the immutable inverted index over one corpus snapshot.
type Index struct {
	postings   map[string]PostingList
	docFreq    map[string]int
	docLengths map[string]int
	vectors    map[string]map[string]float64
	posts      map[string]*corpus.Post
	slugs      map[string]string
	order      []string
	totalPosts int
}

// Build constructs the index from the given posts. Runs in time linear in
// the total token count.
func Build(posts []corpus.Post) *Index {
	idx := &Index{
		postings:   make(map[string]PostingList),
		docFreq:    make(map[string]int),
		docLengths: make(map[string]int, len(posts)),
		vectors:    make(map[string]map[string]float64, len(posts)),
		posts:      make(map[string]*corpus.Post, len(posts)),
		slugs:      make(map[string]string, len(posts)),
		order:      make([]string, 0, len(posts)),
		totalPosts: len(posts),
	}

	type weightedField struct {
		text   string
		weight int
	}

	for i := range posts {
		post := &posts[i]
		fields := []weightedField{
			{post.Title, weightTitle},
			{strings.Join(post.Tags, " "), weightTags},
			{post.Excerpt, weightExcerpt},
			{post.Category, weightCategory},
			{post.Location + " " + post.Country, weightLocation},
			{post.Content, weightContent},
		}

		termData := make(map[string]*Posting)
		docLen := 0
		for _, field := range fields {
			for _, tok := range tokenizer.Tokenize(field.text) {
				p, seen := termData[tok.Term]
				if !seen {
					p = &Posting{PostID: post.ID}
					termData[tok.Term] = p
				}
				p.Frequency += field.weight
				p.Positions = append(p.Positions, tok.Position)
				docLen += field.weight
			}
		}

		idx.posts[post.ID] = post
		idx.slugs[post.Slug] = post.ID
		idx.order = append(idx.order, post.ID)
		idx.docLengths[post.ID] = docLen
		for term, posting := range termData {
			idx.postings[term] = append(idx.postings[term], *posting)
			idx.docFreq[term]++
		}
	}

	for term := range idx.postings {
		list := idx.postings[term]
		sort.Slice(list, func(i, j int) bool { return list[i].PostID < list[j].PostID })
	}

	idx.buildVectors()
	return idx
}

// buildVectors precomputes a unit-length TF-IDF vector per post for
// content-similarity lookups.
func (idx *Index) buildVectors() {
	for term, list := range idx.postings {
		w := idx.idf(term)
		if w == 0 {
			continue
		}
		for _, p := range list {
			vec := idx.vectors[p.PostID]
			if vec == nil {
				vec = make(map[string]float64)
				idx.vectors[p.PostID] = vec
			}
			vec[term] = (1 + math.Log(float64(p.Frequency))) * w
		}
	}
	for _, vec := range idx.vectors {
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for term := range vec {
			vec[term] /= norm
		}
	}
}

// Search runs a ranked query over the index. A query that is empty after
// tokenization is a validation error rather than a match-everything request.
func (idx *Index) Search(req Request) (*Result, error) {
	if err := req.Filters.Validate(); err != nil {
		return nil, err
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = SortRelevance
	}
	if !sortBy.Valid() {
		return nil, errors.Newf(errors.ErrInvalidQuery, 400, "unknown sort order %q", req.SortBy)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if req.Offset < 0 {
		return nil, errors.New(errors.ErrInvalidQuery, 400, "offset must be non-negative")
	}

	queryTerms := tokenizer.Terms(req.Query)
	if len(queryTerms) == 0 {
		return nil, errors.New(errors.ErrInvalidQuery, 400, "query is empty after normalisation")
	}

	// Filter first so scoring only touches admissible posts.
	admissible := func(postID string) bool {
		post, ok := idx.posts[postID]
		if !ok {
			return false
		}
		return req.Filters.Empty() || req.Filters.Match(post)
	}

	type hit struct {
		score   float64
		matched map[string]struct{}
	}
	hits := make(map[string]*hit)
	for _, term := range queryTerms {
		list, ok := idx.postings[term]
		if !ok {
			continue
		}
		w := idx.idf(term)
		for _, p := range list {
			if !admissible(p.PostID) {
				continue
			}
			h := hits[p.PostID]
			if h == nil {
				h = &hit{matched: make(map[string]struct{})}
				hits[p.PostID] = h
			}
			h.score += (1 + math.Log(float64(p.Frequency))) * w
			h.matched[term] = struct{}{}
		}
	}

	scored := make([]ScoredPost, 0, len(hits))
	for postID, h := range hits {
		post := idx.posts[postID]
		score := h.score
		if docLen := idx.docLengths[postID]; docLen > 0 {
			score /= math.Sqrt(float64(docLen))
		}
		matched := make([]string, 0, len(h.matched))
		for term := range h.matched {
			matched = append(matched, term)
		}
		sort.Strings(matched)
		scored = append(scored, ScoredPost{
			PostID:       postID,
			Slug:         post.Slug,
			Title:        post.Title,
			Excerpt:      post.Excerpt,
			Score:        math.Round(score*10000) / 10000,
			MatchedTerms: matched,
		})
	}

	idx.sortResults(scored, sortBy, req.Popularity)

	total := len(scored)
	if req.Offset >= total {
		return &Result{Results: []ScoredPost{}, TotalMatched: total}, nil
	}
	end := req.Offset + limit
	if end > total {
		end = total
	}
	return &Result{Results: scored[req.Offset:end], TotalMatched: total}, nil
}

func (idx *Index) sortResults(scored []ScoredPost, sortBy Sort, popularity map[string]float64) {
	newerFirst := func(a, b ScoredPost) bool {
		da := idx.posts[a.PostID].Date
		db := idx.posts[b.PostID].Date
		if !da.Equal(db) {
			return da.After(db)
		}
		return a.PostID < b.PostID
	}
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		switch sortBy {
		case SortDate:
			return newerFirst(a, b)
		case SortPopularity:
			pa, pb := popularity[a.PostID], popularity[b.PostID]
			if pa != pb {
				return pa > pb
			}
			return newerFirst(a, b)
		case SortReadingTime:
			ra := idx.posts[a.PostID].ReadingTimeMinutes
			rb := idx.posts[b.PostID].ReadingTimeMinutes
			if ra != rb {
				return ra < rb
			}
			return newerFirst(a, b)
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return newerFirst(a, b)
		}
	})
}

// CosineSimilarity returns the cosine of the two posts' TF-IDF vectors, in
// [0,1]. Unknown posts score 0.
func (idx *Index) CosineSimilarity(postA, postB string) float64 {
	va, vb := idx.vectors[postA], idx.vectors[postB]
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}
	if len(vb) < len(va) {
		va, vb = vb, va
	}
	var dot float64
	for term, w := range va {
		dot += w * vb[term]
	}
	if dot > 1 {
		// float drift on unit vectors
		dot = 1
	}
	return dot
}

// Get returns the post with the given id.
func (idx *Index) Get(postID string) (*corpus.Post, bool) {
	p, ok := idx.posts[postID]
	return p, ok
}

// GetBySlug returns the post with the given slug.
func (idx *Index) GetBySlug(slug string) (*corpus.Post, bool) {
	id, ok := idx.slugs[slug]
	if !ok {
		return nil, false
	}
	return idx.posts[id], true
}

// PostIDs returns post ids in corpus order.
func (idx *Index) PostIDs() []string {
	return idx.order
}

// TotalPosts returns the number of indexed posts.
func (idx *Index) TotalPosts() int {
	return idx.totalPosts
}

// TermCount returns the number of distinct terms.
func (idx *Index) TermCount() int {
	return len(idx.postings)
}

// Entries returns the full inverted index as sorted TermEntry rows. Used for
// determinism checks and debugging exports.
func (idx *Index) Entries() []TermEntry {
	entries := make([]TermEntry, 0, len(idx.postings))
	for term, list := range idx.postings {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: list,
			DocFreq:  idx.docFreq[term],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Term < entries[j].Term })
	return entries
}

// idf returns log(totalPosts/docFreq) for a term, 0 for unknown terms or a
// degenerate corpus.
func (idx *Index) idf(term string) float64 {
	df := idx.docFreq[term]
	if df == 0 || idx.totalPosts == 0 {
		return 0
	}
	return math.Log(float64(idx.totalPosts) / float64(df))
}
