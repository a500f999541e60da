package index

import (
	"sort"
	"strings"
	"unicode"

	"github.com/fernwehlabs/discovery/internal/corpus"
)

const snippetRadius = 90

// Span marks a highlighted byte range within a snippet.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Highlighted is a display snippet with the byte spans of matched terms,
// relative to the snippet text.
type Highlighted struct {
	Snippet string `json:"snippet"`
	Spans   []Span `json:"spans"`
}

// Highlight extracts the content window around the first matched term and
// marks every matched-term occurrence inside it. Purely presentational; it
// plays no part in ranking. With no matches in the body it falls back to the
// excerpt, then to the head of the content.
func Highlight(post *corpus.Post, matchedTerms []string) Highlighted {
	content := post.Content
	lower := strings.ToLower(content)

	first := -1
	for _, term := range matchedTerms {
		if pos := indexWord(lower, term); pos >= 0 && (first < 0 || pos < first) {
			first = pos
		}
	}
	if first < 0 {
		fallback := post.Excerpt
		if fallback == "" {
			fallback = content
		}
		return Highlighted{Snippet: truncateAtWord(fallback, 2*snippetRadius)}
	}

	start := first - snippetRadius
	if start < 0 {
		start = 0
	}
	end := first + snippetRadius
	if end > len(content) {
		end = len(content)
	}
	start = snapForward(content, start)
	end = snapBack(content, end)
	snippet := strings.TrimSpace(content[start:end])
	offset := strings.Index(content[start:end], snippet) + start

	lowerSnippet := strings.ToLower(content[offset : offset+len(snippet)])
	var spans []Span
	for _, term := range matchedTerms {
		from := 0
		for {
			pos := indexWord(lowerSnippet[from:], term)
			if pos < 0 {
				break
			}
			spans = append(spans, Span{Start: from + pos, End: from + pos + len(term)})
			from += pos + len(term)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return Highlighted{Snippet: snippet, Spans: spans}
}

// indexWord finds term in text at a word boundary.
func indexWord(text, term string) int {
	from := 0
	for {
		pos := strings.Index(text[from:], term)
		if pos < 0 {
			return -1
		}
		abs := from + pos
		beforeOK := abs == 0 || !isWordRune(rune(text[abs-1]))
		afterOK := abs+len(term) >= len(text) || !isWordRune(rune(text[abs+len(term)]))
		if beforeOK && afterOK {
			return abs
		}
		from = abs + len(term)
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// snapForward moves start to the next word boundary so the snippet never
// opens mid-word.
func snapForward(text string, start int) int {
	if start == 0 {
		return 0
	}
	for start < len(text) && isWordRune(rune(text[start])) {
		start++
	}
	return start
}

// snapBack moves end to the previous word boundary.
func snapBack(text string, end int) int {
	if end >= len(text) {
		return len(text)
	}
	for end > 0 && isWordRune(rune(text[end])) {
		end--
	}
	return end
}

func truncateAtWord(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return strings.TrimSpace(text[:snapBack(text, max)])
}
