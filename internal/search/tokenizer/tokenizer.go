// Package tokenizer provides text normalisation for the discovery engine.
// It strips markup, lower-cases input, splits on non-alphanumeric boundaries,
// and removes stop-words while preserving token positions for snippet and
// highlight extraction. Terms are indexed as-is, with no stemming, so the
// same tokenizer serves both English and German posts.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	// English
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {}, "you": {},
	"we": {}, "our": {}, "my": {}, "your": {},
	// German
	"der": {}, "die": {}, "das": {}, "und": {}, "oder": {}, "aber": {},
	"ein": {}, "eine": {}, "einen": {}, "einem": {}, "einer": {},
	"ich": {}, "du": {}, "wir": {}, "ihr": {}, "sie": {}, "es": {},
	"ist": {}, "sind": {}, "war": {}, "waren": {}, "hat": {}, "haben": {},
	"mit": {}, "von": {}, "zu": {}, "im": {}, "am": {}, "auf": {},
	"für": {}, "nach": {}, "bei": {}, "aus": {}, "als": {}, "auch": {},
	"nicht": {}, "wie": {}, "dem": {}, "den": {}, "des": {},
}

// Token is a single normalised term and its position in the original text.
// Positions count surviving tokens, not characters, so adjacent positions
// describe adjacent indexed terms.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into a slice of lowercased Tokens with markup and
// stop-words removed. Malformed or empty input yields an empty slice.
func Tokenize(text string) []Token {
	text = stripMarkup(text)
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms returns just the term strings of Tokenize(text), for callers that do
// not need positions.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// stripMarkup removes HTML/markdown tags by dropping everything between
// '<' and '>'. Unclosed tags swallow the remainder of the text, which is
// acceptable for the worst case of malformed input (fewer tokens, never an
// error).
func stripMarkup(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			// tag boundaries separate words
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
