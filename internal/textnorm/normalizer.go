// Package textnorm turns raw message text into the normalized token string
// the vectorizer was fitted on.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer lowercases, tokenizes, filters and stems message text.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Tokens returns the normalized tokens of text in order.
func (n *Normalizer) Tokens(text string) []string {
	// a Caser is stateful and must not be shared between goroutines
	text = cases.Lower(language.Und).String(text)

	var alnum []string
	for _, tok := range Tokenize(text) {
		if IsAlnum(tok) {
			alnum = append(alnum, tok)
		}
	}

	var kept []string
	for _, tok := range alnum {
		if !IsStopword(tok) && !isPunctuation(tok) {
			kept = append(kept, tok)
		}
	}

	stems := make([]string, len(kept))
	for i, tok := range kept {
		stems[i] = Stem(tok)
	}
	return stems
}

// Normalize returns the normalized tokens of text joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}
