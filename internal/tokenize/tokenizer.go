// Package tokenize splits short texts into tokens and maps tokens to integer sequences.
package tokenize

import (
	"strings"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns a text into an ordered sequence of tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// WhitespaceTokenizer splits on spaces, tabs and newlines only.
type WhitespaceTokenizer struct{}

// Tokenize returns the non-empty whitespace-separated words of text.
func (WhitespaceTokenizer) Tokenize(text string) []string {
	return SplitWords(text)
}

// StandardTokenizer normalizes text (NFKC, case folding), splits on anything that is not a
// letter, digit or apostrophe, and optionally Porter-stems each token.
type StandardTokenizer struct {
	Stem bool
}

// Tokenize implements Tokenizer.
func (t StandardTokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	folded := cases.Fold().String(norm.NFKC.String(text))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		if t.Stem {
			f = porterstemmer.StemString(f)
		}
		tokens = append(tokens, f)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// New returns the tokenizer registered under name: "standard", "stemmed" or "whitespace".
// Unknown names fall back to the standard tokenizer.
func New(name string) Tokenizer {
	switch name {
	case "whitespace":
		return WhitespaceTokenizer{}
	case "stemmed":
		return StandardTokenizer{Stem: true}
	default:
		return StandardTokenizer{}
	}
}

// SplitWords splits text on Unicode whitespace and returns non-empty words.
func SplitWords(text string) []string {
	return strings.Fields(text)
}
