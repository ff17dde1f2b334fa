// Package tokenizer converts board source text into a flat sequence of
// keyword tokens. It is deliberately small: the board format is
// whitespace-delimited words drawn from a fixed keyword set, so the scanner
// only has to classify alphanumeric runs, newlines, and blanks, and reject
// everything else with the line it appeared on.
package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound reports that a board source could not be read.
var ErrNotFound = errors.New("board source not found")

// TokenError reports an illegal token or character in the source text.
type TokenError struct {
	Line int // 1-based line of the offending character
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("illegal token at line %d", e.Line)
}

// Token is a single keyword occurrence in the source.
type Token struct {
	Value string
	Line  int
}

// KeywordSet holds the words the tokenizer accepts. When tokenizing
// case-insensitively the entries must be upper case, since the source is
// folded to upper case before matching.
type KeywordSet map[string]bool

// NewKeywordSet builds a set from the given words.
func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Contains reports whether word is in the set.
func (s KeywordSet) Contains(word string) bool {
	return s[word]
}

// Tokenize scans source left to right and returns its keywords in source
// order. Spaces and tabs separate tokens and are discarded; newlines advance
// the line counter. A maximal alphanumeric run that is not in keywords, or
// any other character, yields a *TokenError carrying the current line.
// Empty input yields an empty token slice.
//
// When matchCase is false the entire source is folded to upper case before
// scanning, so keywords must be supplied upper case.
func Tokenize(source string, keywords KeywordSet, matchCase bool) ([]Token, error) {
	if !matchCase {
		source = strings.ToUpper(source)
	}

	tokens := []Token{}
	line := 1

	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case isAlphanumeric(c):
			j := i + 1
			for j < len(source) && isAlphanumeric(source[j]) {
				j++
			}
			word := source[i:j]
			if !keywords.Contains(word) {
				return nil, &TokenError{Line: line}
			}
			tokens = append(tokens, Token{Value: word, Line: line})
			i = j

		case c == '\n':
			line++
			i++

		case c == ' ' || c == '\t':
			i++

		default:
			return nil, &TokenError{Line: line}
		}
	}

	return tokens, nil
}

// TokenizeFile reads path and tokenizes its contents. An unreadable file is
// reported as ErrNotFound.
func TokenizeFile(path string, keywords KeywordSet, matchCase bool) ([]Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return Tokenize(string(data), keywords, matchCase)
}

func isAlphanumeric(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
