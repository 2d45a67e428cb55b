package kwic

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize splits a line of corpus text into tokens.
// Rules:
//  1. A maximal run of word runes (letters, digits, underscore) is one token
//  2. Every other non-whitespace rune is a token on its own
//  3. Whitespace separates tokens and is dropped
//  4. Case is preserved
//
// The same function tokenizes cached corpora and live scans, so token
// offsets are reproducible between the two paths.
//
//	"I have 5 cats."  -> ["I", "have", "5", "cats", "."]
//	"Hello, world!"   -> ["Hello", ",", "world", "!"]
func Tokenize(line string) []string {
	if len(line) == 0 {
		return []string{}
	}

	tokens := make([]string, 0, len(line)/4+1)
	start := -1 // byte offset of the current word run, -1 when outside one

	for i, r := range line {
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
			continue
		case start >= 0:
			tokens = append(tokens, line[start:i])
			start = -1
		}

		if unicode.IsSpace(r) {
			continue
		}
		tokens = append(tokens, line[i:i+runeLen(line[i:], r)])
	}
	if start >= 0 {
		tokens = append(tokens, line[start:])
	}
	return tokens
}

// isWordRune matches the word class: Unicode letters, Unicode numbers and
// underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// runeLen returns the encoded width of r at the start of s. Invalid bytes
// decode as utf8.RuneError with width 1 and stay a single-byte token.
func runeLen(s string, r rune) int {
	if r == utf8.RuneError {
		_, n := utf8.DecodeRuneInString(s)
		return n
	}
	return utf8.RuneLen(r)
}
