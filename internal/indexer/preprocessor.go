package indexer

import (
	"strings"
	"unicode/utf8"
)

// ContentLength returns the number of characters in text once leading and trailing whitespace is
// removed.
func ContentLength(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// Indexable reports whether a message is long enough to be worth embedding.
func Indexable(content string, minLength int) bool {
	return ContentLength(content) >= minLength
}
