package search

import (
	"strings"
	"unicode/utf8"
)

const (
	snippetLead  = 30  // runes kept before the first occurrence
	snippetWidth = 100 // runes in the window
	ellipsis     = "..."
)

// Snippet returns the preview of content around the first case-insensitive
// occurrence of term. When term does not occur the window starts at 0.
// Every '<' in the window is escaped.
func Snippet(content, term string) string {
	return snippet(content, fold(content), fold(term))
}

func snippet(content, foldedContent, foldedTerm string) string {
	idx := -1
	if b := strings.Index(foldedContent, foldedTerm); b >= 0 {
		idx = utf8.RuneCountInString(foldedContent[:b])
	}

	runes := []rune(content)
	start := max(0, idx-snippetLead)
	end := min(start+snippetWidth, len(runes))

	return strings.ReplaceAll(string(runes[start:end]), "<", "&lt;") + ellipsis
}
