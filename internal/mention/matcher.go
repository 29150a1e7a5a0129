// Package mention implements @mention detection for the comment editor:
// recognizing the in-progress token at the caret, fetching completions,
// and splicing a chosen suggestion back into the text.
package mention

import "regexp"

// tokenPattern matches an @ followed by zero or more handle characters,
// anchored at the end of the text before the caret. A space (or any other
// character outside the class) terminates the token.
var tokenPattern = regexp.MustCompile(`@([a-zA-Z0-9._@-]*)$`)

// Match describes a live mention token.
type Match struct {
	// Query is the text typed after the @.
	Query string

	// Start is the rune offset of the @ within the full text.
	Start int
}

// Find inspects the text before the caret for an in-progress mention
// token. Offsets are computed from the current caret, so a caret moved
// backward into existing text is handled correctly; with consecutive @
// tokens only the most recent, unterminated one matches.
func Find(text string, caret int) (Match, bool) {
	runes := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}

	before := string(runes[:caret])
	loc := tokenPattern.FindStringSubmatchIndex(before)
	if loc == nil {
		return Match{}, false
	}

	query := before[loc[2]:loc[3]]
	start := len([]rune(before[:loc[0]]))
	return Match{Query: query, Start: start}, true
}

// Splice replaces the region from the mention's start offset to the caret
// with "@name " and returns the new text plus the caret position just
// after the inserted trailing space.
func Splice(text string, caret, start int, name string) (string, int) {
	runes := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}
	if start < 0 {
		start = 0
	}
	if start > caret {
		start = caret
	}

	inserted := "@" + name + " "
	out := string(runes[:start]) + inserted + string(runes[caret:])
	return out, start + len([]rune(inserted))
}
