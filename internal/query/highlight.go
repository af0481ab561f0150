package query

import "strings"

// Marker wraps one matched fragment for display.
type Marker func(match string) string

// MarkTag wraps matches in <mark> tags.
func MarkTag(match string) string {
	return "<mark>" + match + "</mark>"
}

// Highlight wraps every non-overlapping, non-empty match of pattern in text
// with mark (MarkTag when nil). An empty or invalid pattern returns text
// unchanged.
func (e *Engine) Highlight(text, pattern string, caseSensitive bool, mark Marker) string {
	if pattern == "" {
		return text
	}
	re, err := e.Compile(pattern, caseSensitive)
	if err != nil {
		return text
	}
	if mark == nil {
		mark = MarkTag
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(mark(text[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}
