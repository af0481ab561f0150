package query

import (
	"strings"
	"testing"
)

func TestHighlight(t *testing.T) {
	e := NewEngine(8)
	tests := []struct {
		name          string
		text          string
		pattern       string
		caseSensitive bool
		want          string
	}{
		{"single match", "Coffee beans", "coffee", false, "<mark>Coffee</mark> beans"},
		{"every match", "tea and more tea", "tea", false, "<mark>tea</mark> and more <mark>tea</mark>"},
		{"case sensitive miss", "Coffee", "coffee", true, "Coffee"},
		{"empty pattern", "Coffee", "", false, "Coffee"},
		{"invalid pattern", "Coffee", "[", false, "Coffee"},
		{"zero width matches skipped", "abc", "x*", false, "abc"},
		{"no match", "Coffee", "tea", false, "Coffee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Highlight(tt.text, tt.pattern, tt.caseSensitive, nil); got != tt.want {
				t.Errorf("Highlight(%q, %q) = %q, want %q", tt.text, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestHighlightCustomMarker(t *testing.T) {
	e := NewEngine(8)
	got := e.Highlight("Bus ticket", "bus", false, strings.ToUpper)
	if got != "BUS ticket" {
		t.Fatalf("got %q", got)
	}
}
