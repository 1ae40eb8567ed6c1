package article

import (
	"strings"
	"testing"
)

func TestSummary_StripsMarkup(t *testing.T) {
	got := Summary("<p>Hello <b>world</b> &amp; friends</p>")
	if got != "Hello world & friends" {
		t.Errorf("Expected plain text, got %q", got)
	}
}

func TestSummary_Truncates(t *testing.T) {
	body := "<div>" + strings.Repeat("a", 200) + "</div>"

	got := Summary(body)

	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis, got %q", got)
	}
	if len(got) != SummaryLength+3 {
		t.Errorf("Expected %d characters, got %d", SummaryLength+3, len(got))
	}
}

func TestExtractAuthor(t *testing.T) {
	if got := ExtractAuthor(Article{Author: "Jane"}); got != "Jane" {
		t.Errorf("Expected 'Jane', got %q", got)
	}
	if got := ExtractAuthor(Article{Content: "<p>Author: John Smith</p>"}); got != "John Smith" {
		t.Errorf("Expected 'John Smith', got %q", got)
	}
	if got := ExtractAuthor(Article{Content: "no byline"}); got != UnknownAuthor {
		t.Errorf("Expected %q, got %q", UnknownAuthor, got)
	}
}
