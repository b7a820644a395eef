// Package assemble joins the pages of a bill text into one document, cleans
// the markup and derives a plain-text rendering.
package assemble

import (
	"html"
	"sort"
	"strings"
)

// Page is the content body of one page of a bill text. Index is 1-based.
type Page struct {
	Index int
	Body  string
}

type Result struct {
	HTML string
	Text string
}

// Assemble concatenates pages in index order, whatever order they arrive in,
// cleans the result and derives its text. No pages, or only empty bodies,
// give an empty Result.
func Assemble(billName string, pages []Page) Result {
	if len(pages) == 0 {
		return Result{}
	}

	ordered := make([]Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	var b strings.Builder
	for _, p := range ordered {
		b.WriteString(p.Body)
	}

	cleaned := Clean(b.String())
	if cleaned == "" {
		return Result{}
	}
	return Result{HTML: cleaned, Text: PlainText(billName, cleaned)}
}

// Clean applies HTMLRules in order.
func Clean(markup string) string {
	for _, r := range HTMLRules {
		markup = r.Apply(markup)
	}
	return markup
}

// PlainText renders cleaned bill markup as text headed by the bill's title.
func PlainText(billName, markup string) string {
	text := billName + " Bill\n" + markup
	text = anyTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	for _, r := range TextRules {
		text = r.Apply(text)
	}
	return text
}
