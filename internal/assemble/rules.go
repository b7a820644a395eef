package assemble

import (
	"regexp"
	"strings"
)

// Rule is one rewrite applied to assembled bill markup or derived text.
// Every rule must be a no-op on its own output.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
	// Func, when set, is used instead of Replace.
	Func func(match string) string
}

func (r Rule) Apply(s string) string {
	if r.Func != nil {
		return r.Pattern.ReplaceAllStringFunc(s, r.Func)
	}
	return r.Pattern.ReplaceAllString(s, r.Replace)
}

var (
	startTag      = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	tagName       = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9:-]*)`)
	xmlnsAttr     = regexp.MustCompile(`\s+xmlns(?::[a-zA-Z0-9_-]+)?="[^"]*"`)
	clearNoneAttr = regexp.MustCompile(`\s+clear="none"`)
	shapeRectAttr = regexp.MustCompile(`\s+shape="rect"`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
)

// stripStrayAttrs drops namespace declarations and rendering hints from a
// start tag. clear="none" is left on <br> so the next rule can drop the
// whole element.
func stripStrayAttrs(tag string) string {
	tag = xmlnsAttr.ReplaceAllString(tag, "")
	tag = shapeRectAttr.ReplaceAllString(tag, "")
	m := tagName.FindStringSubmatch(tag)
	if m != nil && strings.EqualFold(m[1], "br") {
		return tag
	}
	return clearNoneAttr.ReplaceAllString(tag, "")
}

// HTMLRules are applied in order to the concatenated bill pages.
var HTMLRules = []Rule{
	{
		Name:    "in-document anchors",
		Pattern: regexp.MustCompile(`href="[^"#:]+#`),
		Replace: `href="#`,
	},
	{
		Name:    "line numbers",
		Pattern: regexp.MustCompile(`(?s)<span\b[^>]*\bclass="[^"]*\bLegLineNumber\b[^"]*"[^>]*>.*?</span>`),
	},
	// A marker's content may hold text and childless elements, e.g. <span>12</span>.
	{
		Name:    "page breaks",
		Pattern: regexp.MustCompile(`<(?:span|div|hr)\b[^>]*\bclass="[^"]*\b(?:LegPageBreak|LegColumnBreak)\b[^"]*"[^>]*?(?:/>|>(?:(?:[^<]|<[a-zA-Z][^>]*>[^<]*</[a-zA-Z]+>)*</(?:span|div)>)?)`),
	},
	{
		Name:    "wrapper tags",
		Pattern: regexp.MustCompile(`(?i)</?(?:coverpara|rubric|abbr|acronym)\b[^>]*>`),
	},
	{
		Name:    "class attributes",
		Pattern: regexp.MustCompile(`\s+class="[^"]*"`),
	},
	{
		Name:    "stray attributes",
		Pattern: startTag,
		Func:    stripStrayAttrs,
	},
	{
		Name:    "clearing line breaks",
		Pattern: regexp.MustCompile(`(?i)<br\b[^>]*\sclear="none"[^>]*>`),
	},
}

// TextRules tidy the tag-stripped text. They are readability heuristics only.
var TextRules = []Rule{
	{
		Name:    "closing paren joins next line",
		Pattern: regexp.MustCompile(`(\S\))\r?\n`),
		Replace: "${1} ",
	},
	{
		Name:    "numbered line with dot",
		Pattern: regexp.MustCompile(`(\d)\.\r?\n`),
		Replace: "${1}. ",
	},
	{
		Name:    "numbered line",
		Pattern: regexp.MustCompile(`(\d)\r?\n`),
		Replace: "${1}. ",
	},
	{
		Name:    "blank line runs",
		Pattern: regexp.MustCompile(`\n(?:[ \t]*\r?\n){3,}`),
		Replace: "\n\n",
	},
}
