// Package text prepares user-submitted text for summarization and estimates
// token counts the way the accounting layer expects them.
package text

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

const blockElements = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, section, article"

// Normalize converts submitted text, which may be pasted HTML, into plain
// text with collapsed whitespace. Plain text passes through unchanged apart
// from whitespace.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if !looksLikeHTML(trimmed) {
		return normalizeWhitespace(trimmed)
	}

	markup := trimmed
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err == nil {
		doc.Find("head, script, style, noscript, iframe, nav, header, footer, aside").Remove()
		// keep word boundaries between block elements
		doc.Find(blockElements).AppendHtml(" ")
		if body, herr := doc.Find("body").Html(); herr == nil && body != "" {
			markup = body
		}
	}

	stripped := html.UnescapeString(strictPolicy.Sanitize(markup))
	return normalizeWhitespace(stripped)
}

// CountTokens approximates model tokens by whitespace splitting.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

func looksLikeHTML(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
