package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// DefaultMinParagraphChars is the minimum trimmed length a paragraph must
// exceed to be treated as substantive body text.
const DefaultMinParagraphChars = 50

// FromHTML reduces an HTML document to plain body text: it collects the text
// of each <p> element, keeps only paragraphs whose trimmed text exceeds
// minChars, and joins the survivors with blank lines. Unparseable input or a
// document with no qualifying paragraphs yields "".
func FromHTML(input []byte, minChars int) string {
	if minChars <= 0 {
		minChars = DefaultMinParagraphChars
	}
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return ""
	}
	var paragraphs []string
	var dfs func(*html.Node)
	dfs = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "p") {
			text := strings.TrimSpace(collapseSpaces(textContent(n)))
			if len(text) > minChars {
				paragraphs = append(paragraphs, text)
			}
			// Nested <p> cannot occur after parsing; no need to descend.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(node)
	return strings.Join(paragraphs, "\n\n")
}

// textContent concatenates all text nodes beneath n, skipping script and
// style subtrees.
func textContent(n *html.Node) string {
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return b.String()
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
