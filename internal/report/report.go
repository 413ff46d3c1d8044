package report

import (
	"fmt"
	"strings"
)

// Source is one retained page with whatever body text could be extracted.
// Extract may be empty, never meaningfully absent.
type Source struct {
	Title   string
	URL     string
	Extract string
}

// Sentinel lines the rendered document uses for degraded content.
const (
	noResultsSentinel = "No relevant results found."
	noContentSentinel = "No content extracted."
	noTopicSentinel   = "Not specified"
)

// Render produces the grounding document: a deterministic markdown rendering
// of the retained sources in rank order. It is a pure function of its inputs.
func Render(topic string, sources []Source) string {
	var b strings.Builder
	b.WriteString("# Search and Extracted Content\n\n")
	t := strings.TrimSpace(topic)
	if t == "" {
		t = noTopicSentinel
	}
	fmt.Fprintf(&b, "**Topic:** %s\n\n", t)
	b.WriteString("## Relevant Search Results\n")

	if len(sources) == 0 {
		b.WriteString("\n" + noResultsSentinel + "\n")
		return b.String()
	}

	for i, s := range sources {
		title := s.Title
		if strings.TrimSpace(title) == "" {
			title = "No Title"
		}
		url := s.URL
		if strings.TrimSpace(url) == "" {
			url = "#"
		}
		fmt.Fprintf(&b, "\n### Result %d: [%s](%s)\n\n", i+1, title, url)
		b.WriteString("**Extracted Content:**\n\n")
		content := s.Extract
		if strings.TrimSpace(content) == "" {
			content = noContentSentinel
		}
		b.WriteString("```\n" + content + "\n```\n")
	}
	return b.String()
}
