package aggregate

import (
	"net/url"
	"strings"

	"github.com/vkotek/grounder/internal/search"
)

// Flatten concatenates per-query hit groups in order without inspecting
// them. Hits sharing a URL across queries are kept as-is: different queries
// often surface different titles and snippets for the same page, and the
// relevance judge sees all of them.
func Flatten(groups [][]search.Hit) []search.Hit {
	out := make([]search.Hit, 0, 64)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// MergeAndNormalize merges per-query hit groups and drops hits whose URLs
// collapse to the same canonical form (lowercased host, no fragment, common
// tracking parameters removed). The first occurrence wins and keeps the URL
// exactly as the backend returned it; canonicalization is only the dedup
// key. Used only when URL dedup is explicitly enabled.
func MergeAndNormalize(groups [][]search.Hit) []search.Hit {
	seen := map[string]struct{}{}
	out := make([]search.Hit, 0, 64)
	for _, g := range groups {
		for _, r := range g {
			if r.URL == "" {
				continue
			}
			u, err := url.Parse(r.URL)
			if err != nil {
				continue
			}
			normalizeURL(u)
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	// Remove common tracking params
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
