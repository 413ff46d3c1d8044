package search

import (
	"context"
	"strings"
)

// Hit represents a single search result from any provider.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"-"` // provider name for observability
}

// Provider is the contract for search backends. Search never returns an
// error: each per-domain request that fails is logged and skipped, and the
// union of the results that could be obtained is returned, possibly empty.
// When domains is non-empty one scoped request is issued per domain;
// otherwise a single unscoped request is issued.
type Provider interface {
	Search(ctx context.Context, query string, domains []string) []Hit
	Name() string
}

// scopedQuery combines a query with a site restriction for one domain.
// An empty domain leaves the query untouched.
func scopedQuery(query, domain string) string {
	d := strings.TrimSpace(domain)
	if d == "" {
		return query
	}
	return query + " site:" + d
}

// scopes expands a domain list into the per-request scope set. An empty list
// yields a single unscoped request.
func scopes(domains []string) []string {
	if len(domains) == 0 {
		return []string{""}
	}
	return domains
}
