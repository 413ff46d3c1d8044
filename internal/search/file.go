package search

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// FileProvider loads search hits from a local JSON file for offline and dry
// runs. The file format is an array of objects: {"title": "...", "url": "...",
// "snippet": "..."}. Domain scoping is honored by matching the hit URL's host
// against each requested domain.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, domains []string) []Hit {
	if strings.TrimSpace(f.Path) == "" {
		return nil
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		log.Warn().Err(err).Str("provider", f.Name()).Msg("read search file failed")
		return nil
	}
	var raw []Hit
	if err := json.Unmarshal(b, &raw); err != nil {
		log.Warn().Err(err).Str("provider", f.Name()).Msg("parse search file failed")
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Hit, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Title), q) && !strings.Contains(strings.ToLower(r.Snippet), q) {
			continue
		}
		if len(domains) > 0 && !hostMatchesAny(r.URL, domains) {
			continue
		}
		r.Source = f.Name()
		out = append(out, r)
	}
	return out
}

func hostMatchesAny(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
